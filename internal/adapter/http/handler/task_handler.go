package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	. "taskapp/internal/adapter/http/helper"
	"taskapp/internal/adapter/http/middleware"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/model/request"
	"taskapp/internal/core/model/response"
	"taskapp/internal/core/port"
	"taskapp/pkg/logger"
	. "taskapp/pkg/tracing"
)

type TaskHandler struct {
	svc    port.TaskService
	Logger *logger.Logger
}

func NewTaskHandler(svc port.TaskService, log *logger.Logger) *TaskHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &TaskHandler{
		svc:    svc,
		Logger: log,
	}
}

func (t *TaskHandler) startSpan(c *gin.Context, operation string) (trace.Span, domain.Principal) {
	principal := middleware.GetPrincipal(c)

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task."+operation, []attribute.KeyValue{
		attribute.String("handler.operation", operation),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
		attribute.Int64("user.id", principal.UserID),
	})

	c.Request = c.Request.WithContext(ctx)

	return span, principal
}

func (t *TaskHandler) fail(c *gin.Context, span trace.Span, operation string, err error) {
	if !SendDomainError(c, err) {
		AddSpanError(span, err)

		t.Logger.Logger.Ctx(c.Request.Context()).Error("Task request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}

	AddHTTPAttributes(span, c.Request.Method, c.FullPath(), c.Writer.Status())
}

func (t *TaskHandler) succeed(c *gin.Context, span trace.Span, status int, data any) {
	SendSuccess(c, status, data)
	AddHTTPAttributes(span, c.Request.Method, c.FullPath(), status)
}

// decode reads the task body. It reports false after writing the error response.
func (t *TaskHandler) decode(c *gin.Context, span trace.Span, operation string) (request.TaskRequest, bool) {
	req, err := request.DecodeTask(c.Request.Body)

	if errors.Is(err, request.ErrMalformedBody) {
		SendBadRequestError(c, "body", "JSON parse error")
		AddHTTPAttributes(span, c.Request.Method, c.FullPath(), http.StatusBadRequest)
		return req, false
	}

	if err != nil {
		t.fail(c, span, operation, err)
		return req, false
	}

	return req, true
}

func (t *TaskHandler) List(c *gin.Context) {
	span, principal := t.startSpan(c, "List")
	defer span.End()

	tasks, err := t.svc.List(c.Request.Context(), principal)

	if err != nil {
		t.fail(c, span, "List", err)
		return
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))

	t.succeed(c, span, http.StatusOK, response.FromTasks(tasks))
}

func (t *TaskHandler) Retrieve(c *gin.Context) {
	span, principal := t.startSpan(c, "Retrieve")
	defer span.End()

	task, err := t.svc.Retrieve(c.Request.Context(), principal, c.Param("id"))

	if err != nil {
		t.fail(c, span, "Retrieve", err)
		return
	}

	t.succeed(c, span, http.StatusOK, response.FromTask(task))
}

func (t *TaskHandler) Create(c *gin.Context) {
	span, principal := t.startSpan(c, "Create")
	defer span.End()

	if !principal.IsAuthenticated() {
		t.fail(c, span, "Create", domain.ErrUnauthenticated)
		return
	}

	req, ok := t.decode(c, span, "Create")
	if !ok {
		return
	}

	task, err := t.svc.Create(c.Request.Context(), principal, req.NewTask())

	if err != nil {
		t.fail(c, span, "Create", err)
		return
	}

	t.Logger.Logger.Ctx(c.Request.Context()).Info("Task created",
		zap.Int64("task_id", task.ID),
		zap.Int64("user_id", principal.UserID),
	)

	t.succeed(c, span, http.StatusCreated, response.FromTask(task))
}

func (t *TaskHandler) Update(c *gin.Context) {
	t.update(c, "Update", t.svc.Update)
}

func (t *TaskHandler) Replace(c *gin.Context) {
	t.update(c, "Replace", t.svc.Replace)
}

type patchFunc func(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error)

func (t *TaskHandler) update(c *gin.Context, operation string, apply patchFunc) {
	span, principal := t.startSpan(c, operation)
	defer span.End()

	if !principal.IsAuthenticated() {
		t.fail(c, span, operation, domain.ErrNotFound)
		return
	}

	req, ok := t.decode(c, span, operation)
	if !ok {
		return
	}

	task, err := apply(c.Request.Context(), principal, c.Param("id"), req.Patch())

	if err != nil {
		t.fail(c, span, operation, err)
		return
	}

	t.succeed(c, span, http.StatusOK, response.FromTask(task))
}
