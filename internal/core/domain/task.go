package domain

import (
	"fmt"
	"strings"
	"time"
)

const TitleMaxLength = 200

type Task struct {
	ID            int64
	Title         string
	Description   *string
	Completed     bool
	OwnerID       int64
	OwnerUsername string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckTitle enforces the stored title rules: non-blank after trimming and at
// most TitleMaxLength characters.
func CheckTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return NewValidationError("title", "title may not be blank")
	}

	if len([]rune(title)) > TitleMaxLength {
		return NewValidationError("title", fmt.Sprintf("title must be at most %d characters", TitleMaxLength))
	}

	return nil
}

func (t Task) String() string {
	return t.Title
}

func (t *Task) BelongsTo(p Principal) bool {
	return p.IsAuthenticated() && t.OwnerID == p.UserID
}

// NewTask holds the client-writable fields of a task being created.
// The owner is never part of it.
type NewTask struct {
	Title       string
	Description *string
	Completed   bool
}

func (n NewTask) Normalize() NewTask {
	n.Title = strings.TrimSpace(n.Title)
	return n
}

// TaskPatch is a partial update. Nil fields are left untouched; Description
// distinguishes "not supplied" from "set to null" through DescriptionSet.
type TaskPatch struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Completed      *bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && !p.DescriptionSet && p.Completed == nil
}

func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}

	return p
}

func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}

	if p.DescriptionSet {
		t.Description = p.Description
	}

	if p.Completed != nil {
		t.Completed = *p.Completed
	}

	return t
}
