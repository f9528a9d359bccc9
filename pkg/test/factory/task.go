package factory

import (
	"fmt"

	"taskapp/internal/core/domain"
)

type TaskFixture struct {
	Title       string
	Description string
	Completed   bool
}

// NewTask returns client input for a task. Pass "Description": "" to leave it null.
func NewTask(customData ...map[string]any) domain.NewTask {
	defaults := map[string]any{
		"Title":     fmt.Sprintf("Task %d", next()),
		"Completed": false,
	}

	fixture := Build[TaskFixture](append([]map[string]any{defaults}, customData...)...)

	input := domain.NewTask{
		Title:     fixture.Title,
		Completed: fixture.Completed,
	}

	if fixture.Description != "" {
		description := fixture.Description
		input.Description = &description
	}

	return input
}
