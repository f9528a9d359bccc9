package postgres

import (
	"github.com/jackc/pgx/v5"

	"taskapp/internal/core/domain"
)

var TaskColumns = []string{
	"t.id", "t.title", "t.description", "t.completed", "t.user_id", "u.username", "t.created_at", "t.updated_at",
}

var UserColumns = []string{
	"id", "username", "email", "first_name", "last_name", "encrypted_password", "created_at",
}

func ScanTask(row pgx.Row) (domain.Task, error) {
	var task domain.Task

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.OwnerID,
		&task.OwnerUsername,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		return domain.Task{}, err
	}

	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return task, nil
}

func ScanTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := make([]domain.Task, 0)

	for rows.Next() {
		task, err := ScanTask(rows)

		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func ScanUser(row pgx.Row) (domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.EncryptedPassword,
		&user.CreatedAt,
	)

	if err != nil {
		return domain.User{}, err
	}

	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}
