package sqlite

import (
	"database/sql"
	"time"

	"taskapp/internal/core/domain"
)

// TaskColumns is the select list ScanTask expects, aliased against tasks t and users u.
var TaskColumns = []string{
	"t.id", "t.title", "t.description", "t.completed", "t.user_id", "u.username", "t.created_at", "t.updated_at",
}

var UserColumns = []string{
	"id", "username", "email", "first_name", "last_name", "encrypted_password", "created_at",
}

type Row interface {
	Scan(dest ...any) error
}

func ScanTask(row Row) (domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Completed,
		&task.OwnerID,
		&task.OwnerUsername,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return domain.Task{}, err
	}

	if description.Valid {
		task.Description = &description.String
	}

	task.CreatedAt = createdAt.UTC()
	task.UpdatedAt = updatedAt.UTC()

	return task, nil
}

func ScanTasks(rows *sql.Rows) ([]domain.Task, error) {
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

func ScanUser(row Row) (domain.User, error) {
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
