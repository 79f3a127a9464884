package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/metrics"
	"taskboard/pkg/otel"
)

const taskColumns = `id, title, description, priority, status, category, due_date, is_note, created_at, updated_at`

type PostgresTaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, logger: logger}
}

func (r *PostgresTaskRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresTaskRepository) List(ctx context.Context) ([]model.Task, error) {
	r.logger.Debug("Listing tasks")
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id ASC`

	tasks := []model.Task{}
	start := time.Now()
	err := otel.Query(ctx, "select", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	metrics.RecordDBQueryDuration("select", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, storageError("list", err)
	}

	r.logger.Debug("Tasks listed", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (r *PostgresTaskRepository) Get(ctx context.Context, id int) (model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task model.Task
	start := time.Now()
	err := otel.QueryRow(ctx, "select", query, func(ctx context.Context) error {
		var err error
		task, err = scanTask(r.db.QueryRow(ctx, query, id))
		return err
	})
	metrics.RecordDBQueryDuration("select", "tasks", time.Since(start))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		r.logger.Error("Failed to get task", zap.Int("task_id", id), zap.Error(err))
		return model.Task{}, storageError("get", err)
	}
	return task, nil
}

func (r *PostgresTaskRepository) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	r.logger.Debug("Inserting task",
		zap.String("title", in.Title),
		zap.String("status", string(in.Status)),
		zap.Bool("is_note", in.IsNote),
	)
	query := `
        INSERT INTO tasks (title, description, priority, status, category, due_date, is_note)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + taskColumns

	var task model.Task
	start := time.Now()
	err := otel.QueryRow(ctx, "insert", query, func(ctx context.Context) error {
		var err error
		task, err = scanTask(r.db.QueryRow(ctx, query,
			in.Title,
			in.Description,
			string(in.Priority),
			string(in.Status),
			in.Category,
			in.DueDate,
			in.IsNote,
		))
		return err
	})
	metrics.RecordDBQueryDuration("insert", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to insert task", zap.String("title", in.Title), zap.Error(err))
		return model.Task{}, storageError("create", err)
	}

	r.logger.Info("Task inserted successfully", zap.Int("task_id", task.ID))
	return task, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, id int, patch model.TaskPatch) (model.Task, error) {
	query, args := buildUpdate(id, patch)
	r.logger.Debug("Updating task", zap.Int("task_id", id), zap.Int("args", len(args)))

	var task model.Task
	start := time.Now()
	err := otel.QueryRow(ctx, "update", query, func(ctx context.Context) error {
		var err error
		task, err = scanTask(r.db.QueryRow(ctx, query, args...))
		return err
	})
	metrics.RecordDBQueryDuration("update", "tasks", time.Since(start))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		r.logger.Error("Failed to update task", zap.Int("task_id", id), zap.Error(err))
		return model.Task{}, storageError("update", err)
	}

	r.logger.Info("Task updated successfully", zap.Int("task_id", id))
	return task, nil
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tasks WHERE id = $1`

	var rowsAffected int64
	start := time.Now()
	err := otel.Exec(ctx, "delete", query, func(ctx context.Context) error {
		result, err := r.db.Exec(ctx, query, id)
		if err != nil {
			return err
		}
		rowsAffected = result.RowsAffected()
		return nil
	})
	metrics.RecordDBQueryDuration("delete", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int("task_id", id), zap.Error(err))
		return storageError("delete", err)
	}

	r.logger.Info("Task delete executed",
		zap.Int("task_id", id),
		zap.Int64("rows_affected", rowsAffected),
	)
	return nil
}

// buildUpdate 只更新提交的字段，updated_at 每次刷新
func buildUpdate(id int, patch model.TaskPatch) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title.Set {
		add("title", patch.Title.Value)
	}
	if patch.Description.Set {
		add("description", patch.Description.Value)
	}
	if patch.Priority.Set {
		add("priority", string(patch.Priority.Value))
	}
	if patch.Status.Set {
		add("status", string(patch.Status.Value))
	}
	if patch.Category.Set {
		add("category", patch.Category.Value)
	}
	if patch.DueDate.Set {
		add("due_date", patch.DueDate.Value)
	}
	if patch.IsNote.Set {
		add("is_note", patch.IsNote.Value)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), taskColumns)
	return query, args
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t        model.Task
		priority string
		status   string
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&priority,
		&status,
		&t.Category,
		&t.DueDate,
		&t.IsNote,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	return t, nil
}
