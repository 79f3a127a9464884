package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"taskboard/internal/model"
)

// ErrTaskNotFound is returned by Get and Update when the id does not exist.
// It is an outcome the caller handles, not a storage failure.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore is the capability set the API layer depends on.
type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id int) (model.Task, error)
	Create(ctx context.Context, in model.TaskInput) (model.Task, error)
	Update(ctx context.Context, id int, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int) error
}

// Pinger is implemented by stores that can report backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	KindConstraint = "constraint_violation"
	KindConnection = "connection"
	KindTimeout    = "timeout"
	KindUnknown    = "unknown"
)

// StorageError wraps an unexpected failure of the persistence backend.
type StorageError struct {
	Op   string
	Kind string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Kind: classify(err), Err: err}
}

// classify 根据错误类型判断存储错误种类
func classify(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		// class 23: integrity constraint violation, class 08: connection exception
		switch pgErr.Code[:2] {
		case "23":
			return KindConstraint
		case "08":
			return KindConnection
		case "57":
			return KindTimeout
		}
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindConnection
	}
	return KindUnknown
}
