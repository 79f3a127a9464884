package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/model"
)

// MemoryTaskRepository keeps tasks in process memory. Rows are lost on restart.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	tasks  map[int]model.Task
	nextID int
	now    func() time.Time
	logger *zap.Logger
}

func NewMemoryTaskRepository(logger *zap.Logger) *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks:  make(map[int]model.Task),
		nextID: 1,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the timestamp source, for tests.
func (r *MemoryTaskRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryTaskRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryTaskRepository) List(ctx context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *MemoryTaskRepository) Get(ctx context.Context, id int) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (r *MemoryTaskRepository) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	t := model.Task{
		ID:          r.nextID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		Category:    in.Category,
		DueDate:     in.DueDate,
		IsNote:      in.IsNote,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tasks[t.ID] = t
	r.nextID++

	r.logger.Debug("Task stored in memory", zap.Int("task_id", t.ID))
	return t, nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, id int, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = r.now().UTC()
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
	return nil
}
