package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	mqcontracts "taskboard/contracts/mq"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
	"taskboard/pkg/metrics"
)

// EventPublisher 发布任务生命周期事件，*mq.Publisher 实现了它
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// TaskService 在 TaskStore 之上记录变更指标并发布事件
type TaskService struct {
	store     repository.TaskStore
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService publisher 可以为 nil（未配置 MQ）
func NewTaskService(store repository.TaskStore, publisher EventPublisher, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock 测试用
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// Ping 转发到底层存储（如果支持）
func (s *TaskService) Ping(ctx context.Context) error {
	if p, ok := s.store.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id int) (model.Task, error) {
	return s.store.Get(ctx, id)
}

func (s *TaskService) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	task, err := s.store.Create(ctx, in)
	if err != nil {
		metrics.IncrementTaskMutation("create", mutationResult(err))
		return model.Task{}, err
	}
	metrics.IncrementTaskMutation("create", "ok")

	s.publish(ctx, mqcontracts.RoutingKeyTaskCreated, mqcontracts.TaskChangedPayload{
		Task:       task,
		OccurredAt: s.now().UTC(),
	})
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, id int, patch model.TaskPatch) (model.Task, error) {
	task, err := s.store.Update(ctx, id, patch)
	if err != nil {
		metrics.IncrementTaskMutation("update", mutationResult(err))
		return model.Task{}, err
	}
	metrics.IncrementTaskMutation("update", "ok")

	s.publish(ctx, mqcontracts.RoutingKeyTaskUpdated, mqcontracts.TaskChangedPayload{
		Task:       task,
		OccurredAt: s.now().UTC(),
	})
	return task, nil
}

// Delete 删除不存在的 id 也视为成功，同样会发布 task.deleted
func (s *TaskService) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		metrics.IncrementTaskMutation("delete", mutationResult(err))
		return err
	}
	metrics.IncrementTaskMutation("delete", "ok")

	s.publish(ctx, mqcontracts.RoutingKeyTaskDeleted, mqcontracts.TaskDeletedPayload{
		TaskID:     id,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// publish 事件发布失败只记录日志，不影响已经成功的写操作
func (s *TaskService) publish(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to publish task event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func mutationResult(err error) string {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return "not_found"
	}
	return "error"
}
