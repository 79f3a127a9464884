package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/otel"
)

const day = 24 * time.Hour

// seedTasks 首次启动写入的示例数据，dueDate 相对于 now
func seedTasks(now time.Time) []model.TaskInput {
	return []model.TaskInput{
		{
			Title:       "Design System Review",
			Description: model.StringPtr("Review the glassmorphism components and color palette."),
			Priority:    model.PriorityHigh,
			Status:      model.StatusInProgress,
			Category:    "Work",
			DueDate:     model.TimePtr(now.Add(day)),
		},
		{
			Title:       "Grocery Shopping",
			Description: model.StringPtr("Buy fruits, vegetables, and almond milk."),
			Priority:    model.PriorityMedium,
			Status:      model.StatusTodo,
			Category:    "Personal",
			DueDate:     model.TimePtr(now.Add(2 * day)),
		},
		{
			Title:       "Project Ideas",
			Description: model.StringPtr("1. AI Chatbot\n2. Finance Tracker\n3. Portfolio Site"),
			Priority:    model.PriorityLow,
			Status:      model.StatusTodo,
			Category:    "Ideas",
			IsNote:      true,
		},
		{
			Title:       "Gym Workout",
			Description: model.StringPtr("Leg day routine."),
			Priority:    model.PriorityMedium,
			Status:      model.StatusDone,
			Category:    "Health",
			DueDate:     model.TimePtr(now.Add(-day)),
		},
	}
}

// SeedIfEmpty 存储为空时写入示例数据，返回写入的条数。已有数据时什么都不做
func (s *TaskService) SeedIfEmpty(ctx context.Context) (n int, err error) {
	ctx, span := otel.StartSpan(ctx, "task.seed")
	defer func() {
		span.SetAttributes(attribute.Int("task.seeded", n))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	existing, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing tasks: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("Skipping seed, tasks already present", zap.Int("task_count", len(existing)))
		return 0, nil
	}

	inputs := seedTasks(s.now().UTC())
	for i, in := range inputs {
		if _, err := s.store.Create(ctx, in); err != nil {
			return i, fmt.Errorf("failed to seed task %q: %w", in.Title, err)
		}
	}

	s.logger.Info("Seeded initial tasks", zap.Int("task_count", len(inputs)))
	return len(inputs), nil
}
