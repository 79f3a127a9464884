package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	mqcontracts "taskboard/contracts/mq"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type publishedEvent struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return p.err
}

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*TaskService, *repository.MemoryTaskRepository, *fakePublisher) {
	t.Helper()
	repo := repository.NewMemoryTaskRepository(zap.NewNop())
	repo.SetClock(func() time.Time { return fixedNow })
	pub := &fakePublisher{}
	svc := NewTaskService(repo, pub, zap.NewNop())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, repo, pub
}

func TestCreatePublishesEvent(t *testing.T) {
	svc, _, pub := newService(t)

	task, err := svc.Create(context.Background(), model.TaskInput{
		Title: "Write report", Priority: model.PriorityMedium, Status: model.StatusTodo, Category: "Work",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].routingKey != mqcontracts.RoutingKeyTaskCreated {
		t.Fatalf("expected one task.created event, got %+v", pub.events)
	}
	payload, ok := pub.events[0].payload.(mqcontracts.TaskChangedPayload)
	if !ok || payload.Task.ID != task.ID || !payload.OccurredAt.Equal(fixedNow) {
		t.Fatalf("unexpected payload %+v", pub.events[0].payload)
	}
}

func TestUpdateNotFoundPublishesNothing(t *testing.T) {
	svc, _, pub := newService(t)

	_, err := svc.Update(context.Background(), 42, model.TaskPatch{Title: model.Some("x")})
	if !errors.Is(err, repository.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %+v", pub.events)
	}
}

func TestUpdateAndDeletePublish(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, model.TaskInput{Title: "a", Priority: model.PriorityLow, Status: model.StatusTodo})
	if _, err := svc.Update(ctx, task.ID, model.TaskPatch{Status: model.Some(model.StatusDone)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, 999); err != nil {
		t.Fatalf("delete of missing id should succeed, got %v", err)
	}

	want := []string{
		mqcontracts.RoutingKeyTaskCreated,
		mqcontracts.RoutingKeyTaskUpdated,
		mqcontracts.RoutingKeyTaskDeleted,
		mqcontracts.RoutingKeyTaskDeleted,
	}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, key := range want {
		if pub.events[i].routingKey != key {
			t.Fatalf("event %d: expected %s, got %s", i, key, pub.events[i].routingKey)
		}
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, repo, pub := newService(t)
	pub.err = errors.New("broker down")

	task, err := svc.Create(context.Background(), model.TaskInput{Title: "kept", Priority: model.PriorityLow, Status: model.StatusTodo})
	if err != nil {
		t.Fatalf("expected create to succeed despite publish failure, got %v", err)
	}
	if _, err := repo.Get(context.Background(), task.ID); err != nil {
		t.Fatalf("expected task to be stored, got %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	repo := repository.NewMemoryTaskRepository(zap.NewNop())
	svc := NewTaskService(repo, nil, zap.NewNop())

	if _, err := svc.Create(context.Background(), model.TaskInput{Title: "x", Priority: model.PriorityLow, Status: model.StatusTodo}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := context.Background()

	n, err := svc.SeedIfEmpty(ctx)
	if err != nil || n != 4 {
		t.Fatalf("expected 4 seeded rows, got %d (%v)", n, err)
	}

	tasks, _ := svc.List(ctx)
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	first := tasks[0]
	if first.Title != "Design System Review" || first.Priority != model.PriorityHigh ||
		first.Status != model.StatusInProgress || first.Category != "Work" {
		t.Fatalf("unexpected first seed row %+v", first)
	}
	if first.DueDate == nil || !first.DueDate.Equal(fixedNow.Add(24*time.Hour)) {
		t.Fatalf("expected due tomorrow, got %v", first.DueDate)
	}

	note := tasks[2]
	if !note.IsNote || note.DueDate != nil || note.Description == nil ||
		*note.Description != "1. AI Chatbot\n2. Finance Tracker\n3. Portfolio Site" {
		t.Fatalf("unexpected note seed row %+v", note)
	}

	gym := tasks[3]
	if gym.Status != model.StatusDone || gym.DueDate == nil || !gym.DueDate.Equal(fixedNow.Add(-24*time.Hour)) {
		t.Fatalf("unexpected gym seed row %+v", gym)
	}

	if len(pub.events) != 0 {
		t.Fatalf("seeding should not publish events, got %d", len(pub.events))
	}
}

func TestSeedIfEmptySkipsWhenPopulated(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, model.TaskInput{Title: "existing", Priority: model.PriorityLow, Status: model.StatusTodo})

	n, err := svc.SeedIfEmpty(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected no seeding, got %d (%v)", n, err)
	}
	tasks, _ := svc.List(ctx)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
}

func TestSeedIfEmptyRunsOnce(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.SeedIfEmpty(ctx)
	_, _ = svc.SeedIfEmpty(ctx)

	tasks, _ := svc.List(ctx)
	if len(tasks) != 4 {
		t.Fatalf("expected seeding to be idempotent, got %d tasks", len(tasks))
	}
}

func TestSeedIfEmptyRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	svc, _, _ := newService(t)
	if _, err := svc.SeedIfEmpty(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "task.seed" {
		t.Fatalf("expected one task.seed span, got %d", len(spans))
	}
	if spans[0].Status().Code == codes.Error {
		t.Fatalf("expected successful seed span, got %v", spans[0].Status())
	}
	var seeded int64 = -1
	for _, kv := range spans[0].Attributes() {
		if kv.Key == attribute.Key("task.seeded") {
			seeded = kv.Value.AsInt64()
		}
	}
	if seeded != 4 {
		t.Fatalf("expected task.seeded=4, got %d", seeded)
	}
}
