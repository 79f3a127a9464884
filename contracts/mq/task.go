package mq

import (
	"time"

	"taskboard/internal/model"
)

// 任务生命周期事件的 routing key，消费方可绑定 "task.*"
const (
	RoutingKeyTaskCreated = "task.created"
	RoutingKeyTaskUpdated = "task.updated"
	RoutingKeyTaskDeleted = "task.deleted"

	BindingKeyAllTasks = "task.*"
)

// TaskChangedPayload task.created / task.updated 的消息体，携带变更后的完整任务
type TaskChangedPayload struct {
	Task       model.Task `json:"task"`
	OccurredAt time.Time  `json:"occurredAt"`
}

type TaskDeletedPayload struct {
	TaskID     int       `json:"taskId"`
	OccurredAt time.Time `json:"occurredAt"`
}
