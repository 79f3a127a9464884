package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
)

const (
	msgTaskNotFound    = "Task not found"
	msgValidationError = "Validation error"
	msgInternalError   = "Internal server error"
	msgBodyTooLarge    = "Request body too large"

	// 请求体上限，任务和笔记都是短文本
	maxBodyBytes = 256 << 10
)

type TaskHandler struct {
	store  repository.TaskStore
	logger *zap.Logger
}

func NewTaskHandler(store repository.TaskStore, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, logger: logger}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	tasks, err := h.store.List(c.Request.Context())
	if err != nil {
		h.internalError(c, log, "ListTasks", err)
		return
	}

	log.Debug("ListTasks: success", zap.Int("task_count", len(tasks)))
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	id, ok := parseID(c)
	if !ok {
		log.Warn("GetTask: invalid task id", zap.String("task_id", c.Param("id")))
		notFound(c)
		return
	}

	task, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		log.Info("GetTask: task not found", zap.Int("task_id", id))
		notFound(c)
		return
	}
	if err != nil {
		h.internalError(c, log.With(zap.Int("task_id", id)), "GetTask", err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	body, ok := h.readBody(c, log, "CreateTask")
	if !ok {
		return
	}

	in, err := model.ValidateCreate(body)
	if err != nil {
		h.validationError(c, log, "CreateTask", err)
		return
	}

	task, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		h.internalError(c, log, "CreateTask", err)
		return
	}

	log.Info("CreateTask: success", zap.Int("task_id", task.ID), zap.Bool("is_note", task.IsNote))
	c.JSON(http.StatusCreated, task)
}

// UpdateTask 部分更新，PUT 和 PATCH 共用
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	id, ok := parseID(c)
	if !ok {
		log.Warn("UpdateTask: invalid task id", zap.String("task_id", c.Param("id")))
		notFound(c)
		return
	}
	log = log.With(zap.Int("task_id", id))

	body, ok := h.readBody(c, log, "UpdateTask")
	if !ok {
		return
	}

	patch, err := model.ValidateUpdate(body)
	if err != nil {
		h.validationError(c, log, "UpdateTask", err)
		return
	}

	task, err := h.store.Update(c.Request.Context(), id, patch)
	if errors.Is(err, repository.ErrTaskNotFound) {
		log.Info("UpdateTask: task not found")
		notFound(c)
		return
	}
	if err != nil {
		h.internalError(c, log, "UpdateTask", err)
		return
	}

	log.Info("UpdateTask: success")
	c.JSON(http.StatusOK, task)
}

// DeleteTask 无论 id 是否存在都返回 204
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	id, ok := parseID(c)
	if !ok {
		log.Warn("DeleteTask: invalid task id", zap.String("task_id", c.Param("id")))
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.internalError(c, log.With(zap.Int("task_id", id)), "DeleteTask", err)
		return
	}

	log.Info("DeleteTask: success", zap.Int("task_id", id))
	c.Status(http.StatusNoContent)
}

// parseID 只接受 int4 范围内的 id，超出范围与非数字同样按不存在处理
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	return int(id), err == nil
}

func (h *TaskHandler) readBody(c *gin.Context, log *zap.Logger, op string) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Warn(op+": request body too large", zap.Int64("limit", tooLarge.Limit))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": msgBodyTooLarge})
		return nil, false
	}
	if err != nil {
		h.internalError(c, log, op, err)
		return nil, false
	}
	return body, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": msgTaskNotFound})
}

func (h *TaskHandler) validationError(c *gin.Context, log *zap.Logger, op string, err error) {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		h.internalError(c, log, op, err)
		return
	}

	log.Warn(op+": validation failed",
		zap.String("field", verr.Field),
		zap.String("reason", verr.Reason),
	)
	c.JSON(http.StatusBadRequest, gin.H{"message": msgValidationError, "field": verr.Field})
}

// internalError 存储错误细节只写日志，不返回给调用方
func (h *TaskHandler) internalError(c *gin.Context, log *zap.Logger, op string, err error) {
	fields := []zap.Field{zap.Error(err)}
	var serr *repository.StorageError
	if errors.As(err, &serr) {
		fields = append(fields, zap.String("storage_op", serr.Op), zap.String("storage_kind", serr.Kind))
	}
	log.Error(op+": failed", fields...)
	c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternalError})
}
