package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// tasksSchema 单表，主键之外不需要索引
const tasksSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id          SERIAL PRIMARY KEY,
    title       TEXT        NOT NULL CHECK (title <> ''),
    description TEXT,
    priority    TEXT        NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    status      TEXT        NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'done')),
    category    TEXT        NOT NULL DEFAULT 'personal',
    due_date    TIMESTAMPTZ,
    is_note     BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema 创建 tasks 表（如果不存在）
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if _, err := pool.Exec(ctx, tasksSchema); err != nil {
		logger.Error("Failed to ensure tasks schema", zap.Error(err))
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	logger.Info("Tasks schema ready")
	return nil
}
