package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/internal/model"
)

const (
	tasksCacheKey = "tasks:all"
	tasksGenKey   = "tasks:gen"
)

// storeIfCurrent writes the list only while tasks:gen still holds the generation read before the store was queried.
var storeIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[1]) or '0') == ARGV[1] then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0
`)

// CachedTaskRepository serves List from Redis and evicts the entry after every successful write.
type CachedTaskRepository struct {
	base   TaskStore
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedTaskRepository(base TaskStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedTaskRepository {
	if base == nil {
		panic("repository.NewCachedTaskRepository: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedTaskRepository{
		base:   base,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedTaskRepository) Ping(ctx context.Context) error {
	if p, ok := c.base.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *CachedTaskRepository) List(ctx context.Context) ([]model.Task, error) {
	if tasks, ok := c.load(ctx); ok {
		return tasks, nil
	}

	gen, genOK := c.generation(ctx)
	tasks, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}

	if genOK {
		c.store(ctx, gen, tasks)
	}
	return tasks, nil
}

func (c *CachedTaskRepository) Get(ctx context.Context, id int) (model.Task, error) {
	return c.base.Get(ctx, id)
}

func (c *CachedTaskRepository) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	task, err := c.base.Create(ctx, in)
	if err != nil {
		return model.Task{}, err
	}
	c.evict(ctx)
	return task, nil
}

func (c *CachedTaskRepository) Update(ctx context.Context, id int, patch model.TaskPatch) (model.Task, error) {
	task, err := c.base.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, err
	}
	c.evict(ctx)
	return task, nil
}

func (c *CachedTaskRepository) Delete(ctx context.Context, id int) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *CachedTaskRepository) load(ctx context.Context) ([]model.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// a broken cache must not fail the request
			c.logger.Warn("Task cache read failed, falling back to store", zap.Error(err))
			_ = c.redis.Del(ctx, tasksCacheKey).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey).Err()
		return nil, false
	}
	return tasks, true
}

// generation reads the write counter; a list read without one is served but never cached.
func (c *CachedTaskRepository) generation(ctx context.Context) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, tasksGenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		c.logger.Warn("Task cache generation read failed", zap.Error(err))
		return "", false
	}
	return gen, true
}

func (c *CachedTaskRepository) store(ctx context.Context, gen string, tasks []model.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	ttl := c.ttl.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	stored, err := storeIfCurrent.Run(ctx, c.redis, []string{tasksGenKey, tasksCacheKey}, gen, data, ttl).Int()
	if err != nil {
		c.logger.Warn("Task cache write failed", zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("Task cache write skipped, list changed while loading")
	}
}

// evict bumps the generation before dropping the entry so an in-flight List cannot re-cache a stale snapshot.
func (c *CachedTaskRepository) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, tasksGenKey)
		pipe.Del(ctx, tasksCacheKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("Task cache eviction failed", zap.Error(err))
	}
}
