package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quadro-kanban/models"
	"quadro-kanban/utilities"
)

// versionTTL mantém o contador de versão vivo bem além do TTL das listagens
const versionTTL = 24 * time.Hour

var errStaleList = errors.New("listagem mudou durante a leitura")

// Cache guarda no Redis o resultado das listagens do gateway base.
// Qualquer escrita apaga a chave afetada e avança a versão dela; uma listagem lida
// antes disso não é mais gravada. Erros do Redis caem no gateway base.
type Cache struct {
	base  Gateway
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(base Gateway, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("gateway.NewCache: gateway base é nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func boardsCacheKey(ownerID string) string {
	return "kanban:boards:" + ownerID
}

func tasksCacheKey(ownerID, boardID string) string {
	return "kanban:tasks:" + ownerID + ":" + boardID
}

func versionKey(key string) string {
	return "kanban:ver:" + key
}

func load[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T
	if c.redis == nil {
		return out, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			utilities.LogDebug("Cache: erro lendo %s do Redis: %v", key, err)
			_ = c.redis.Del(ctx, key).Err()
		}
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return out, false
	}
	return out, true
}

// version lê a versão atual da chave. ok é false quando o Redis não respondeu.
func (c *Cache) version(ctx context.Context, key string) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	ver, err := c.redis.Get(ctx, versionKey(key)).Int64()
	if err != nil && err != redis.Nil {
		utilities.LogDebug("Cache: erro lendo versão de %s: %v", key, err)
		return 0, false
	}
	return ver, true
}

// store grava a listagem só se a versão da chave ainda é a lida antes de consultar o gateway
func (c *Cache) store(ctx context.Context, key string, ver int64, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, versionKey(key)).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != ver {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, versionKey(key))
	switch {
	case err == nil:
	case errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
		utilities.LogDebug("Cache: listagem de %s descartada, houve escrita durante a leitura", key)
	default:
		utilities.LogDebug("Cache: erro gravando %s no Redis: %v", key, err)
	}
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
			pipe.Expire(ctx, versionKey(key), versionTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		utilities.LogError(err, "Cache: falha ao invalidar chaves")
	}
}

// cached serve a chave do Redis ou busca no gateway base e guarda o resultado
func cached[T any](ctx context.Context, c *Cache, key string, fetch func() (T, error)) (T, error) {
	if out, ok := load[T](ctx, c, key); ok {
		return out, nil
	}
	ver, ok := c.version(ctx, key)
	out, err := fetch()
	if err != nil {
		return out, err
	}
	if ok {
		c.store(ctx, key, ver, out)
	}
	return out, nil
}

func (c *Cache) ListBoards(ctx context.Context, ownerID string) ([]models.Board, error) {
	return cached(ctx, c, boardsCacheKey(ownerID), func() ([]models.Board, error) {
		return c.base.ListBoards(ctx, ownerID)
	})
}

func (c *Cache) GetBoard(ctx context.Context, ownerID, boardID string) (models.Board, error) {
	return c.base.GetBoard(ctx, ownerID, boardID)
}

func (c *Cache) CreateBoard(ctx context.Context, board models.Board) (models.Board, error) {
	created, err := c.base.CreateBoard(ctx, board)
	if err != nil {
		return models.Board{}, err
	}
	c.evict(ctx, boardsCacheKey(board.OwnerID))
	return created, nil
}

func (c *Cache) DeleteBoard(ctx context.Context, ownerID, boardID string) error {
	if err := c.base.DeleteBoard(ctx, ownerID, boardID); err != nil {
		return err
	}
	c.evict(ctx, boardsCacheKey(ownerID), tasksCacheKey(ownerID, boardID))
	return nil
}

func (c *Cache) ListTasks(ctx context.Context, ownerID, boardID string) ([]models.Task, error) {
	return cached(ctx, c, tasksCacheKey(ownerID, boardID), func() ([]models.Task, error) {
		return c.base.ListTasks(ctx, ownerID, boardID)
	})
}

func (c *Cache) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	created, err := c.base.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(task.OwnerID, task.BoardID))
	return created, nil
}

func (c *Cache) UpdateTask(ctx context.Context, ownerID, boardID, taskID string, patch models.TaskPatch) error {
	if err := c.base.UpdateTask(ctx, ownerID, boardID, taskID, patch); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(ownerID, boardID))
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, boardID, taskID string) error {
	if err := c.base.DeleteTask(ctx, ownerID, boardID, taskID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(ownerID, boardID))
	return nil
}
