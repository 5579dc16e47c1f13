package gateway

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quadro-kanban/models"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestCache(t *testing.T) (*Cache, *Memory, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newTestRedis(t)
	base := NewMemory()
	return NewCache(base, client, time.Minute), base, mr
}

// slowListGateway segura a listagem depois de ler o gateway, antes de devolver
type slowListGateway struct {
	*Memory
	read chan struct{}
	gate chan struct{}
}

func (g *slowListGateway) ListTasks(ctx context.Context, ownerID, boardID string) ([]models.Task, error) {
	tasks, err := g.Memory.ListTasks(ctx, ownerID, boardID)
	g.read <- struct{}{}
	<-g.gate
	return tasks, err
}

func TestCacheDropsListReadBeforeConcurrentWrite(t *testing.T) {
	client, mr := newTestRedis(t)
	base := &slowListGateway{Memory: NewMemory(), read: make(chan struct{}, 1), gate: make(chan struct{})}
	cache := NewCache(base, client, time.Minute)
	ctx := context.Background()
	b := seedBoard(t, base.Memory, "u1", "Alpha")
	task := seedTask(t, base.Memory, "u1", b.ID, "primeira")

	listed := make(chan []models.Task, 1)
	go func() {
		tasks, _ := cache.ListTasks(ctx, "u1", b.ID)
		listed <- tasks
	}()
	<-base.read

	done := models.StatusDone
	if err := cache.UpdateTask(ctx, "u1", b.ID, task.ID, models.TaskPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(base.gate)
	if stale := <-listed; stale[0].Status != models.StatusTodo {
		t.Fatalf("in-flight list should carry the old status, got %s", stale[0].Status)
	}
	if mr.Exists(tasksCacheKey("u1", b.ID)) {
		t.Fatalf("list read before the write must not be cached")
	}

	tasks, err := cache.ListTasks(ctx, "u1", b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks[0].Status != models.StatusDone {
		t.Fatalf("cache=%s durable=done", tasks[0].Status)
	}
	if !mr.Exists(tasksCacheKey("u1", b.ID)) {
		t.Fatalf("a list read after the write should be cached")
	}
}

func TestCacheListTasksMissThenHit(t *testing.T) {
	cache, base, mr := newTestCache(t)
	ctx := context.Background()
	b := seedBoard(t, base, "u1", "Alpha")
	seedTask(t, base, "u1", b.ID, "primeira")

	for i := 0; i < 2; i++ {
		tasks, err := cache.ListTasks(ctx, "u1", b.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "primeira" {
			t.Fatalf("unexpected tasks: %+v", tasks)
		}
	}
	if calls := base.Calls(OpListTasks); calls != 1 {
		t.Fatalf("expected one backend list, got %d", calls)
	}
	if !mr.Exists(tasksCacheKey("u1", b.ID)) {
		t.Fatalf("expected cached key")
	}
	if ttl := mr.TTL(tasksCacheKey("u1", b.ID)); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestCacheEvictsOnWrites(t *testing.T) {
	cache, base, mr := newTestCache(t)
	ctx := context.Background()
	b := seedBoard(t, base, "u1", "Alpha")

	if _, err := cache.ListTasks(ctx, "u1", b.ID); err != nil {
		t.Fatalf("list: %v", err)
	}
	in := models.TaskInput{Title: "nova"}
	_ = in.Validate()
	created, err := cache.CreateTask(ctx, models.NewTask("u1", b.ID, in, time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(tasksCacheKey("u1", b.ID)) {
		t.Fatalf("create must evict task list")
	}

	tasks, _ := cache.ListTasks(ctx, "u1", b.ID)
	if len(tasks) != 1 {
		t.Fatalf("expected fresh list with the new task, got %+v", tasks)
	}

	done := models.StatusDone
	if err := cache.UpdateTask(ctx, "u1", b.ID, created.ID, models.TaskPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}
	tasks, _ = cache.ListTasks(ctx, "u1", b.ID)
	if tasks[0].Status != models.StatusDone {
		t.Fatalf("stale cache after update: %+v", tasks[0])
	}

	if _, err := cache.ListBoards(ctx, "u1"); err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if err := cache.DeleteBoard(ctx, "u1", b.ID); err != nil {
		t.Fatalf("delete board: %v", err)
	}
	if mr.Exists(boardsCacheKey("u1")) || mr.Exists(tasksCacheKey("u1", b.ID)) {
		t.Fatalf("delete board must evict boards and tasks keys")
	}
}

func TestCacheFallsBackOnCorruptEntry(t *testing.T) {
	cache, base, mr := newTestCache(t)
	seedBoard(t, base, "u1", "Alpha")
	if err := mr.Set(boardsCacheKey("u1"), "{nao-e-json"); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}
	boards, err := cache.ListBoards(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected backend result, got %+v", boards)
	}
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	base := NewMemory()
	cache := NewCache(base, nil, time.Minute)
	seedBoard(t, base, "u1", "Alpha")
	for i := 0; i < 2; i++ {
		if _, err := cache.ListBoards(context.Background(), "u1"); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if base.Calls(OpListBoards) != 2 {
		t.Fatalf("expected pass-through without redis")
	}
}
