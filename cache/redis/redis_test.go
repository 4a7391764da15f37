package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pinkoogupta/eduzap/cache"
	testredis "github.com/pinkoogupta/eduzap/internal/testutil/rediscontainer"
)

var redisAvailable bool

func TestMain(m *testing.M) {
	if err := testredis.Setup(); err != nil {
		fmt.Println("redis integration tests skipped:", err)
	} else {
		redisAvailable = true
	}

	code := m.Run()

	if redisAvailable {
		if err := testredis.Teardown(); err != nil {
			fmt.Fprintln(os.Stderr, "warning: failed to stop redis test container:", err)
		}
	}

	os.Exit(code)
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if !redisAvailable {
		t.Skip("redis container unavailable")
	}
	opts.Addr = testredis.Addr()
	store := NewStore(opts)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSetGetDelete(t *testing.T) {
	store := newTestStore(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := fmt.Sprintf("requests:test:%d", time.Now().UnixNano())
	value := []byte("some-payload")

	if err := store.Set(ctx, key, value, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	payload, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if string(payload) != string(value) {
		t.Fatalf("Get() = %q, want %q", payload, value)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreTTL(t *testing.T) {
	store := newTestStore(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("redis:ttl:%d", time.Now().UnixNano())
	ttl := 200 * time.Millisecond

	if err := store.Set(ctx, key, []byte("value"), ttl); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(ttl + 100*time.Millisecond)

	if _, err := store.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestStoreContextCancellation(t *testing.T) {
	store := newTestStore(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "any", []byte("value"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStoreConcurrentSetGet(t *testing.T) {
	store := newTestStore(t, Options{})

	const workers = 32
	const opsPerWorker = 100

	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("redis:concurrent:%d:%d", worker, i)
				val := []byte(key)

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				if err := store.Set(ctx, key, val, time.Second); err != nil {
					errCh <- fmt.Errorf("worker %d set failed: %w", worker, err)
					cancel()
					return
				}
				payload, err := store.Get(ctx, key)
				cancel()
				if err != nil {
					errCh <- fmt.Errorf("worker %d get failed: %w", worker, err)
					return
				}
				if string(payload) != string(val) {
					errCh <- fmt.Errorf("worker %d mismatch: got %q want %q", worker, payload, val)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent op failed: %v", err)
	}
}

func TestStorePipeline(t *testing.T) {
	store := newTestStore(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipeline, err := store.Pipeline(ctx)
	if err != nil {
		t.Fatalf("Pipeline() error = %v", err)
	}
	defer pipeline.Close()

	key1 := fmt.Sprintf("redis:pipeline:%d:1", time.Now().UnixNano())
	key2 := fmt.Sprintf("redis:pipeline:%d:2", time.Now().UnixNano())

	pipeline.Queue("SET", key1, "v1")
	pipeline.Queue("SET", key2, "v2")
	pipeline.Queue("MGET", key1, key2)

	responses, err := pipeline.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}

	if msg, _ := responses[0].(string); !strings.EqualFold(msg, "OK") {
		t.Fatalf("first response = %v, want OK", responses[0])
	}
	if msg, _ := responses[1].(string); !strings.EqualFold(msg, "OK") {
		t.Fatalf("second response = %v, want OK", responses[1])
	}

	values, ok := responses[2].([]any)
	if !ok {
		t.Fatalf("expected array response, got %T", responses[2])
	}
	if string(values[0].([]byte)) != "v1" || string(values[1].([]byte)) != "v2" {
		t.Fatalf("unexpected MGET payload: %v", values)
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	store := newTestStore(t, Options{Namespace: fmt.Sprintf("eduzap:%d:", time.Now().UnixNano()), ScanCount: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	keys := []string{
		"requests:search:cuet:page:1:limit:5",
		"requests:search:cuet:page:2:limit:5",
		"requests:search::page:1:limit:5",
		"requests:search:a*b:page:1:limit:5",
		"requests:sorted:asc:page:1:limit:5",
	}
	for _, k := range keys {
		if err := store.Set(ctx, k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	removed, err := store.DeletePrefix(ctx, "requests:search:")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if removed != 4 {
		t.Fatalf("DeletePrefix() removed %d keys, want 4", removed)
	}

	for _, k := range keys[:4] {
		if _, err := store.Get(ctx, k); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("expected %q to be swept, got %v", k, err)
		}
	}
	if _, err := store.Get(ctx, keys[4]); err != nil {
		t.Fatalf("sorted key should survive search sweep: %v", err)
	}
}

func TestStoreDeletePrefixTreatsGlobLiterally(t *testing.T) {
	store := newTestStore(t, Options{Namespace: fmt.Sprintf("eduzap:%d:", time.Now().UnixNano())})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.Set(ctx, "requests:search:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	removed, err := store.DeletePrefix(ctx, "requests:search:a*")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if removed != 0 {
		t.Fatalf("glob characters in prefix must not match, removed %d", removed)
	}
}

func TestStorePing(t *testing.T) {
	store := newTestStore(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
