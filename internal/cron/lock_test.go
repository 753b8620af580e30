package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type memoryStore struct {
	values map[string]string
	setErr error
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) ReleaseIfOwner(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryStore{}
	first, err := NewRedisLock(store, "st:lock:cron", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "st:lock:cron", time.Minute)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second acquire should fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-owner release: %v", err)
	}
	if _, held := store.values["st:lock:cron"]; !held {
		t.Fatal("non-owner release must not free the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected lock to be free after release")
	}
}

func TestRedisLockDoesNotReleaseSuccessor(t *testing.T) {
	store := &memoryStore{}
	stale, _ := NewRedisLock(store, "k", 0)
	ctx := context.Background()
	if ok, _ := stale.Acquire(ctx); !ok {
		t.Fatal("acquire")
	}
	// simulate expiry and a new holder
	store.values["k"] = "successor"
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["k"] != "successor" {
		t.Fatal("stale holder freed the successor's lock")
	}
}

func TestRedisLockTokenNamesInstance(t *testing.T) {
	t.Setenv("WORKER_ID", "cron-7")
	store := &memoryStore{}
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire")
	}
	if !strings.HasPrefix(store.values["k"], "cron-7/") {
		t.Fatalf("expected token to carry the instance id, got %q", store.values["k"])
	}
}

func TestRedisLockValidatesAndWrapsErrors(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisLock(&memoryStore{}, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
	boom := errors.New("boom")
	lock, _ := NewRedisLock(&memoryStore{setErr: boom}, "k", 0)
	if _, err := lock.Acquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
