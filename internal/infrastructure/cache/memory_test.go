package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gizibunda/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
		ttl   time.Duration
	}{
		{name: "json document", key: "composition:usda:tempe", value: []byte(`{"fdcId":1}`), ttl: time.Minute},
		{name: "empty value", key: "empty", value: []byte{}, ttl: time.Minute},
		{name: "binary value", key: "binary", value: []byte{0x00, 0xff, 0x10}, ttl: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, tt.ttl); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := cache.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !bytes.Equal(got, tt.value) {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestMemoryCache_StoresCopy(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	value := []byte("original")
	if err := cache.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, _ := cache.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("Get() = %q, want %q", got, "original")
	}

	got[0] = 'Y'
	again, _ := cache.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("Get() after caller mutation = %q, want %q", again, "original")
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	_, err := cache.Get(context.Background(), "non-existent-key")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want %v", err, domain.ErrCacheMiss)
	}

	cache.removeExpired(time.Now())
	if cache.Size() != 0 {
		t.Errorf("Size() after removeExpired = %d, want 0", cache.Size())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "k")
	if err != nil || exists {
		t.Errorf("Exists() before set = %v, %v; want false, nil", exists, err)
	}

	_ = cache.Set(ctx, "k", []byte("value"), time.Minute)
	exists, err = cache.Exists(ctx, "k")
	if err != nil || !exists {
		t.Errorf("Exists() after set = %v, %v; want true, nil", exists, err)
	}

	_ = cache.Set(ctx, "short", []byte("value"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	exists, _ = cache.Exists(ctx, "short")
	if exists {
		t.Error("Exists() for expired key = true, want false")
	}
}

func TestMemoryCache_Size(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("key%d", i), []byte{byte(i)}, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if cache.Size() != 5 {
		t.Errorf("Size() = %d, want 5", cache.Size())
	}

	_ = cache.Delete(ctx, "key0")
	if cache.Size() != 4 {
		t.Errorf("Size() after Delete() = %d, want 4", cache.Size())
	}
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache()
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", id)
			if err := cache.Set(ctx, key, []byte(key), time.Minute); err != nil {
				t.Errorf("Concurrent Set() error = %v", err)
				return
			}
			if _, err := cache.Get(ctx, key); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() != 50 {
		t.Errorf("Size() = %d, want 50", cache.Size())
	}
}
