package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElFirdaous28/event-reservation-system/internal/config"
)

func setupTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})

	pingCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := Ping(pingCtx, client); err != nil {
		client.Close()
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockManager_AcquireLock(t *testing.T) {
	client := setupTestClient(t)

	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("二重解放はErrLockNotOwned", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-4", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		err = lock.Release(ctx)
		assert.ErrorIs(t, err, ErrLockNotOwned)
	})
}

func TestLockManager_AcquireLockWithRetry(t *testing.T) {
	client := setupTestClient(t)

	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("保持中のロックはリトライ後に失敗する", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "retry-key-1", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		start := time.Now()
		lock2, err := manager.AcquireLockWithRetry(ctx, "retry-key-1", 5*time.Second, 3, 50*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
		// リトライ間隔分は待機している
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("途中で解放されれば取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "retry-key-2", 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(60 * time.Millisecond)
			lock1.Release(context.Background())
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, "retry-key-2", 5*time.Second, 5, 50*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})
}

func TestDistributedLock_Extend(t *testing.T) {
	client := setupTestClient(t)

	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("保持中のロックを延長できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "extend-key-1", 1*time.Second)
		require.NoError(t, err)
		defer lock.Release(ctx)

		err = lock.Extend(ctx, 10*time.Second)
		require.NoError(t, err)
	})

	t.Run("解放済みのロックは延長できない", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "extend-key-2", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		err = lock.Extend(ctx, 10*time.Second)
		assert.ErrorIs(t, err, ErrLockNotOwned)
	})
}
