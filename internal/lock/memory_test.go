package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	locker := NewMemoryLocker(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Acquire(context.Background(), AccountKey("A1"), time.Second)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = unlock(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	locker := NewMemoryLocker(50 * time.Millisecond)

	unlockA, err := locker.Acquire(context.Background(), AccountKey("A1"), time.Second)
	require.NoError(t, err)
	unlockB, err := locker.Acquire(context.Background(), AccountKey("A2"), time.Second)
	require.NoError(t, err)

	assert.NoError(t, unlockA(context.Background()))
	assert.NoError(t, unlockB(context.Background()))
}

func TestMemoryLocker_WaitExceeded(t *testing.T) {
	locker := NewMemoryLocker(20 * time.Millisecond)
	unlock, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer unlock(context.Background())

	_, err = locker.Acquire(context.Background(), "k", time.Second)

	assert.True(t, errors.Is(err, ErrLockNotAcquired))
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	locker := NewMemoryLocker(time.Second)
	unlock, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer unlock(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Acquire(ctx, "k", time.Second)

	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryLocker_DoubleUnlockIsSafe(t *testing.T) {
	locker := NewMemoryLocker(20 * time.Millisecond)
	unlock, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock(context.Background()))
	require.NoError(t, unlock(context.Background()))

	again, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	_ = again(context.Background())
}

func TestMemoryLocker_DropsIdleKeys(t *testing.T) {
	locker := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		unlock, err := locker.Acquire(ctx, AccountKey(fmt.Sprintf("A%d", i)), time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	}

	assert.Equal(t, 0, locker.size())
}

func TestMemoryLocker_KeepsKeyWhileWaiterPending(t *testing.T) {
	locker := NewMemoryLocker(time.Second)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	acquired := make(chan Unlock, 1)
	go func() {
		next, err := locker.Acquire(ctx, "k", time.Second)
		if err == nil {
			acquired <- next
		}
	}()
	require.Eventually(t, func() bool {
		locker.mu.Lock()
		defer locker.mu.Unlock()
		s, ok := locker.slots["k"]
		return ok && s.refs == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, unlock(ctx))
	next := <-acquired
	assert.Equal(t, 1, locker.size())

	require.NoError(t, next(ctx))
	assert.Equal(t, 0, locker.size())


	short := NewMemoryLocker(10 * time.Millisecond)
	held, err := short.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	_, err = short.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	require.NoError(t, held(ctx))
	assert.Equal(t, 0, short.size())
}
