package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "INV001")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Empty(t, l.slots, "released keys must not leak")
}

func TestLocalIndependentKeys(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "INV001")
	require.NoError(t, err)
	unlockB, err := l.Lock(ctx, "INV002")
	require.NoError(t, err)
	unlockA()
	unlockB()
	unlockB()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "INV001")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "INV001")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func newRedisLocker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, 10*time.Second, 200*time.Millisecond, nil), mr
}

func TestRedisLockAndRelease(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "INV001")
	require.NoError(t, err)
	assert.True(t, mr.Exists("guestlist:rsvp-lock:INV001"))

	_, err = l.Lock(ctx, "INV001")
	require.ErrorIs(t, err, ErrTimeout)

	unlock()
	assert.False(t, mr.Exists("guestlist:rsvp-lock:INV001"))

	unlock2, err := l.Lock(ctx, "INV001")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLeaseExpires(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "INV001")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	unlock, err := l.Lock(ctx, "INV001")
	require.NoError(t, err)

	// The expired holder must not release the new lease.
	stale()
	assert.True(t, mr.Exists("guestlist:rsvp-lock:INV001"))
	unlock()
}
