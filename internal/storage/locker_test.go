package storage

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := NewLocker()
	var inside int32
	counter := 0

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			unlock := l.Lock("shares/t1")
			defer unlock()
			if n := atomic.AddInt32(&inside, 1); n != 1 {
				t.Errorf("%d goroutines inside the critical section", n)
			}
			counter++
			atomic.AddInt32(&inside, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 64, counter)
}

func TestLocker_OverlappingKeySetsDoNotDeadlock(t *testing.T) {
	l := NewLocker()

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			defer l.Lock("a", "b")()
			return nil
		})
		g.Go(func() error {
			defer l.Lock("b", "a", "a")()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks, "released locks must be dropped")
}
