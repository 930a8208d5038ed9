package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/encodex/internal/common"
)

func TestNew_CopiesKey(t *testing.T) {
	key := []byte{1, 2, 3}
	s := New("alice@example.com", key)
	key[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, s.Key())
	assert.Equal(t, "alice@example.com", s.Identity)
	assert.False(t, s.OpenedAt.IsZero())
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager()

	_, err := m.Current()
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	opened := m.Open("alice@example.com", []byte("k1"))
	cur, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, opened, cur)

	m.Open("bob@example.com", []byte("k2"))
	cur, err = m.Current()
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", cur.Identity)

	m.Close()
	m.Close()
	_, err = m.Current()
	require.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			m.Open("alice@example.com", []byte("k"))
			return nil
		})
		g.Go(func() error {
			if s, err := m.Current(); err == nil && s.Identity != "alice@example.com" {
				t.Errorf("unexpected identity %q", s.Identity)
			}
			return nil
		})
		g.Go(func() error {
			m.Close()
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
