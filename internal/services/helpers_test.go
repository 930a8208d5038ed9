package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

const testPassword = "Sn0wman!"

// fakeClock advances one second per call so ordering by time is stable.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

func newTestServices(t *testing.T) (*Services, storage.Store) {
	t.Helper()
	st := storage.NewMemoryStore()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}
	svc := New(Deps{
		Store: st,
		KDF:   cryptox.KDFParams{Algorithm: cryptox.KDFPBKDF2SHA256, Iterations: common.MinKDFIterations},
		Now:   clock.Now,
		NewID: ids.Next,
	})
	return svc, st
}

func register(t *testing.T, svc *Services, identity string) *session.Session {
	t.Helper()
	s, err := svc.Auth.Register(context.Background(), identity, "", []byte(testPassword))
	require.NoError(t, err)
	return s
}

func upload(t *testing.T, svc *Services, s *session.Session, name, body string) string {
	t.Helper()
	v, err := svc.Vault.Upload(context.Background(), s, UploadInput{Filename: name, Data: []byte(body)})
	require.NoError(t, err)
	return v.ID
}
