package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/users"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

func TestRegister(t *testing.T) {
	svc, st := newTestServices(t)
	ctx := context.Background()

	s, err := svc.Auth.Register(ctx, "  Alice@Example.com ", "", []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", s.Identity)
	assert.Len(t, s.Key(), common.KeySize)

	u, err := users.NewKVRepository(st).Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.DisplayName)
	assert.Len(t, u.Verifier.Salt, common.SaltSize)
	assert.Equal(t, common.MinKDFIterations, u.Verifier.KDF.Iterations)

	raw, err := st.Get(ctx, users.Key("alice@example.com"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte(testPassword)), "password must not be stored")
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, "", "", []byte(testPassword))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Auth.Register(ctx, "a/b@example.com", "", []byte(testPassword))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Auth.Register(ctx, "alice@example.com", "", nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestServices(t)
	register(t, svc, "alice@example.com")

	_, err := svc.Auth.Register(context.Background(), "ALICE@example.com", "", []byte("other"))
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestRegister_SaltsAreUnique(t *testing.T) {
	svc, st := newTestServices(t)
	ctx := context.Background()
	register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	repo := users.NewKVRepository(st)
	a, err := repo.Get(ctx, "a@example.com")
	require.NoError(t, err)
	b, err := repo.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a.Verifier.Salt, b.Verifier.Salt)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	reg := register(t, svc, "alice@example.com")

	s, err := svc.Auth.Login(ctx, "alice@example.com", []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, reg.Key(), s.Key(), "login derives the registration key")

	_, err = svc.Auth.Login(ctx, "alice@example.com", []byte("sn0wman!"))
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)

	_, err = svc.Auth.Login(ctx, "ghost@example.com", []byte(testPassword))
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestUpdateDisplayName_KeepsVerifier(t *testing.T) {
	svc, st := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")

	before, err := users.NewKVRepository(st).Get(ctx, s.Identity)
	require.NoError(t, err)

	require.NoError(t, svc.Auth.UpdateDisplayName(ctx, s, "  Alice Liddell "))
	require.ErrorIs(t, svc.Auth.UpdateDisplayName(ctx, s, "   "), common.ErrInvalidInput)
	require.ErrorIs(t, svc.Auth.UpdateDisplayName(ctx, nil, "x"), common.ErrNoActiveSession)

	after, err := svc.Auth.Profile(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", after.DisplayName)
	assert.Equal(t, before.Verifier, after.Verifier)

	_, err = svc.Auth.Login(ctx, s.Identity, []byte(testPassword))
	require.NoError(t, err)
}

func TestRekey(t *testing.T) {
	svc, st := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")
	docID := upload(t, svc, s, "notes.txt", "hello docs")
	token, err := svc.Shares.Issue(ctx, s, docID)
	require.NoError(t, err)

	before, err := users.NewKVRepository(st).Get(ctx, s.Identity)
	require.NoError(t, err)

	params := cryptox.KDFParams{Algorithm: cryptox.KDFPBKDF2SHA256, Iterations: 2000}
	ns, err := svc.Auth.Rekey(ctx, s.Identity, []byte(testPassword), params)
	require.NoError(t, err)
	assert.NotEqual(t, s.Key(), ns.Key())

	acts, err := svc.Activity.Recent(ctx, ns, 1)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, models.RekeyPayload{KDF: "pbkdf2-sha256", Iterations: 2000, Documents: 1}, acts[0].Payload)

	after, err := users.NewKVRepository(st).Get(ctx, s.Identity)
	require.NoError(t, err)
	assert.Equal(t, 2000, after.Verifier.KDF.Iterations)
	assert.NotEqual(t, before.Verifier.Salt, after.Verifier.Salt)

	// Old session key no longer opens documents; the new one does.
	_, _, err = svc.Vault.Download(ctx, s, docID)
	require.ErrorIs(t, err, common.ErrDecryptionFailed)
	_, data, err := svc.Vault.Download(ctx, ns, docID)
	require.NoError(t, err)
	assert.Equal(t, "hello docs", string(data))

	// Password shares were re-sealed too.
	r, err := svc.Shares.Redeem(ctx, token, s.Identity, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, "hello docs", string(r.Data))
}

func TestRekey_WrongPasswordChangesNothing(t *testing.T) {
	svc, st := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")
	upload(t, svc, s, "a.txt", "x")

	before, err := st.Get(ctx, users.Key(s.Identity))
	require.NoError(t, err)

	_, err = svc.Auth.Rekey(ctx, s.Identity, []byte("nope"), cryptox.KDFParams{Iterations: 2000})
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)

	after, err := st.Get(ctx, users.Key(s.Identity))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = svc.Auth.Rekey(ctx, s.Identity, []byte(testPassword), cryptox.KDFParams{Iterations: 10})
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRekey_ToArgon2id(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")
	docID := upload(t, svc, s, "a.txt", "argon")

	ns, err := svc.Auth.Rekey(ctx, s.Identity, []byte(testPassword), cryptox.KDFParams{Algorithm: cryptox.KDFArgon2id, Iterations: 1})
	require.NoError(t, err)

	ls, err := svc.Auth.Login(ctx, s.Identity, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, ns.Key(), ls.Key())

	_, data, err := svc.Vault.Download(ctx, ls, docID)
	require.NoError(t, err)
	assert.Equal(t, "argon", string(data))
}

func TestRekey_StaleSessionCannotUpload(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")
	upload(t, svc, s, "before.txt", "hello docs")

	ns, err := svc.Auth.Rekey(ctx, s.Identity, []byte(testPassword), cryptox.KDFParams{Iterations: 2000})
	require.NoError(t, err)

	_, err = svc.Vault.Upload(ctx, s, UploadInput{Filename: "stale.txt", Data: []byte("old key")})
	require.ErrorIs(t, err, common.ErrNoActiveSession)
	_, err = svc.Vault.ScanSave(ctx, s, UploadInput{Data: []byte{0xff, 0xd8}})
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	upload(t, svc, ns, "after.txt", "new key")

	docs, err := svc.Vault.List(ctx, ns, ListFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		_, _, err := svc.Vault.Download(ctx, ns, d.ID)
		require.NoError(t, err, d.Filename)
	}

	// A second rekey must still be able to open everything stored.
	_, err = svc.Auth.Rekey(ctx, s.Identity, []byte(testPassword), cryptox.KDFParams{Iterations: 3000})
	require.NoError(t, err)
}

func TestRekey_ConcurrentUploadsStayReadable(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")

	const uploads = 16
	var (
		stored atomic.Int32
		ns     *session.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ns, err = svc.Auth.Rekey(gctx, s.Identity, []byte(testPassword), cryptox.KDFParams{Iterations: 2000})
		return err
	})
	for i := 0; i < uploads; i++ {
		i := i
		g.Go(func() error {
			_, err := svc.Vault.Upload(gctx, s, UploadInput{Filename: fmt.Sprintf("f%02d.txt", i), Data: []byte("hello docs")})
			if errors.Is(err, common.ErrNoActiveSession) {
				return nil
			}
			if err == nil {
				stored.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.NotNil(t, ns)

	docs, err := svc.Vault.List(ctx, ns, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, int(stored.Load()))
	for _, d := range docs {
		_, data, err := svc.Vault.Download(ctx, ns, d.ID)
		require.NoError(t, err, d.Filename)
		assert.Equal(t, "hello docs", string(data))
	}
}

// countingStore counts storage transactions.
type countingStore struct {
	storage.Store
	atomics atomic.Int32
}

func (c *countingStore) Atomic(ctx context.Context, fn func(ctx context.Context, kv storage.KV) error) error {
	c.atomics.Add(1)
	return c.Store.Atomic(ctx, fn)
}

func TestRekey_WrongPasswordOpensNoTransaction(t *testing.T) {
	st := &countingStore{Store: storage.NewMemoryStore()}
	svc := New(Deps{Store: st, KDF: cryptox.KDFParams{Iterations: common.MinKDFIterations}})
	ctx := context.Background()
	s := register(t, svc, "alice@example.com")

	st.atomics.Store(0)
	_, err := svc.Auth.Rekey(ctx, s.Identity, []byte("nope"), cryptox.KDFParams{Iterations: 2000})
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
	assert.Zero(t, st.atomics.Load())

	_, err = svc.Auth.Rekey(ctx, "ghost@example.com", []byte(testPassword), cryptox.KDFParams{Iterations: 2000})
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
	assert.Zero(t, st.atomics.Load())
}
