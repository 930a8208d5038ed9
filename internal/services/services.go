package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/logging"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/activity"
	"github.com/dmitrijs2005/encodex/internal/repositories/users"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

// Deps are the collaborators shared by all services.
type Deps struct {
	Store  storage.Store
	Logger logging.Logger
	// KDF is used when enrolling new users. Zero value means PBKDF2 with
	// common.DefaultKDFIterations.
	KDF cryptox.KDFParams
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Services bundles every service built from one Deps.
type Services struct {
	Auth     AuthService
	Vault    VaultService
	Shares   ShareService
	Activity ActivityService
	Settings SettingsService
}

// New wires all services around a single store and lock table.
func New(d Deps) *Services {
	c := newCore(d)
	return &Services{
		Auth:     &authService{core: c},
		Vault:    &vaultService{core: c},
		Shares:   &shareService{core: c},
		Activity: &activityService{core: c},
		Settings: &settingsService{core: c},
	}
}

// core holds what every service needs.
type core struct {
	store storage.Store
	locks *storage.Locker
	log   logging.Logger
	kdf   cryptox.KDFParams
	now   func() time.Time
	newID func() string
}

func newCore(d Deps) *core {
	c := &core{
		store: d.Store,
		locks: storage.NewLocker(),
		log:   d.Logger,
		kdf:   d.KDF,
		now:   d.Now,
		newID: d.NewID,
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	if c.kdf.Iterations == 0 {
		c.kdf = cryptox.DefaultKDFParams(c.kdf.Algorithm)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// atomic runs fn while holding the locks for keys and inside one storage
// transaction.
func (c *core) atomic(ctx context.Context, keys []string, fn func(ctx context.Context, kv storage.KV) error) error {
	unlock := c.locks.Lock(keys...)
	defer unlock()
	return c.store.Atomic(ctx, fn)
}

// record appends an activity entry. Failures are only logged.
func (c *core) record(ctx context.Context, actor string, p models.ActivityPayload) {
	a := &models.Activity{
		ID:      c.newID(),
		At:      c.now().UTC(),
		Actor:   actor,
		Payload: p,
	}
	err := c.atomic(ctx, []string{activity.Key}, func(ctx context.Context, kv storage.KV) error {
		return activity.NewKVRepository(kv).Append(ctx, a)
	})
	if err != nil {
		c.log.Warn(ctx, "failed to record activity", "type", p.Kind(), "actor", actor, "error", err)
	}
}

func requireSession(s *session.Session) error {
	if s == nil || len(s.Key()) == 0 {
		return common.ErrNoActiveSession
	}
	return nil
}

// requireCurrentKey checks that the session key still opens the owner's
// verifier. A session opened before a Rekey fails with ErrNoActiveSession.
func requireCurrentKey(ctx context.Context, kv storage.KV, s *session.Session) error {
	u, err := users.NewKVRepository(kv).Get(ctx, s.Identity)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: account %s no longer exists", common.ErrNoActiveSession, s.Identity)
	}
	if err != nil {
		return err
	}
	if err := cryptox.CheckKey(s.Key(), &u.Verifier); err != nil {
		return fmt.Errorf("%w: session key is no longer current", common.ErrNoActiveSession)
	}
	return nil
}

// NormalizeIdentity trims and lower-cases an identity.
func NormalizeIdentity(identity string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(identity))
	if id == "" {
		return "", fmt.Errorf("%w: identity is required", common.ErrInvalidInput)
	}
	if strings.ContainsAny(id, "/ \t\r\n") {
		return "", fmt.Errorf("%w: identity must not contain slashes or whitespace", common.ErrInvalidInput)
	}
	return id, nil
}
