package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/documents"
	"github.com/dmitrijs2005/encodex/internal/repositories/shares"
	"github.com/dmitrijs2005/encodex/internal/repositories/users"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

// AuthService manages identities and their password verifiers.
//
// Register and Login return a fresh Session carrying the derived key. Unknown
// identities and wrong passwords are both reported as
// common.ErrAuthenticationFailed.
type AuthService interface {
	Register(ctx context.Context, identity, displayName string, password []byte) (*session.Session, error)
	Login(ctx context.Context, identity string, password []byte) (*session.Session, error)
	Profile(ctx context.Context, s *session.Session) (*models.User, error)
	UpdateDisplayName(ctx context.Context, s *session.Session, name string) error
	Rekey(ctx context.Context, identity string, password []byte, params cryptox.KDFParams) (*session.Session, error)
}

type authService struct {
	*core
}

// Register enrolls a new identity. An empty displayName defaults to the
// local part of the identity.
func (a *authService) Register(ctx context.Context, identity, displayName string, password []byte) (*session.Session, error) {
	id, err := NormalizeIdentity(identity)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: password is required", common.ErrInvalidInput)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.DefaultDisplayName(id)
	}

	v, key, err := cryptox.Enroll(password, a.kdf)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	u := &models.User{Identity: id, DisplayName: displayName, Verifier: *v}
	err = a.atomic(ctx, []string{users.Key(id)}, func(ctx context.Context, kv storage.KV) error {
		return users.NewKVRepository(kv).Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info(ctx, "user registered", "identity", id, "kdf", v.KDF.Algorithm, "iterations", v.KDF.Iterations)
	a.record(ctx, id, models.RegisterPayload{})
	return session.New(id, key), nil
}

// Login checks password against the stored verifier.
func (a *authService) Login(ctx context.Context, identity string, password []byte) (*session.Session, error) {
	id, err := NormalizeIdentity(identity)
	if err != nil {
		return nil, err
	}

	key, err := a.checkPassword(ctx, users.NewKVRepository(a.store), id, password)
	if err != nil {
		a.log.Warn(ctx, "login failed", "identity", id)
		return nil, err
	}
	defer common.WipeByteArray(key)

	a.log.Info(ctx, "user logged in", "identity", id)
	a.record(ctx, id, models.LoginPayload{})
	return session.New(id, key), nil
}

// checkPassword returns the user's key or common.ErrAuthenticationFailed.
func (c *core) checkPassword(ctx context.Context, repo users.Repository, identity string, password []byte) ([]byte, error) {
	u, err := repo.Get(ctx, identity)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, err
	}
	return cryptox.Check(password, &u.Verifier)
}

func (a *authService) Profile(ctx context.Context, s *session.Session) (*models.User, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	return users.NewKVRepository(a.store).Get(ctx, s.Identity)
}

// UpdateDisplayName changes only the display name; salt and verifier are
// left untouched.
func (a *authService) UpdateDisplayName(ctx context.Context, s *session.Session, name string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: display name is required", common.ErrInvalidInput)
	}

	err := a.atomic(ctx, []string{users.Key(s.Identity)}, func(ctx context.Context, kv storage.KV) error {
		repo := users.NewKVRepository(kv)
		u, err := repo.Get(ctx, s.Identity)
		if err != nil {
			return err
		}
		u.DisplayName = name
		return repo.Update(ctx, u)
	})
	if err != nil {
		return err
	}

	a.log.Info(ctx, "display name updated", "identity", s.Identity)
	a.record(ctx, s.Identity, models.SettingsUpdatePayload{DisplayName: name})
	return nil
}

// Rekey re-derives the user's key with new parameters and a fresh salt, then
// re-seals the verifier, every owned document and every live password share
// snapshot under it. Either everything is re-sealed or nothing changes.
//
// Sealed shares carry their own per-share key and are not touched.
func (a *authService) Rekey(ctx context.Context, identity string, password []byte, params cryptox.KDFParams) (*session.Session, error) {
	id, err := NormalizeIdentity(identity)
	if err != nil {
		return nil, err
	}
	if params.Algorithm == "" {
		params.Algorithm = cryptox.KDFPBKDF2SHA256
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(users.Key(id), documents.Key(id), shares.IndexKey(id))
	defer unlock()

	// Share tokens are locked after reading the index. Issue holds the
	// document lock, so no share can appear for id in between.
	tokens, err := a.ownerTokens(ctx, id)
	if err != nil {
		return nil, err
	}
	shareKeys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		shareKeys = append(shareKeys, shares.Key(t))
	}
	unlockShares := a.locks.Lock(shareKeys...)
	defer unlockShares()

	// Both derivations run outside the storage transaction. The user lock
	// keeps the verifier stable until the commit below re-checks it.
	current, err := users.NewKVRepository(a.store).Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		a.log.Warn(ctx, "rekey rejected", "identity", id)
		return nil, common.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, err
	}
	oldKey, err := cryptox.Check(password, &current.Verifier)
	if err != nil {
		a.log.Warn(ctx, "rekey rejected", "identity", id)
		return nil, err
	}
	defer common.WipeByteArray(oldKey)

	v, newKey, err := cryptox.Enroll(password, params)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(newKey)

	var resealed int
	err = a.store.Atomic(ctx, func(ctx context.Context, kv storage.KV) error {
		userRepo := users.NewKVRepository(kv)
		docRepo := documents.NewKVRepository(kv)
		shareRepo := shares.NewKVRepository(kv)

		u, err := userRepo.Get(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrAuthenticationFailed
		}
		if err != nil {
			return err
		}
		if err := cryptox.CheckKey(oldKey, &u.Verifier); err != nil {
			return err
		}

		docs, err := docRepo.List(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if err := reseal(d, oldKey, newKey); err != nil {
				return fmt.Errorf("document %s: %w", d.ID, err)
			}
		}
		if err := docRepo.ReplaceAll(ctx, id, docs); err != nil {
			return err
		}
		resealed = len(docs)

		for _, t := range tokens {
			sh, err := shareRepo.Get(ctx, t)
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if sh.Kind != models.ShareKindPassword || sh.State != models.ShareStateRedeemable || sh.Document == nil {
				continue
			}
			if err := reseal(sh.Document, oldKey, newKey); err != nil {
				return fmt.Errorf("share %s: %w", models.TokenPrefix(t), err)
			}
			if err := shareRepo.Put(ctx, sh); err != nil {
				return err
			}
		}

		u.Verifier = *v
		return userRepo.Update(ctx, u)
	})
	if err != nil {
		if errors.Is(err, common.ErrAuthenticationFailed) {
			a.log.Warn(ctx, "rekey rejected", "identity", id)
		}
		return nil, err
	}

	a.log.Info(ctx, "user rekeyed", "identity", id, "kdf", params.Algorithm, "iterations", params.Iterations, "documents", resealed)
	a.record(ctx, id, models.RekeyPayload{KDF: string(params.Algorithm), Iterations: params.Iterations, Documents: resealed})
	return session.New(id, newKey), nil
}

func (c *core) ownerTokens(ctx context.Context, owner string) ([]string, error) {
	list, err := shares.NewKVRepository(c.store).ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(list))
	for _, s := range list {
		tokens = append(tokens, s.Token)
	}
	return tokens, nil
}

// reseal replaces d's nonce and ciphertext with a sealing under newKey.
func reseal(d *models.Document, oldKey, newKey []byte) error {
	pt, err := cryptox.Open(oldKey, d.Nonce, d.Ciphertext)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pt)

	nonce, ct, err := cryptox.Seal(newKey, pt)
	if err != nil {
		return err
	}
	d.Nonce, d.Ciphertext = nonce, ct
	return nil
}
