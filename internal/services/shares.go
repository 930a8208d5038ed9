package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/documents"
	"github.com/dmitrijs2005/encodex/internal/repositories/shares"
	"github.com/dmitrijs2005/encodex/internal/repositories/users"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

// Redeemed is the result of a successful redemption.
type Redeemed struct {
	Owner    string
	Document models.DocumentView
	Data     []byte
}

// ShareView is a live share as shown in the share center.
type ShareView struct {
	Token      string
	Kind       models.ShareKind
	DocumentID string
	Filename   string
	CreatedAt  time.Time
}

// ShareService issues and redeems share tokens.
//
// A token resolves to a point-in-time snapshot of one document. Password
// shares keep the owner-key ciphertext and need the owner's credentials to
// redeem; sealed shares re-encrypt the document under a per-share key wrapped
// to a recipient ML-KEM public key. Revocation is terminal.
type ShareService interface {
	Issue(ctx context.Context, s *session.Session, docID string) (string, error)
	IssueSealed(ctx context.Context, s *session.Session, docID string, recipientPub []byte) (string, error)
	Redeem(ctx context.Context, token, ownerIdentity string, ownerPassword []byte) (*Redeemed, error)
	RedeemSealed(ctx context.Context, token string, recipientPriv []byte) (*Redeemed, error)
	Revoke(ctx context.Context, token string) error
	List(ctx context.Context, s *session.Session, query string) ([]ShareView, error)
}

type shareService struct {
	*core
}

func newToken() (string, error) {
	return common.MakeRandToken(common.ShareTokenSize)
}

// Issue snapshots the document by value behind a new password share token.
func (sv *shareService) Issue(ctx context.Context, s *session.Session, docID string) (string, error) {
	if err := requireSession(s); err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}

	var filename string
	keys := []string{documents.Key(s.Identity), shares.IndexKey(s.Identity), shares.Key(token)}
	err = sv.atomic(ctx, keys, func(ctx context.Context, kv storage.KV) error {
		d, err := documents.NewKVRepository(kv).Get(ctx, s.Identity, docID)
		if err != nil {
			return err
		}
		filename = d.Filename
		return shares.NewKVRepository(kv).Put(ctx, &models.Share{
			Token:      token,
			Kind:       models.ShareKindPassword,
			State:      models.ShareStateRedeemable,
			Owner:      s.Identity,
			DocumentID: d.ID,
			CreatedAt:  sv.now().UTC(),
			Document:   d,
		})
	})
	if err != nil {
		return "", err
	}

	sv.log.Info(ctx, "share issued", "owner", s.Identity, "doc_id", docID, "token", models.TokenPrefix(token))
	sv.record(ctx, s.Identity, models.ShareCreatePayload{
		Filename: filename, ShareKind: models.ShareKindPassword, TokenPrefix: models.TokenPrefix(token),
	})
	return token, nil
}

// IssueSealed re-encrypts the document under a fresh key and wraps that key
// to recipientPub. Redeeming needs the matching private key only.
func (sv *shareService) IssueSealed(ctx context.Context, s *session.Session, docID string, recipientPub []byte) (string, error) {
	if err := requireSession(s); err != nil {
		return "", err
	}

	d, err := documents.NewKVRepository(sv.store).Get(ctx, s.Identity, docID)
	if err != nil {
		return "", err
	}
	pt, err := cryptox.Open(s.Key(), d.Nonce, d.Ciphertext)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pt)

	dek, err := common.RandomBytes(common.KeySize)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(dek)

	wrapped, err := cryptox.WrapKey(recipientPub, dek)
	if err != nil {
		return "", err
	}
	nonce, ct, err := cryptox.Seal(dek, pt)
	if err != nil {
		return "", err
	}
	snapshot := *d
	snapshot.Nonce, snapshot.Ciphertext = nonce, ct

	token, err := newToken()
	if err != nil {
		return "", err
	}

	keys := []string{documents.Key(s.Identity), shares.IndexKey(s.Identity), shares.Key(token)}
	err = sv.atomic(ctx, keys, func(ctx context.Context, kv storage.KV) error {
		// The document may have been deleted while we were sealing.
		if _, err := documents.NewKVRepository(kv).Get(ctx, s.Identity, docID); err != nil {
			return err
		}
		return shares.NewKVRepository(kv).Put(ctx, &models.Share{
			Token:      token,
			Kind:       models.ShareKindSealed,
			State:      models.ShareStateRedeemable,
			Owner:      s.Identity,
			DocumentID: d.ID,
			CreatedAt:  sv.now().UTC(),
			Document:   &snapshot,
			WrappedKey: wrapped,
		})
	})
	if err != nil {
		return "", err
	}

	sv.log.Info(ctx, "sealed share issued", "owner", s.Identity, "doc_id", docID, "token", models.TokenPrefix(token))
	sv.record(ctx, s.Identity, models.ShareCreatePayload{
		Filename: d.Filename, ShareKind: models.ShareKindSealed, TokenPrefix: models.TokenPrefix(token),
	})
	return token, nil
}

// lookup resolves a token to a redeemable share.
func lookup(ctx context.Context, repo shares.Repository, token string) (*models.Share, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidInput)
	}
	sh, err := repo.Get(ctx, token)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if sh.State == models.ShareStateRevoked || sh.Document == nil {
		return nil, common.ErrTokenRevoked
	}
	return sh, nil
}

// Redeem re-derives the owner's key from ownerPassword and opens the
// snapshot. The token lock is held throughout, so a concurrent Revoke
// completes either entirely before or entirely after.
func (sv *shareService) Redeem(ctx context.Context, token, ownerIdentity string, ownerPassword []byte) (*Redeemed, error) {
	unlock := sv.locks.Lock(shares.Key(token))
	defer unlock()

	sh, err := lookup(ctx, shares.NewKVRepository(sv.store), token)
	if err != nil {
		return nil, err
	}
	if sh.Kind != models.ShareKindPassword {
		return nil, fmt.Errorf("%w: share is sealed to a recipient key", common.ErrInvalidInput)
	}

	owner, err := NormalizeIdentity(ownerIdentity)
	if err != nil {
		return nil, err
	}
	if owner != sh.Owner {
		sv.log.Warn(ctx, "share redeem rejected", "token", models.TokenPrefix(token))
		return nil, common.ErrAuthenticationFailed
	}

	key, err := sv.checkPassword(ctx, users.NewKVRepository(sv.store), owner, ownerPassword)
	if err != nil {
		sv.log.Warn(ctx, "share redeem rejected", "token", models.TokenPrefix(token))
		return nil, err
	}
	defer common.WipeByteArray(key)

	return sv.open(ctx, sh, key)
}

// RedeemSealed unwraps the share key with recipientPriv and opens the
// snapshot. No password is involved.
func (sv *shareService) RedeemSealed(ctx context.Context, token string, recipientPriv []byte) (*Redeemed, error) {
	unlock := sv.locks.Lock(shares.Key(token))
	defer unlock()

	sh, err := lookup(ctx, shares.NewKVRepository(sv.store), token)
	if err != nil {
		return nil, err
	}
	if sh.Kind != models.ShareKindSealed || sh.WrappedKey == nil {
		return nil, fmt.Errorf("%w: share needs owner credentials", common.ErrInvalidInput)
	}

	dek, err := cryptox.UnwrapKey(recipientPriv, sh.WrappedKey)
	if err != nil {
		sv.log.Warn(ctx, "sealed share redeem rejected", "token", models.TokenPrefix(token))
		return nil, err
	}
	defer common.WipeByteArray(dek)

	return sv.open(ctx, sh, dek)
}

func (sv *shareService) open(ctx context.Context, sh *models.Share, key []byte) (*Redeemed, error) {
	pt, err := cryptox.Open(key, sh.Document.Nonce, sh.Document.Ciphertext)
	if err != nil {
		sv.log.Warn(ctx, "share snapshot failed to decrypt", "token", models.TokenPrefix(sh.Token))
		return nil, err
	}

	sv.log.Info(ctx, "share redeemed", "owner", sh.Owner, "doc_id", sh.DocumentID, "token", models.TokenPrefix(sh.Token))
	sv.record(ctx, sh.Owner, models.DownloadPayload{Filename: sh.Document.Filename, Shared: true})
	return &Redeemed{Owner: sh.Owner, Document: sh.Document.View(), Data: pt}, nil
}

// Revoke makes token permanently unredeemable and drops its snapshot.
// Revoking an unknown or already revoked token is a no-op.
func (sv *shareService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	var (
		sh      *models.Share
		revoked bool
	)
	err := sv.atomic(ctx, []string{shares.Key(token)}, func(ctx context.Context, kv storage.KV) error {
		var err error
		sh, revoked, err = revokeShare(ctx, shares.NewKVRepository(kv), token, sv.now())
		return err
	})
	if err != nil || !revoked {
		return err
	}

	sv.log.Info(ctx, "share revoked", "owner", sh.Owner, "token", models.TokenPrefix(token))
	sv.record(ctx, sh.Owner, models.ShareRevokePayload{TokenPrefix: models.TokenPrefix(token)})
	return nil
}

// revokeShare turns a redeemable share into a tombstone. It reports whether
// anything changed.
func revokeShare(ctx context.Context, repo shares.Repository, token string, at time.Time) (*models.Share, bool, error) {
	sh, err := repo.Get(ctx, token)
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if sh.State == models.ShareStateRevoked {
		return sh, false, nil
	}

	sh.State = models.ShareStateRevoked
	sh.RevokedAt = at.UTC()
	sh.Document = nil
	sh.WrappedKey = nil
	if err := repo.Put(ctx, sh); err != nil {
		return nil, false, err
	}
	return sh, true, nil
}

// List returns the owner's live shares whose filename contains query,
// newest first.
func (sv *shareService) List(ctx context.Context, s *session.Session, query string) ([]ShareView, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	all, err := shares.NewKVRepository(sv.store).ListByOwner(ctx, s.Identity)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]ShareView, 0, len(all))
	for _, sh := range all {
		if sh.State != models.ShareStateRedeemable || sh.Document == nil {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(sh.Document.Filename), q) {
			continue
		}
		out = append(out, ShareView{
			Token:      sh.Token,
			Kind:       sh.Kind,
			DocumentID: sh.DocumentID,
			Filename:   sh.Document.Filename,
			CreatedAt:  sh.CreatedAt,
		})
	}
	slices.SortStableFunc(out, func(a, b ShareView) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
