package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
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

// UploadInput describes a plaintext document to be stored.
type UploadInput struct {
	Filename string
	Category models.Category
	DocType  models.DocType
	Data     []byte
}

// ListFilter narrows a vault listing. An empty Category (or "All") matches
// every category; Query is a case-insensitive filename substring.
type ListFilter struct {
	Category models.Category
	Query    string
}

// CategoryAll disables the category filter.
const CategoryAll models.Category = "All"

type VaultService interface {
	Upload(ctx context.Context, s *session.Session, in UploadInput) (models.DocumentView, error)
	ScanSave(ctx context.Context, s *session.Session, in UploadInput) (models.DocumentView, error)
	Download(ctx context.Context, s *session.Session, id string) (models.DocumentView, []byte, error)
	List(ctx context.Context, s *session.Session, f ListFilter) ([]models.DocumentView, error)
	Delete(ctx context.Context, s *session.Session, id string) error
}

type vaultService struct {
	*core
}

func (v *vaultService) Upload(ctx context.Context, s *session.Session, in UploadInput) (models.DocumentView, error) {
	d, err := v.saveDocument(ctx, s, in)
	if err != nil {
		return models.DocumentView{}, err
	}
	v.record(ctx, s.Identity, models.UploadPayload{Filename: d.Filename, Category: d.Category, DocType: d.DocType})
	return d.View(), nil
}

// ScanSave stores a captured scan. It differs from Upload only in the
// activity it records.
func (v *vaultService) ScanSave(ctx context.Context, s *session.Session, in UploadInput) (models.DocumentView, error) {
	if in.Filename == "" {
		in.Filename = fmt.Sprintf("scan-%d.jpg", v.now().UnixMilli())
	}
	if in.DocType == "" {
		in.DocType = models.DocTypeImage
	}
	d, err := v.saveDocument(ctx, s, in)
	if err != nil {
		return models.DocumentView{}, err
	}
	v.record(ctx, s.Identity, models.ScanSavePayload{Filename: d.Filename, Category: d.Category})
	return d.View(), nil
}

func (v *vaultService) saveDocument(ctx context.Context, s *session.Session, in UploadInput) (*models.Document, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	if err := validateUpload(&in); err != nil {
		return nil, err
	}

	d := &models.Document{
		ID:        v.newID(),
		Owner:     s.Identity,
		Filename:  in.Filename,
		Size:      int64(len(in.Data)),
		Category:  in.Category,
		DocType:   in.DocType,
		CreatedAt: v.now().UTC(),
	}
	// Sealing happens under the user lock so a concurrent Rekey either sees
	// this document or makes the session key stale before it is written.
	keys := []string{users.Key(s.Identity), documents.Key(s.Identity)}
	err := v.atomic(ctx, keys, func(ctx context.Context, kv storage.KV) error {
		if err := requireCurrentKey(ctx, kv, s); err != nil {
			return err
		}
		nonce, ct, err := cryptox.Seal(s.Key(), in.Data)
		if err != nil {
			return err
		}
		d.Nonce, d.Ciphertext = nonce, ct
		return documents.NewKVRepository(kv).Add(ctx, d)
	})
	if err != nil {
		if errors.Is(err, common.ErrNoActiveSession) {
			v.log.Warn(ctx, "upload rejected, stale session", "owner", s.Identity)
		}
		return nil, err
	}

	v.log.Info(ctx, "document stored", "owner", s.Identity, "doc_id", d.ID, "size", d.Size)
	return d, nil
}

func validateUpload(in *UploadInput) error {
	in.Filename = strings.TrimSpace(filepath.Base(in.Filename))
	if in.Filename == "" || in.Filename == "." || in.Filename == string(filepath.Separator) {
		return fmt.Errorf("%w: filename is required", common.ErrInvalidInput)
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if _, err := models.ParseCategory(string(in.Category)); err != nil {
		return err
	}
	if in.DocType == "" {
		in.DocType = models.DocTypeOther
	}
	if _, err := models.ParseDocType(string(in.DocType)); err != nil {
		return err
	}
	if !in.DocType.Accepts(in.Filename) {
		return fmt.Errorf("%w: %s is not a valid %s file (accepted: %s)", common.ErrInvalidInput,
			in.Filename, in.DocType, strings.Join(in.DocType.Extensions(), ", "))
	}
	return nil
}

// Download decrypts one of the session owner's documents.
func (v *vaultService) Download(ctx context.Context, s *session.Session, id string) (models.DocumentView, []byte, error) {
	if err := requireSession(s); err != nil {
		return models.DocumentView{}, nil, err
	}
	d, err := documents.NewKVRepository(v.store).Get(ctx, s.Identity, id)
	if err != nil {
		return models.DocumentView{}, nil, err
	}
	pt, err := cryptox.Open(s.Key(), d.Nonce, d.Ciphertext)
	if err != nil {
		v.log.Warn(ctx, "document failed to decrypt", "owner", s.Identity, "doc_id", id)
		return models.DocumentView{}, nil, err
	}

	v.record(ctx, s.Identity, models.DownloadPayload{Filename: d.Filename})
	return d.View(), pt, nil
}

// List returns matching documents, newest first.
func (v *vaultService) List(ctx context.Context, s *session.Session, f ListFilter) ([]models.DocumentView, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	docs, err := documents.NewKVRepository(v.store).List(ctx, s.Identity)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.DocumentView, 0, len(docs))
	for _, d := range docs {
		if f.Category != "" && f.Category != CategoryAll && !strings.EqualFold(string(f.Category), string(d.Category)) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.Filename), q) {
			continue
		}
		out = append(out, d.View())
	}
	slices.SortStableFunc(out, func(a, b models.DocumentView) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// Delete removes a document and revokes every share issued for it.
func (v *vaultService) Delete(ctx context.Context, s *session.Session, id string) error {
	if err := requireSession(s); err != nil {
		return err
	}

	unlock := v.locks.Lock(documents.Key(s.Identity), shares.IndexKey(s.Identity))
	defer unlock()

	live, err := v.liveShares(ctx, s.Identity, id)
	if err != nil {
		return err
	}
	shareKeys := make([]string, 0, len(live))
	for _, t := range live {
		shareKeys = append(shareKeys, shares.Key(t))
	}
	unlockShares := v.locks.Lock(shareKeys...)
	defer unlockShares()

	var (
		removed *models.Document
		revoked int
	)
	err = v.store.Atomic(ctx, func(ctx context.Context, kv storage.KV) error {
		var err error
		removed, err = documents.NewKVRepository(kv).Remove(ctx, s.Identity, id)
		if err != nil {
			return err
		}
		shareRepo := shares.NewKVRepository(kv)
		for _, t := range live {
			_, ok, err := revokeShare(ctx, shareRepo, t, v.now())
			if err != nil {
				return err
			}
			if ok {
				revoked++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	v.log.Info(ctx, "document deleted", "owner", s.Identity, "doc_id", id, "revoked_shares", revoked)
	v.record(ctx, s.Identity, models.DeletePayload{Filename: removed.Filename, RevokedShares: revoked})
	return nil
}

// liveShares returns the tokens of redeemable shares of docID.
func (c *core) liveShares(ctx context.Context, owner, docID string) ([]string, error) {
	list, err := shares.NewKVRepository(c.store).ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0)
	for _, sh := range list {
		if sh.DocumentID == docID && sh.State == models.ShareStateRedeemable {
			out = append(out, sh.Token)
		}
	}
	return out, nil
}
