package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/activity"
	"github.com/dmitrijs2005/encodex/internal/repositories/users"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

// exportNote labels every metadata export.
const exportNote = "EncodeX export (metadata only)"

// MetadataExport is the JSON document produced by ExportMetadata. It lists
// registered users only: no verifiers, no document metadata, no contents.
type MetadataExport struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Users      []ExportedUser `json:"users"`
	Note       string         `json:"note"`
}

type ExportedUser struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	KDF         string `json:"kdf"`
	Iterations  int    `json:"iterations"`
}

type SettingsService interface {
	ExportMetadata(ctx context.Context, s *session.Session) ([]byte, error)
	ClearAllData(ctx context.Context, s *session.Session) error
}

type settingsService struct {
	*core
}

// ExportMetadata returns indented JSON describing every registered user.
func (st *settingsService) ExportMetadata(ctx context.Context, s *session.Session) ([]byte, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	list, err := users.NewKVRepository(st.store).List(ctx)
	if err != nil {
		return nil, err
	}

	exp := MetadataExport{
		ExportedAt: st.now().UTC(),
		Users:      make([]ExportedUser, 0, len(list)),
		Note:       exportNote,
	}
	for _, u := range list {
		exp.Users = append(exp.Users, ExportedUser{
			Identity:    u.Identity,
			DisplayName: u.DisplayName,
			KDF:         string(u.Verifier.KDF.Algorithm),
			Iterations:  u.Verifier.KDF.Iterations,
		})
	}

	out, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	st.log.Info(ctx, "metadata exported", "identity", s.Identity, "users", len(exp.Users))
	return out, nil
}

// ClearAllData deletes every key in the store: users, documents, shares and
// the activity log. Callers close their session afterwards.
func (st *settingsService) ClearAllData(ctx context.Context, s *session.Session) error {
	if err := requireSession(s); err != nil {
		return err
	}

	keys, err := st.store.List(ctx, "")
	if err != nil {
		return err
	}

	err = st.atomic(ctx, append(keys, activity.Key), func(ctx context.Context, kv storage.KV) error {
		// Re-list inside the transaction to catch keys written meanwhile.
		keys, err := kv.List(ctx, "")
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := kv.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	st.log.Warn(ctx, "all data cleared", "identity", s.Identity, "keys", len(keys))
	st.record(ctx, s.Identity, models.ClearDataPayload{})
	return nil
}
