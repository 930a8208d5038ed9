package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// ActivityKind tags an activity event.
type ActivityKind string

const (
	ActivityLogin          ActivityKind = "LOGIN"
	ActivityRegister       ActivityKind = "REGISTER"
	ActivityUpload         ActivityKind = "UPLOAD"
	ActivityDownload       ActivityKind = "DOWNLOAD"
	ActivityDelete         ActivityKind = "DELETE"
	ActivityShareCreate    ActivityKind = "SHARE_CREATE"
	ActivityShareRevoke    ActivityKind = "SHARE_REVOKE"
	ActivityScanSave       ActivityKind = "SCAN_SAVE"
	ActivitySettingsUpdate ActivityKind = "SETTINGS_UPDATE"
	ActivityClearData      ActivityKind = "CLEAR_DATA"
	ActivityRekey          ActivityKind = "REKEY"
)

// ActivityPayload is one of the payload structs below. The set is closed:
// only types in this package implement it, so a type switch over them is
// exhaustive.
type ActivityPayload interface {
	Kind() ActivityKind
	isActivityPayload()
}

type LoginPayload struct{}

type RegisterPayload struct{}

type UploadPayload struct {
	Filename string   `json:"filename"`
	Category Category `json:"category"`
	DocType  DocType  `json:"docType"`
}

type DownloadPayload struct {
	Filename string `json:"filename"`
	// Shared is set when the download came through a share token.
	Shared bool `json:"shared,omitempty"`
}

type DeletePayload struct {
	Filename string `json:"filename"`
	// RevokedShares counts share tokens revoked along with the document.
	RevokedShares int `json:"revokedShares,omitempty"`
}

type ShareCreatePayload struct {
	Filename    string    `json:"filename"`
	ShareKind   ShareKind `json:"shareKind"`
	TokenPrefix string    `json:"tokenPrefix"`
}

type ShareRevokePayload struct {
	TokenPrefix string `json:"tokenPrefix"`
}

type ScanSavePayload struct {
	Filename string   `json:"filename"`
	Category Category `json:"category"`
}

type SettingsUpdatePayload struct {
	DisplayName string `json:"displayName"`
}

type ClearDataPayload struct{}

type RekeyPayload struct {
	KDF        string `json:"kdf"`
	Iterations int    `json:"iterations"`
	Documents  int    `json:"documents"`
}

func (LoginPayload) Kind() ActivityKind          { return ActivityLogin }
func (RegisterPayload) Kind() ActivityKind       { return ActivityRegister }
func (UploadPayload) Kind() ActivityKind         { return ActivityUpload }
func (DownloadPayload) Kind() ActivityKind       { return ActivityDownload }
func (DeletePayload) Kind() ActivityKind         { return ActivityDelete }
func (ShareCreatePayload) Kind() ActivityKind    { return ActivityShareCreate }
func (ShareRevokePayload) Kind() ActivityKind    { return ActivityShareRevoke }
func (ScanSavePayload) Kind() ActivityKind       { return ActivityScanSave }
func (SettingsUpdatePayload) Kind() ActivityKind { return ActivitySettingsUpdate }
func (ClearDataPayload) Kind() ActivityKind      { return ActivityClearData }
func (RekeyPayload) Kind() ActivityKind          { return ActivityRekey }

func (LoginPayload) isActivityPayload()          {}
func (RegisterPayload) isActivityPayload()       {}
func (UploadPayload) isActivityPayload()         {}
func (DownloadPayload) isActivityPayload()       {}
func (DeletePayload) isActivityPayload()         {}
func (ShareCreatePayload) isActivityPayload()    {}
func (ShareRevokePayload) isActivityPayload()    {}
func (ScanSavePayload) isActivityPayload()       {}
func (SettingsUpdatePayload) isActivityPayload() {}
func (ClearDataPayload) isActivityPayload()      {}
func (RekeyPayload) isActivityPayload()          {}

// TokenPrefix shortens a share token for display and logs. The full token is
// a bearer capability and is never recorded.
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// Activity is one entry of the activity log.
type Activity struct {
	ID      string
	At      time.Time
	Actor   string
	Payload ActivityPayload
}

// ActivityRecord is the stored form of Activity.
type ActivityRecord struct {
	ID     string          `json:"id"`
	TsMs   int64           `json:"ts"`
	Actor  string          `json:"actor"`
	Type   ActivityKind    `json:"type"`
	Detail json.RawMessage `json:"meta,omitempty"`
}

// ToRecord converts a to its storage form.
func (a *Activity) ToRecord() (ActivityRecord, error) {
	if a.Payload == nil {
		return ActivityRecord{}, fmt.Errorf("%w: activity without payload", common.ErrInvalidInput)
	}
	detail, err := json.Marshal(a.Payload)
	if err != nil {
		return ActivityRecord{}, err
	}
	return ActivityRecord{
		ID:     a.ID,
		TsMs:   a.At.UnixMilli(),
		Actor:  a.Actor,
		Type:   a.Payload.Kind(),
		Detail: detail,
	}, nil
}

// FromRecord decodes a stored activity, restoring the typed payload.
func (r ActivityRecord) FromRecord() (*Activity, error) {
	p, err := decodePayload(r.Type, r.Detail)
	if err != nil {
		return nil, err
	}
	return &Activity{
		ID:      r.ID,
		At:      time.UnixMilli(r.TsMs).UTC(),
		Actor:   r.Actor,
		Payload: p,
	}, nil
}

func decodePayload(kind ActivityKind, raw json.RawMessage) (ActivityPayload, error) {
	var p ActivityPayload
	switch kind {
	case ActivityLogin:
		p = &LoginPayload{}
	case ActivityRegister:
		p = &RegisterPayload{}
	case ActivityUpload:
		p = &UploadPayload{}
	case ActivityDownload:
		p = &DownloadPayload{}
	case ActivityDelete:
		p = &DeletePayload{}
	case ActivityShareCreate:
		p = &ShareCreatePayload{}
	case ActivityShareRevoke:
		p = &ShareRevokePayload{}
	case ActivityScanSave:
		p = &ScanSavePayload{}
	case ActivitySettingsUpdate:
		p = &SettingsUpdatePayload{}
	case ActivityClearData:
		p = &ClearDataPayload{}
	case ActivityRekey:
		p = &RekeyPayload{}
	default:
		return nil, fmt.Errorf("%w: unknown activity type %q", common.ErrInvalidInput, kind)
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("%w: activity %s payload: %v", common.ErrInvalidInput, kind, err)
		}
	}
	return deref(p), nil
}

// deref returns the payload by value so callers can switch on value types.
func deref(p ActivityPayload) ActivityPayload {
	switch v := p.(type) {
	case *LoginPayload:
		return *v
	case *RegisterPayload:
		return *v
	case *UploadPayload:
		return *v
	case *DownloadPayload:
		return *v
	case *DeletePayload:
		return *v
	case *ShareCreatePayload:
		return *v
	case *ShareRevokePayload:
		return *v
	case *ScanSavePayload:
		return *v
	case *SettingsUpdatePayload:
		return *v
	case *ClearDataPayload:
		return *v
	case *RekeyPayload:
		return *v
	}
	return p
}
