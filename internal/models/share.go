package models

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
)

// ShareState is the lifecycle state of a share token.
type ShareState string

const (
	ShareStateRedeemable ShareState = "redeemable"
	ShareStateRevoked    ShareState = "revoked"
)

// ShareKind tells how a share is redeemed.
type ShareKind string

const (
	// ShareKindPassword snapshots the owner-key ciphertext; redeeming requires
	// the owner's credentials.
	ShareKindPassword ShareKind = "password"
	// ShareKindSealed re-encrypts the document under a per-share key wrapped
	// to a recipient public key.
	ShareKindSealed ShareKind = "sealed"
)

// Share maps a token to a point-in-time snapshot of one document.
// Document is nil once the share is revoked.
type Share struct {
	Token      string
	Kind       ShareKind
	State      ShareState
	Owner      string
	DocumentID string
	CreatedAt  time.Time
	RevokedAt  time.Time
	Document   *Document
	WrappedKey *cryptox.WrappedKey
}

// ShareRecord is the stored form of Share.
type ShareRecord struct {
	Token            string          `json:"token"`
	Kind             ShareKind       `json:"kind"`
	State            ShareState      `json:"state"`
	Owner            string          `json:"owner"`
	DocumentID       string          `json:"documentId"`
	CreatedAtEpochMs int64           `json:"createdAtEpochMs"`
	RevokedAtEpochMs int64           `json:"revokedAtEpochMs,omitempty"`
	Document         *DocumentRecord `json:"document,omitempty"`
	KEMCiphertextB64 string          `json:"kemCiphertextB64,omitempty"`
	WrapNonceB64     string          `json:"wrapNonceB64,omitempty"`
	WrappedKeyB64    string          `json:"wrappedKeyB64,omitempty"`
}

// ToRecord converts s to its storage form.
func (s *Share) ToRecord() ShareRecord {
	r := ShareRecord{
		Token:            s.Token,
		Kind:             s.Kind,
		State:            s.State,
		Owner:            s.Owner,
		DocumentID:       s.DocumentID,
		CreatedAtEpochMs: s.CreatedAt.UnixMilli(),
	}
	if !s.RevokedAt.IsZero() {
		r.RevokedAtEpochMs = s.RevokedAt.UnixMilli()
	}
	if s.Document != nil {
		dr := s.Document.ToRecord()
		r.Document = &dr
	}
	if s.WrappedKey != nil {
		r.KEMCiphertextB64 = base64.StdEncoding.EncodeToString(s.WrappedKey.KEMCiphertext)
		r.WrapNonceB64 = base64.StdEncoding.EncodeToString(s.WrappedKey.Nonce)
		r.WrappedKeyB64 = base64.StdEncoding.EncodeToString(s.WrappedKey.Ciphertext)
	}
	return r
}

// FromRecord decodes a stored share.
func (r ShareRecord) FromRecord() (*Share, error) {
	s := &Share{
		Token:      r.Token,
		Kind:       r.Kind,
		State:      r.State,
		Owner:      r.Owner,
		DocumentID: r.DocumentID,
		CreatedAt:  time.UnixMilli(r.CreatedAtEpochMs).UTC(),
	}
	if s.Kind == "" {
		s.Kind = ShareKindPassword
	}
	if r.RevokedAtEpochMs != 0 {
		s.RevokedAt = time.UnixMilli(r.RevokedAtEpochMs).UTC()
	}
	if r.Document != nil {
		d, err := r.Document.FromRecord()
		if err != nil {
			return nil, err
		}
		s.Document = d
	}
	if r.WrappedKeyB64 != "" {
		var (
			w   cryptox.WrappedKey
			err error
		)
		if w.KEMCiphertext, err = base64.StdEncoding.DecodeString(r.KEMCiphertextB64); err != nil {
			return nil, fmt.Errorf("%w: share kem ciphertext: %v", common.ErrInvalidInput, err)
		}
		if w.Nonce, err = base64.StdEncoding.DecodeString(r.WrapNonceB64); err != nil {
			return nil, fmt.Errorf("%w: share wrap nonce: %v", common.ErrInvalidInput, err)
		}
		if w.Ciphertext, err = base64.StdEncoding.DecodeString(r.WrappedKeyB64); err != nil {
			return nil, fmt.Errorf("%w: share wrapped key: %v", common.ErrInvalidInput, err)
		}
		s.WrappedKey = &w
	}
	return s, nil
}

// ShareLinkFragment returns the URL fragment that carries token.
func ShareLinkFragment(token string) string {
	return "#share?" + url.Values{"token": {token}}.Encode()
}

// ShareLink joins base (origin + path) with the fragment for token.
func ShareLink(base, token string) string {
	return strings.TrimSuffix(base, "#") + ShareLinkFragment(token)
}

// ParseShareLink extracts the token from a full link, a bare fragment or the
// query part alone.
func ParseShareLink(link string) (string, error) {
	s := link
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[i+1:]
	}
	q, err := url.ParseQuery(s)
	if err != nil {
		return "", fmt.Errorf("%w: share link: %v", common.ErrInvalidInput, err)
	}
	t := q.Get("token")
	if t == "" {
		return "", fmt.Errorf("%w: share link has no token", common.ErrInvalidInput)
	}
	return t, nil
}
