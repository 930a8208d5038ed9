package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// Category is the vault folder a document is filed under.
type Category string

const (
	CategoryIdentification Category = "Identification"
	CategoryInsurance      Category = "Insurance"
	CategoryLegal          Category = "Legal"
	CategoryFinancial      Category = "Financial"
	CategoryOther          Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryIdentification, CategoryInsurance, CategoryLegal, CategoryFinancial, CategoryOther,
}

// DocType is the coarse file type tag of a document.
type DocType string

const (
	DocTypePDF          DocType = "PDF"
	DocTypeImage        DocType = "Image"
	DocTypeDocument     DocType = "Document"
	DocTypeSpreadsheet  DocType = "Spreadsheet"
	DocTypePresentation DocType = "Presentation"
	DocTypeOther        DocType = "Other"
)

// DocTypes lists every document type in display order.
var DocTypes = []DocType{
	DocTypePDF, DocTypeImage, DocTypeDocument, DocTypeSpreadsheet, DocTypePresentation, DocTypeOther,
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, s)
}

// ParseDocType matches s case-insensitively against the known document types.
func ParseDocType(s string) (DocType, error) {
	for _, d := range DocTypes {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown document type %q", common.ErrInvalidInput, s)
}

// Extensions returns the file extensions accepted for d. DocTypeOther
// accepts anything and returns nil.
func (d DocType) Extensions() []string {
	switch d {
	case DocTypePDF:
		return []string{".pdf"}
	case DocTypeImage:
		return []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".tiff"}
	case DocTypeDocument:
		return []string{".doc", ".docx", ".odt", ".rtf", ".txt", ".md", ".pdf"}
	case DocTypeSpreadsheet:
		return []string{".xls", ".xlsx", ".ods", ".csv"}
	case DocTypePresentation:
		return []string{".ppt", ".pptx", ".odp", ".pdf"}
	default:
		return nil
	}
}

// Accepts reports whether filename has an extension allowed for d.
func (d DocType) Accepts(filename string) bool {
	exts := d.Extensions()
	if exts == nil {
		return true
	}
	lower := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// Document is an encrypted vault document. Ciphertext is the AES-GCM sealing
// of the original bytes under the owner's key with Nonce.
type Document struct {
	ID         string
	Owner      string
	Filename   string
	Size       int64
	Category   Category
	DocType    DocType
	CreatedAt  time.Time
	Nonce      []byte
	Ciphertext []byte
}

// DocumentRecord is the stored form of Document.
type DocumentRecord struct {
	ID               string   `json:"id"`
	Owner            string   `json:"owner"`
	Filename         string   `json:"filename"`
	SizeBytes        int64    `json:"sizeBytes"`
	Category         Category `json:"category"`
	DocType          DocType  `json:"docType"`
	CreatedAtEpochMs int64    `json:"createdAtEpochMs"`
	NonceB64         string   `json:"nonceB64"`
	CiphertextB64    string   `json:"ciphertextB64"`
}

// ToRecord converts d to its storage form.
func (d *Document) ToRecord() DocumentRecord {
	return DocumentRecord{
		ID:               d.ID,
		Owner:            d.Owner,
		Filename:         d.Filename,
		SizeBytes:        d.Size,
		Category:         d.Category,
		DocType:          d.DocType,
		CreatedAtEpochMs: d.CreatedAt.UnixMilli(),
		NonceB64:         base64.StdEncoding.EncodeToString(d.Nonce),
		CiphertextB64:    base64.StdEncoding.EncodeToString(d.Ciphertext),
	}
}

// FromRecord decodes a stored document.
func (r DocumentRecord) FromRecord() (*Document, error) {
	nonce, err := base64.StdEncoding.DecodeString(r.NonceB64)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s nonce: %v", common.ErrInvalidInput, r.ID, err)
	}
	ct, err := base64.StdEncoding.DecodeString(r.CiphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s ciphertext: %v", common.ErrInvalidInput, r.ID, err)
	}
	return &Document{
		ID:         r.ID,
		Owner:      r.Owner,
		Filename:   r.Filename,
		Size:       r.SizeBytes,
		Category:   r.Category,
		DocType:    r.DocType,
		CreatedAt:  time.UnixMilli(r.CreatedAtEpochMs).UTC(),
		Nonce:      nonce,
		Ciphertext: ct,
	}, nil
}

// DocumentView is the metadata of a document without its ciphertext.
type DocumentView struct {
	ID        string
	Filename  string
	Size      int64
	Category  Category
	DocType   DocType
	CreatedAt time.Time
}

// View strips the encrypted payload from d.
func (d *Document) View() DocumentView {
	return DocumentView{
		ID: d.ID, Filename: d.Filename, Size: d.Size,
		Category: d.Category, DocType: d.DocType, CreatedAt: d.CreatedAt,
	}
}
