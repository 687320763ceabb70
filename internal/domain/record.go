package domain

import (
	"io"
	"strings"
	"time"
)

// Defaults applied at delivery time when a record predates the metadata fields.
const (
	DefaultFilename = "document.pdf"
	DefaultMimeType = "application/pdf"
)

// Record is one per-email entry in the records table. The document bytes
// themselves live in S3 under DocKey; the record only carries metadata.
// At most one record exists per normalized email.
type Record struct {
	Email     string    `json:"email" dynamodbav:"email"`
	DocKey    string    `json:"doc_key,omitempty" dynamodbav:"doc_key"`
	Filename  string    `json:"filename" dynamodbav:"filename"`
	MimeType  string    `json:"mime_type" dynamodbav:"mime_type"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Attachment is an outbound email attachment streamed from the object store.
type Attachment struct {
	Filename string
	MimeType string
	Content  io.Reader
}

// NormalizeEmail lowercases an address for use as a ledger/record key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
