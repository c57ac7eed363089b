package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNotFound   = goerr.New("not found")
	ErrValidation = goerr.New("validation failed")
)

type OwnerID string

type DocumentID string

// NewDocumentID derives the document key from its source. The key is
// deterministic so re-indexing the same source overwrites instead of
// duplicating.
func NewDocumentID(kind DocumentKind, sourceID string) DocumentID {
	return DocumentID(fmt.Sprintf("%s-%s", kind, sourceID))
}

type DocumentKind string

const (
	DocumentKindEmail        DocumentKind = "email"
	DocumentKindNote         DocumentKind = "note"
	DocumentKindConversation DocumentKind = "conversation"
)

// Validate checks if the document kind is valid
func (k DocumentKind) Validate() error {
	switch k {
	case DocumentKindEmail, DocumentKindNote, DocumentKindConversation:
		return nil
	default:
		return goerr.Wrap(ErrValidation, "invalid document kind", goerr.V("kind", k))
	}
}

// Document is one embedded, searchable text artifact (an email, a manual
// note, or a conversation transcript).
type Document struct {
	ID        DocumentID
	Text      string
	Embedding firestore.Vector32
	Metadata  DocumentMetadata

	// Seq is the insertion order of the document, assigned when the key is
	// first written and kept across overwrites. Search uses it to break
	// score ties.
	Seq int64
}

type DocumentMetadata struct {
	Kind          DocumentKind
	OwnerID       OwnerID
	SourceEmailID EmailID
	Subject       string
	Sender        string
	Category      string
	CreatedAt     time.Time
}
