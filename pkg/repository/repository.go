package repository

import (
	"context"

	"github.com/mailweave/mailweave/pkg/model"
)

// Repository defines the interface for document, email and correlation
// persistence
type Repository interface {
	// PutDocument saves a document, overwriting the key if it exists. The
	// insertion sequence is assigned on first write and kept on overwrite.
	PutDocument(ctx context.Context, doc *model.Document) error

	// GetDocument retrieves a document by ID
	GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error)

	// ListDocuments retrieves all documents of an owner, in no particular order
	ListDocuments(ctx context.Context, ownerID model.OwnerID) ([]*model.Document, error)

	// DeleteDocument removes a document by ID
	DeleteDocument(ctx context.Context, id model.DocumentID) error

	// PutEmail saves a raw email record
	PutEmail(ctx context.Context, email *model.Email) error

	// GetEmail retrieves an email by ID
	GetEmail(ctx context.Context, id model.EmailID) (*model.Email, error)

	// ListRecentEmails retrieves the most recent emails of an owner, newest
	// first, capped at limit
	ListRecentEmails(ctx context.Context, ownerID model.OwnerID, limit int) ([]*model.Email, error)

	// AppendCorrelation appends one correlation record. Records are
	// append-only and never rewritten; no uniqueness is enforced on
	// (GroupID, EmailID).
	AppendCorrelation(ctx context.Context, rec *model.CorrelationRecord) error

	// FindCorrelation returns the earliest record of the given email and
	// type, or nil if none exists
	FindCorrelation(ctx context.Context, emailID model.EmailID, corrType model.CorrelationType) (*model.CorrelationRecord, error)

	// ListCorrelationsByGroup retrieves all records of a group in append order
	ListCorrelationsByGroup(ctx context.Context, groupID model.GroupID) ([]*model.CorrelationRecord, error)

	// ListCorrelationsByOwner retrieves all records touching an owner's
	// emails in append order
	ListCorrelationsByOwner(ctx context.Context, ownerID model.OwnerID) ([]*model.CorrelationRecord, error)
}
