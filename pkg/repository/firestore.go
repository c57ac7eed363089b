package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collDocuments    = "documents"
	collEmails       = "emails"
	collCorrelations = "correlations"
	collCounters     = "counters"
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close closes the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutDocument(ctx context.Context, doc *model.Document) error {
	ref := r.client.Collection(collDocuments).Doc(string(doc.ID))
	counter := r.client.Collection(collCounters).Doc(collDocuments)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing model.Document
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode existing document")
			}
			doc.Seq = existing.Seq

		case status.Code(err) == codes.NotFound:
			next := int64(1)
			cnt, err := tx.Get(counter)
			if err == nil {
				v, err := cnt.DataAt("value")
				if err != nil {
					return goerr.Wrap(err, "failed to read document counter")
				}
				if n, ok := v.(int64); ok {
					next = n + 1
				}
			} else if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get document counter")
			}
			doc.Seq = next
			if err := tx.Set(counter, map[string]any{"value": next}); err != nil {
				return goerr.Wrap(err, "failed to update document counter")
			}

		default:
			return goerr.Wrap(err, "failed to get document")
		}

		return tx.Set(ref, doc)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("id", doc.ID))
	}

	return nil
}

func (r *Firestore) GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	snap, err := r.client.Collection(collDocuments).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "document not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	var doc model.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document", goerr.V("id", id))
	}

	return &doc, nil
}

func (r *Firestore) ListDocuments(ctx context.Context, ownerID model.OwnerID) ([]*model.Document, error) {
	iter := r.client.Collection(collDocuments).
		Where("Metadata.OwnerID", "==", string(ownerID)).
		Documents(ctx)
	defer iter.Stop()

	var docs []*model.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		var doc model.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document")
		}
		docs = append(docs, &doc)
	}

	return docs, nil
}

func (r *Firestore) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	if _, err := r.client.Collection(collDocuments).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("id", id))
	}
	return nil
}

func (r *Firestore) PutEmail(ctx context.Context, email *model.Email) error {
	if _, err := r.client.Collection(collEmails).Doc(string(email.ID)).Set(ctx, email); err != nil {
		return goerr.Wrap(err, "failed to put email", goerr.V("id", email.ID))
	}
	return nil
}

func (r *Firestore) GetEmail(ctx context.Context, id model.EmailID) (*model.Email, error) {
	snap, err := r.client.Collection(collEmails).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "email not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get email", goerr.V("id", id))
	}

	var email model.Email
	if err := snap.DataTo(&email); err != nil {
		return nil, goerr.Wrap(err, "failed to decode email", goerr.V("id", id))
	}

	return &email, nil
}

func (r *Firestore) ListRecentEmails(ctx context.Context, ownerID model.OwnerID, limit int) ([]*model.Email, error) {
	iter := r.client.Collection(collEmails).
		Where("OwnerID", "==", string(ownerID)).
		OrderBy("Date", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var emails []*model.Email
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate emails")
		}

		var email model.Email
		if err := snap.DataTo(&email); err != nil {
			return nil, goerr.Wrap(err, "failed to decode email")
		}
		emails = append(emails, &email)
	}

	return emails, nil
}

func (r *Firestore) AppendCorrelation(ctx context.Context, rec *model.CorrelationRecord) error {
	if _, _, err := r.client.Collection(collCorrelations).Add(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to append correlation record",
			goerr.V("group_id", rec.GroupID), goerr.V("email_id", rec.EmailID))
	}
	return nil
}

func (r *Firestore) FindCorrelation(ctx context.Context, emailID model.EmailID, corrType model.CorrelationType) (*model.CorrelationRecord, error) {
	recs, err := r.queryCorrelations(ctx, r.client.Collection(collCorrelations).
		Where("EmailID", "==", string(emailID)).
		Where("Type", "==", string(corrType)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func (r *Firestore) ListCorrelationsByGroup(ctx context.Context, groupID model.GroupID) ([]*model.CorrelationRecord, error) {
	return r.queryCorrelations(ctx, r.client.Collection(collCorrelations).
		Where("GroupID", "==", string(groupID)))
}

func (r *Firestore) ListCorrelationsByOwner(ctx context.Context, ownerID model.OwnerID) ([]*model.CorrelationRecord, error) {
	return r.queryCorrelations(ctx, r.client.Collection(collCorrelations).
		Where("OwnerID", "==", string(ownerID)))
}

// queryCorrelations runs a correlation query and returns records sorted by
// CreatedAt ascending. Sorting happens client-side so the queries do not
// require composite indexes.
func (r *Firestore) queryCorrelations(ctx context.Context, q firestore.Query) ([]*model.CorrelationRecord, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var recs []*model.CorrelationRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate correlation records")
		}

		var rec model.CorrelationRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode correlation record")
		}
		recs = append(recs, &rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	return recs, nil
}
