package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

// GetAll retrieves all documents of an owner, newest first
func (u *UseCase) GetAll(ctx context.Context, ownerID model.OwnerID) ([]*model.Document, error) {
	docs, err := u.repo.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V("owner_id", ownerID))
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Metadata.CreatedAt.After(docs[j].Metadata.CreatedAt)
	})

	return docs, nil
}

// Delete removes a document by ID
func (u *UseCase) Delete(ctx context.Context, id model.DocumentID) error {
	if err := u.repo.DeleteDocument(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("id", id))
	}
	return nil
}
