package memory

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

// Index embeds text and upserts the document keyed by (kind, sourceID).
// Re-indexing the same source overwrites the existing document. If the
// embedding call fails nothing is written.
func (u *UseCase) Index(
	ctx context.Context,
	kind model.DocumentKind,
	sourceID string,
	text string,
	meta model.DocumentMetadata,
) (*model.Document, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if sourceID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "source ID is empty")
	}

	embedding, err := u.embedder.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed document text", goerr.V("source_id", sourceID))
	}

	meta.Kind = kind
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	doc := &model.Document{
		ID:        model.NewDocumentID(kind, sourceID),
		Text:      text,
		Embedding: embedding,
		Metadata:  meta,
	}

	if err := u.repo.PutDocument(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put document", goerr.V("id", doc.ID))
	}

	return doc, nil
}

// IndexEmail indexes a raw email record as an email document. The indexed
// text is the subject concatenated with the body.
func (u *UseCase) IndexEmail(ctx context.Context, email *model.Email) (*model.Document, error) {
	return u.Index(ctx, model.DocumentKindEmail, string(email.ID), email.IndexText(), model.DocumentMetadata{
		OwnerID:       email.OwnerID,
		SourceEmailID: email.ID,
		Subject:       email.Subject,
		Sender:        email.Sender,
	})
}
