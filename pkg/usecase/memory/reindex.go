package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/utils/logging"
)

// ReindexAll re-embeds and re-upserts every document of an owner. The
// sweep is at-least-once and non-transactional: a failure on one document
// is logged and skipped, never aborting the remaining documents. Returns
// the number of documents successfully reindexed.
func (u *UseCase) ReindexAll(ctx context.Context, ownerID model.OwnerID) (int, error) {
	docs, err := u.repo.ListDocuments(ctx, ownerID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list documents", goerr.V("owner_id", ownerID))
	}

	logger := logging.From(ctx)
	count := 0
	for _, doc := range docs {
		embedding, err := u.embedder.Embed(ctx, doc.Text)
		if err != nil {
			logger.Warn("failed to re-embed document, skipping", "id", doc.ID, "error", err)
			continue
		}

		doc.Embedding = embedding
		if err := u.repo.PutDocument(ctx, doc); err != nil {
			logger.Warn("failed to re-upsert document, skipping", "id", doc.ID, "error", err)
			continue
		}
		count++
	}

	return count, nil
}
