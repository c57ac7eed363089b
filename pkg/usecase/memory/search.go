package memory

import (
	"context"
	"math"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

// Result is one search hit with its similarity score
type Result struct {
	Document *model.Document
	Score    float64
}

// Search embeds the query and ranks the owner's documents by cosine
// similarity, descending. Ties are broken by insertion order: the
// earlier-indexed document ranks first. Documents of other owners are
// never returned.
func (u *UseCase) Search(
	ctx context.Context,
	query string,
	ownerID model.OwnerID,
	limit int,
) ([]*Result, error) {
	queryVec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	docs, err := u.repo.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V("owner_id", ownerID))
	}

	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, &Result{
			Document: doc,
			Score:    cosineSimilarity(queryVec, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.Seq < results[j].Document.Seq
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// cosineSimilarity returns dot(a,b)/(|a|*|b|). Vectors of different
// lengths are not comparable and score 0.
func cosineSimilarity(a, b firestore.Vector32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
