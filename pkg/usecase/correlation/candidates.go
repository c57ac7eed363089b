package correlation

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/repository"
	"github.com/mailweave/mailweave/pkg/usecase/memory"
)

const defaultCandidateLimit = 50

// Strategy selects the bounded candidate pool considered when detecting
// correlations for a new email. The returned pool never contains the
// email itself.
type Strategy interface {
	Candidates(ctx context.Context, email *model.Email) ([]*model.Email, error)
}

// RecentStrategy picks the owner's most recent emails. It is a cheap,
// recency-biased heuristic that favors active threads over old ones.
type RecentStrategy struct {
	repo  repository.Repository
	limit int
}

func NewRecentStrategy(repo repository.Repository, limit int) *RecentStrategy {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	return &RecentStrategy{repo: repo, limit: limit}
}

func (s *RecentStrategy) Candidates(ctx context.Context, email *model.Email) ([]*model.Email, error) {
	// Fetch one extra so the pool stays full when the new email itself is
	// among the most recent.
	emails, err := s.repo.ListRecentEmails(ctx, email.OwnerID, s.limit+1)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent emails", goerr.V("owner_id", email.OwnerID))
	}

	candidates := make([]*model.Email, 0, len(emails))
	for _, e := range emails {
		if e.ID == email.ID {
			continue
		}
		candidates = append(candidates, e)
	}

	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}
	return candidates, nil
}

// SemanticStrategy picks candidates by vector similarity against the
// memory store, so older but topically close threads stay reachable.
type SemanticStrategy struct {
	mem   *memory.UseCase
	repo  repository.Repository
	limit int
}

func NewSemanticStrategy(mem *memory.UseCase, repo repository.Repository, limit int) *SemanticStrategy {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	return &SemanticStrategy{mem: mem, repo: repo, limit: limit}
}

func (s *SemanticStrategy) Candidates(ctx context.Context, email *model.Email) ([]*model.Email, error) {
	// Fetch one extra in case the email's own document is among the hits.
	results, err := s.mem.Search(ctx, email.IndexText(), email.OwnerID, s.limit+1)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search candidate documents")
	}

	var candidates []*model.Email
	for _, r := range results {
		meta := r.Document.Metadata
		if meta.Kind != model.DocumentKindEmail || meta.SourceEmailID == "" || meta.SourceEmailID == email.ID {
			continue
		}
		candidate, err := s.repo.GetEmail(ctx, meta.SourceEmailID)
		if err != nil {
			// Indexed document whose source email is gone; not a candidate.
			continue
		}
		candidates = append(candidates, candidate)
		if len(candidates) >= s.limit {
			break
		}
	}

	return candidates, nil
}
