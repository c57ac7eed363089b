package correlation

import (
	"io"
	"os"

	"github.com/mailweave/mailweave/pkg/adapter"
	"github.com/mailweave/mailweave/pkg/repository"
)

// UseCase provides the correlation grouping engine: it detects which
// emails belong to the same business thread, records their membership,
// and synthesizes cluster-level decision support on demand.
type UseCase struct {
	repo       repository.Repository
	classifier adapter.Classifier
	strategy   Strategy
	output     io.Writer
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithStrategy replaces the candidate selection strategy
func WithStrategy(s Strategy) Option {
	return func(uc *UseCase) {
		uc.strategy = s
	}
}

// New creates a new correlation UseCase instance. The default candidate
// strategy is the recency pool.
func New(
	repo repository.Repository,
	classifier adapter.Classifier,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:       repo,
		classifier: classifier,
		strategy:   NewRecentStrategy(repo, defaultCandidateLimit),
		output:     os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
