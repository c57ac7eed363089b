package memory

import (
	"io"
	"os"

	"github.com/mailweave/mailweave/pkg/adapter"
	"github.com/mailweave/mailweave/pkg/repository"
)

// UseCase provides the owner-scoped semantic memory store: an index of
// embedded documents supporting upsert, delete, enumeration and top-K
// similarity search.
type UseCase struct {
	repo     repository.Repository
	embedder adapter.Embedder
	output   io.Writer
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// New creates a new memory UseCase instance
func New(
	repo repository.Repository,
	embedder adapter.Embedder,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:     repo,
		embedder: embedder,
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
