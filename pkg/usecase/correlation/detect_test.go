package correlation_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/usecase/correlation"
)

func TestDetectCreatesGroupWithSeed(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		proposalsJSON("e1", "quote", "Flooring quotes", 0.9),
	}}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(2)

	// Same freshly minted group for both the new email and the seed.
	gt.Equal(t, records[0].EmailID, model.EmailID("e2"))
	gt.Equal(t, records[1].EmailID, model.EmailID("e1"))
	gt.Equal(t, records[0].GroupID, records[1].GroupID)
	gt.Equal(t, records[0].Type, model.CorrelationTypeQuote)

	// A group is never born as a singleton.
	recs, err := repo.ListCorrelationsByGroup(ctx, records[0].GroupID)
	gt.NoError(t, err)
	gt.A(t, recs).Length(2)
}

func TestDetectReusesExistingGroup(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-2*time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now.Add(-time.Hour))
	e3 := storeEmail(t, repo, "e3", "u1", "Quote from Gamma", "sales@gamma.example", "Price: 480", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		proposalsJSON("e1", "quote", "Flooring quotes", 0.9),
		proposalsJSON("e1", "quote", "Flooring quotes", 0.8),
	}}
	uc := correlation.New(repo, classifier)

	first, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, first).Length(2)
	groupID := first[0].GroupID

	second, err := uc.Detect(ctx, e3)
	gt.NoError(t, err)
	gt.A(t, second).Length(1) // e1 already has a quote group, no new seed

	gt.Equal(t, second[0].GroupID, groupID)
	gt.Equal(t, second[0].EmailID, model.EmailID("e3"))
}

func TestDetectIdempotentGroupResolution(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		proposalsJSON("e1", "quote", "Flooring quotes", 0.9),
		proposalsJSON("e1", "quote", "Flooring quotes", 0.9),
	}}
	uc := correlation.New(repo, classifier)

	first, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	second, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)

	// Same group on re-run; the log accumulates duplicate rows but the
	// de-duplicated membership stays at two.
	gt.Equal(t, second[0].GroupID, first[0].GroupID)

	recs, err := repo.ListCorrelationsByGroup(ctx, first[0].GroupID)
	gt.NoError(t, err)
	gt.A(t, recs).Length(3)

	group := &model.CorrelationGroup{Records: recs}
	gt.A(t, group.MemberIDs()).Length(2)
}

func TestDetectMalformedOutputMeansNoProposals(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		json.RawMessage(`this is not json`),
	}}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)

	recs, err := repo.ListCorrelationsByOwner(ctx, "u1")
	gt.NoError(t, err)
	gt.A(t, recs).Length(0)
}

func TestDetectSchemaViolationMeansNoProposals(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	// proposals present but an entry misses required fields
	classifier := &mockClassifier{responses: []json.RawMessage{
		json.RawMessage(`{"proposals": [{"related_email_id": "e1"}]}`),
	}}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestDetectSkipsProposalOutsidePool(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		proposalsJSON("hallucinated", "quote", "Flooring quotes", 0.9),
	}}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestDetectNoCandidatesSkipsClassifier(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	e1 := storeEmail(t, repo, "e1", "u1", "First ever email", "a@example.com", "hello", time.Now())

	classifier := &mockClassifier{}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e1)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
	gt.A(t, classifier.prompts).Length(0)
}

func TestDetectScopesCandidatesToOwner(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "other", "u2", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{}
	uc := correlation.New(repo, classifier)

	// The only other email belongs to another owner: empty pool, no call.
	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
	gt.A(t, classifier.prompts).Length(0)
}
