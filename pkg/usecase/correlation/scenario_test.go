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

// Two competing quotes plus one unrelated email: detection groups the
// quotes, analysis picks the cheaper vendor, and the unrelated email
// stays out of the group.
func TestQuoteComparisonScenario(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "E1", "owner", "Quote from Acme", "sales@acme.example",
		"Flooring quote: £500 including delivery", now.Add(-2*time.Hour))
	storeEmail(t, repo, "E3", "owner", "Re: flooring order, thanks", "customer@example.com",
		"Thanks for sorting the order out!", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "E2", "owner", "Quote from Beta", "sales@beta.example",
		"We can do the flooring for £420", now)

	detectResp, _ := json.Marshal(map[string]any{
		"proposals": []map[string]any{
			{
				"related_email_id": "E1",
				"correlation_type": "quote",
				"subject":          "Flooring quotes",
				"confidence":       0.92,
				"quote":            map[string]any{"price": 420, "vendor": "Beta", "product": "flooring"},
			},
		},
	})

	classifier := &mockClassifier{responses: []json.RawMessage{
		json.RawMessage(detectResp),
		quoteAnalysisJSON(),
	}}
	uc := correlation.New(repo, classifier)

	records, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)
	gt.A(t, records).Length(2)
	groupID := records[0].GroupID

	// The group holds exactly E1 and E2.
	group, err := uc.GetGroup(ctx, groupID)
	gt.NoError(t, err)
	gt.V(t, group).NotNil()
	members := group.MemberIDs()
	gt.A(t, members).Length(2)
	for _, id := range members {
		if id != "E1" && id != "E2" {
			t.Errorf("unexpected group member: %s", id)
		}
	}

	gt.V(t, group.Analysis).NotNil()
	gt.V(t, group.Analysis.Quote).NotNil()
	gt.Equal(t, group.Analysis.Quote.BestOption.Vendor, "Beta")
	gt.Equal(t, group.Analysis.Quote.Comparison.PriceRange.Min, 420.0)
	gt.Equal(t, group.Analysis.Quote.Comparison.PriceRange.Max, 500.0)

	// E3 belongs to no group.
	recs, err := repo.ListCorrelationsByOwner(ctx, "owner")
	gt.NoError(t, err)
	for _, rec := range recs {
		if rec.EmailID == "E3" {
			t.Errorf("E3 must not be correlated, found in group %s", rec.GroupID)
		}
	}
}

func TestListGroups(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	storeEmail(t, repo, "e1", "u1", "Quote from Acme", "sales@acme.example", "Price: 500", now.Add(-time.Hour))
	e2 := storeEmail(t, repo, "e2", "u1", "Quote from Beta", "sales@beta.example", "Price: 420", now)

	classifier := &mockClassifier{responses: []json.RawMessage{
		proposalsJSON("e1", "quote", "Flooring quotes", 0.9),
		quoteAnalysisJSON(), // consumed by the ListGroups analysis pass
	}}
	uc := correlation.New(repo, classifier)

	_, err := uc.Detect(ctx, e2)
	gt.NoError(t, err)

	groups, err := uc.ListGroups(ctx, "u1")
	gt.NoError(t, err)
	gt.A(t, groups).Length(1)
	gt.Equal(t, groups[0].Type, model.CorrelationTypeQuote)
	gt.Equal(t, groups[0].Subject, "Flooring quotes")
	gt.A(t, groups[0].Emails).Length(2)
	gt.V(t, groups[0].Analysis).NotNil()
}
