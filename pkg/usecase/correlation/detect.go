package correlation

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/adapter"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/utils/logging"
)

//go:embed prompt/detect.md
var detectPromptRaw string

var detectPromptTmpl = template.Must(template.New("detect").Parse(detectPromptRaw))

var detectSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"proposals": {
			Type:        "array",
			Description: "Correlations between the new email and candidate emails",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"related_email_id": {
						Type:        "string",
						Description: "ID of the candidate email the new email correlates with",
					},
					"correlation_type": {
						Type: "string",
						Enum: []any{"quote", "invoice", "order", "inquiry", "response"},
					},
					"subject": {
						Type:        "string",
						Description: "Human-readable label for the business thread",
					},
					"confidence": {
						Type:        "number",
						Description: "Confidence of the correlation, 0 to 1",
					},
					"quote": {
						Type:        "object",
						Description: "Quote details from the new email, for quote correlations",
						Properties: map[string]*jsonschema.Schema{
							"price":   {Type: "number"},
							"vendor":  {Type: "string"},
							"product": {Type: "string"},
							"notes":   {Type: "string"},
						},
					},
					"order": {
						Type:        "object",
						Description: "Order details from the new email, for invoice/order correlations",
						Properties: map[string]*jsonschema.Schema{
							"order_number": {Type: "string"},
							"amount":       {Type: "number"},
							"status":       {Type: "string"},
							"notes":        {Type: "string"},
						},
					},
				},
				Required: []string{"related_email_id", "correlation_type", "subject", "confidence"},
			},
		},
	},
	Required: []string{"proposals"},
}

type detectResponse struct {
	Proposals []struct {
		RelatedEmailID string               `json:"related_email_id"`
		Type           string               `json:"correlation_type"`
		Subject        string               `json:"subject"`
		Confidence     float64              `json:"confidence"`
		Quote          *model.QuoteMetadata `json:"quote"`
		Order          *model.OrderMetadata `json:"order"`
	} `json:"proposals"`
}

// Detect asks the classifier whether the email belongs to a business
// thread with any email of the candidate pool, and records the resulting
// memberships. An existing group of the proposed (related email, type)
// pair is reused; otherwise a new group is minted and a seed record for
// the related email guarantees it starts with two members.
//
// Re-running Detect against an unchanged pool resolves to the same group
// IDs, but appends duplicate membership rows; readers de-duplicate.
func (u *UseCase) Detect(ctx context.Context, email *model.Email) ([]*model.CorrelationRecord, error) {
	logger := logging.From(ctx)

	candidates, err := u.strategy.Candidates(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := detectPromptTmpl.Execute(&buf, map[string]any{
		"Email":      email,
		"Candidates": candidates,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute detect prompt template")
	}

	raw, err := u.classifier.Classify(ctx, buf.String(), detectSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify correlations", goerr.V("email_id", email.ID))
	}

	var resp detectResponse
	if err := adapter.ValidateJSON(detectSchema, raw, &resp); err != nil {
		logger.Warn("rejected malformed classifier output, treating as no proposals",
			"email_id", email.ID, "error", err)
		return nil, nil
	}

	pool := make(map[model.EmailID]bool, len(candidates))
	for _, c := range candidates {
		pool[c.ID] = true
	}

	var created []*model.CorrelationRecord
	for _, p := range resp.Proposals {
		corrType := model.CorrelationType(p.Type)
		if err := corrType.Validate(); err != nil || corrType == model.CorrelationTypeManual {
			logger.Warn("skipping proposal with invalid correlation type", "type", p.Type)
			continue
		}
		relatedID := model.EmailID(p.RelatedEmailID)
		if !pool[relatedID] {
			logger.Warn("skipping proposal for email outside the candidate pool", "related_email_id", relatedID)
			continue
		}

		existing, err := u.repo.FindCorrelation(ctx, relatedID, corrType)
		if err != nil {
			return created, goerr.Wrap(err, "failed to look up existing correlation", goerr.V("email_id", relatedID))
		}

		groupID := model.NewGroupID()
		if existing != nil {
			groupID = existing.GroupID
		}

		now := time.Now()
		rec := &model.CorrelationRecord{
			GroupID:    groupID,
			EmailID:    email.ID,
			OwnerID:    email.OwnerID,
			Type:       corrType,
			Subject:    p.Subject,
			Confidence: clampConfidence(p.Confidence),
			Metadata:   model.CorrelationMetadata{Quote: p.Quote, Order: p.Order},
			CreatedAt:  now,
		}
		if err := u.repo.AppendCorrelation(ctx, rec); err != nil {
			return created, goerr.Wrap(err, "failed to append correlation record", goerr.V("group_id", groupID))
		}
		created = append(created, rec)

		// A group is never born as a singleton: the related email gets a
		// seed record when it had no group of this type yet.
		if existing == nil {
			seed := &model.CorrelationRecord{
				GroupID:    groupID,
				EmailID:    relatedID,
				OwnerID:    email.OwnerID,
				Type:       corrType,
				Subject:    p.Subject,
				Confidence: clampConfidence(p.Confidence),
				CreatedAt:  now,
			}
			if err := u.repo.AppendCorrelation(ctx, seed); err != nil {
				return created, goerr.Wrap(err, "failed to append seed record", goerr.V("group_id", groupID))
			}
			created = append(created, seed)
		}
	}

	return created, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
