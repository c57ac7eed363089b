package correlation

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"sort"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/adapter"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/utils/logging"
)

//go:embed prompt/quote.md
var quotePromptRaw string

//go:embed prompt/order.md
var orderPromptRaw string

var (
	quotePromptTmpl = template.Must(template.New("quote").Parse(quotePromptRaw))
	orderPromptTmpl = template.Must(template.New("order").Parse(orderPromptRaw))
)

var quoteSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"best_option": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"vendor": {Type: "string"},
				"price":  {Type: "number"},
				"reason": {Type: "string"},
			},
			Required: []string{"vendor", "price", "reason"},
		},
		"comparison": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"price_range": {
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"min": {Type: "number"},
						"max": {Type: "number"},
					},
					Required: []string{"min", "max"},
				},
				"vendors": {
					Type: "array",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"vendor": {Type: "string"},
							"price":  {Type: "number"},
							"pros":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
							"cons":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						},
						Required: []string{"vendor", "price"},
					},
				},
			},
			Required: []string{"price_range", "vendors"},
		},
		"recommendation": {Type: "string"},
	},
	Required: []string{"best_option", "comparison", "recommendation"},
}

var orderSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"timeline": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"date":  {Type: "string", Description: "Event date, YYYY-MM-DD"},
					"event": {Type: "string"},
				},
				Required: []string{"date", "event"},
			},
		},
		"order_status": {
			Type: "string",
			Enum: []any{"pending", "confirmed", "shipped", "delivered", "completed"},
		},
		"next_action": {Type: "string"},
		"total_value": {Type: "number"},
	},
	Required: []string{"timeline", "order_status", "next_action"},
}

// Analyze computes the decision-support analysis of a group. It returns
// nil for unknown groups, groups with fewer than two distinct members,
// and group types with no analysis defined. The result is computed fresh
// on every call.
func (u *UseCase) Analyze(ctx context.Context, groupID model.GroupID) (*model.GroupAnalysis, error) {
	recs, err := u.repo.ListCorrelationsByGroup(ctx, groupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list correlation records", goerr.V("group_id", groupID))
	}
	if len(recs) == 0 {
		return nil, nil
	}

	group := &model.CorrelationGroup{
		ID:      groupID,
		Type:    recs[0].Type,
		Subject: recs[0].Subject,
		Records: recs,
	}
	if len(group.MemberIDs()) < 2 {
		return nil, nil
	}

	emails, err := u.hydrateEmails(ctx, group.MemberIDs())
	if err != nil {
		return nil, err
	}
	if len(emails) < 2 {
		return nil, nil
	}
	group.Emails = emails

	// Dispatch on the founding record's type.
	switch group.Type {
	case model.CorrelationTypeQuote:
		return u.analyzeQuote(ctx, group)
	case model.CorrelationTypeInvoice, model.CorrelationTypeOrder:
		return u.analyzeOrder(ctx, group)
	default:
		return nil, nil
	}
}

// hydrateEmails resolves member IDs to email records. Members whose email
// no longer exists are dropped.
func (u *UseCase) hydrateEmails(ctx context.Context, ids []model.EmailID) ([]*model.Email, error) {
	logger := logging.From(ctx)

	var emails []*model.Email
	for _, id := range ids {
		email, err := u.repo.GetEmail(ctx, id)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				logger.Warn("failed to hydrate group member, skipping", "email_id", id, "error", err)
			}
			continue
		}
		emails = append(emails, email)
	}
	return emails, nil
}

func (u *UseCase) analyzeQuote(ctx context.Context, group *model.CorrelationGroup) (*model.GroupAnalysis, error) {
	var buf bytes.Buffer
	if err := quotePromptTmpl.Execute(&buf, map[string]any{
		"Subject": group.Subject,
		"Emails":  group.Emails,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute quote prompt template")
	}

	raw, err := u.classifier.Classify(ctx, buf.String(), quoteSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify quote comparison", goerr.V("group_id", group.ID))
	}

	var analysis model.QuoteAnalysis
	if err := adapter.ValidateJSON(quoteSchema, raw, &analysis); err != nil {
		logging.From(ctx).Warn("rejected malformed quote analysis", "group_id", group.ID, "error", err)
		return nil, nil
	}

	return &model.GroupAnalysis{Quote: &analysis}, nil
}

func (u *UseCase) analyzeOrder(ctx context.Context, group *model.CorrelationGroup) (*model.GroupAnalysis, error) {
	// Timeline synthesis depends on chronological input.
	emails := make([]*model.Email, len(group.Emails))
	copy(emails, group.Emails)
	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.Before(emails[j].Date)
	})

	var buf bytes.Buffer
	if err := orderPromptTmpl.Execute(&buf, map[string]any{
		"Subject": group.Subject,
		"Emails":  emails,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute order prompt template")
	}

	raw, err := u.classifier.Classify(ctx, buf.String(), orderSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify order timeline", goerr.V("group_id", group.ID))
	}

	var analysis model.OrderAnalysis
	if err := adapter.ValidateJSON(orderSchema, raw, &analysis); err != nil {
		logging.From(ctx).Warn("rejected malformed order analysis", "group_id", group.ID, "error", err)
		return nil, nil
	}

	return &model.GroupAnalysis{Order: &analysis}, nil
}
