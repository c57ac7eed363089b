package correlation_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/repository"
)

// mockClassifier replays canned JSON responses in order
type mockClassifier struct {
	responses []json.RawMessage
	prompts   []string
	err       error
}

func (m *mockClassifier) Classify(ctx context.Context, prompt string, schema *jsonschema.Schema) (json.RawMessage, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, goerr.New("mock classifier has no response left")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func newRepo(t *testing.T) repository.Repository {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)
	return repo
}

func storeEmail(t *testing.T, repo repository.Repository, id, owner, subject, sender, body string, date time.Time) *model.Email {
	email := &model.Email{
		ID:        model.EmailID(id),
		OwnerID:   model.OwnerID(owner),
		Subject:   subject,
		Sender:    sender,
		Body:      body,
		Date:      date,
		CreatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutEmail(context.Background(), email))
	return email
}

func proposalsJSON(relatedID, corrType, subject string, confidence float64) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"proposals": []map[string]any{
			{
				"related_email_id": relatedID,
				"correlation_type": corrType,
				"subject":          subject,
				"confidence":       confidence,
			},
		},
	})
	return raw
}
