package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/mailweave/mailweave/pkg/repository"
)

func TestLocalDocumentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewLocal(dir)
	gt.NoError(t, err)
	ctx := context.Background()

	doc := &model.Document{
		ID:        model.NewDocumentID(model.DocumentKindEmail, "42"),
		Text:      "Quote from Acme\n\nPrice: 500",
		Embedding: firestore.Vector32{0.1, 0.2, 0.3},
		Metadata: model.DocumentMetadata{
			Kind:          model.DocumentKindEmail,
			OwnerID:       "u1",
			SourceEmailID: "42",
			Subject:       "Quote from Acme",
			CreatedAt:     time.Now(),
		},
	}
	gt.NoError(t, repo.PutDocument(ctx, doc))
	gt.Equal(t, doc.Seq, int64(1))

	// A fresh instance reads the snapshot back from disk.
	reloaded, err := repository.NewLocal(dir)
	gt.NoError(t, err)

	got, err := reloaded.GetDocument(ctx, doc.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Text, doc.Text)
	gt.Equal(t, got.Embedding, doc.Embedding)
	gt.Equal(t, got.Seq, int64(1))
}

func TestLocalDocumentSeqStableAcrossOverwrite(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)
	ctx := context.Background()

	first := &model.Document{
		ID:       model.NewDocumentID(model.DocumentKindNote, "n1"),
		Text:     "v1",
		Metadata: model.DocumentMetadata{Kind: model.DocumentKindNote, OwnerID: "u1", CreatedAt: time.Now()},
	}
	gt.NoError(t, repo.PutDocument(ctx, first))

	second := &model.Document{
		ID:       model.NewDocumentID(model.DocumentKindNote, "n2"),
		Text:     "other",
		Metadata: model.DocumentMetadata{Kind: model.DocumentKindNote, OwnerID: "u1", CreatedAt: time.Now()},
	}
	gt.NoError(t, repo.PutDocument(ctx, second))

	overwrite := &model.Document{
		ID:       first.ID,
		Text:     "v2",
		Metadata: first.Metadata,
	}
	gt.NoError(t, repo.PutDocument(ctx, overwrite))
	gt.Equal(t, overwrite.Seq, first.Seq)
}

func TestLocalDocumentNotFound(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)

	_, err = repo.GetDocument(context.Background(), "missing")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestLocalDeleteDocument(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewLocal(dir)
	gt.NoError(t, err)
	ctx := context.Background()

	doc := &model.Document{
		ID:       model.NewDocumentID(model.DocumentKindNote, "n1"),
		Text:     "text",
		Metadata: model.DocumentMetadata{Kind: model.DocumentKindNote, OwnerID: "u1", CreatedAt: time.Now()},
	}
	gt.NoError(t, repo.PutDocument(ctx, doc))
	gt.NoError(t, repo.DeleteDocument(ctx, doc.ID))

	reloaded, err := repository.NewLocal(dir)
	gt.NoError(t, err)
	_, err = reloaded.GetDocument(ctx, doc.ID)
	gt.Error(t, err)
}

func TestLocalListRecentEmails(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		gt.NoError(t, repo.PutEmail(ctx, &model.Email{
			ID:      model.EmailID(id),
			OwnerID: "u1",
			Subject: id,
			Date:    now.Add(time.Duration(i) * time.Hour),
		}))
	}
	gt.NoError(t, repo.PutEmail(ctx, &model.Email{
		ID:      "other",
		OwnerID: "u2",
		Date:    now.Add(10 * time.Hour),
	}))

	emails, err := repo.ListRecentEmails(ctx, "u1", 2)
	gt.NoError(t, err)
	gt.A(t, emails).Length(2)
	gt.Equal(t, emails[0].ID, model.EmailID("c"))
	gt.Equal(t, emails[1].ID, model.EmailID("b"))
}

func TestLocalCorrelationLogReload(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewLocal(dir)
	gt.NoError(t, err)
	ctx := context.Background()

	groupID := model.NewGroupID()
	now := time.Now()
	recs := []*model.CorrelationRecord{
		{GroupID: groupID, EmailID: "e1", OwnerID: "u1", Type: model.CorrelationTypeQuote, Subject: "g", Confidence: 0.9, CreatedAt: now},
		{GroupID: groupID, EmailID: "e2", OwnerID: "u1", Type: model.CorrelationTypeQuote, Subject: "g", Confidence: 0.9,
			Metadata:  model.CorrelationMetadata{Quote: &model.QuoteMetadata{Price: 420, Vendor: "Beta"}},
			CreatedAt: now},
	}
	for _, rec := range recs {
		gt.NoError(t, repo.AppendCorrelation(ctx, rec))
	}

	reloaded, err := repository.NewLocal(dir)
	gt.NoError(t, err)

	got, err := reloaded.ListCorrelationsByGroup(ctx, groupID)
	gt.NoError(t, err)
	gt.A(t, got).Length(2)
	gt.Equal(t, got[0].EmailID, model.EmailID("e1"))
	gt.V(t, got[1].Metadata.Quote).NotNil()
	gt.Equal(t, got[1].Metadata.Quote.Vendor, "Beta")
}

func TestLocalFindCorrelationReturnsEarliest(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)
	ctx := context.Background()

	g1 := model.NewGroupID()
	g2 := model.NewGroupID()
	now := time.Now()
	gt.NoError(t, repo.AppendCorrelation(ctx, &model.CorrelationRecord{
		GroupID: g1, EmailID: "e1", OwnerID: "u1", Type: model.CorrelationTypeQuote, CreatedAt: now.Add(-time.Hour)}))
	gt.NoError(t, repo.AppendCorrelation(ctx, &model.CorrelationRecord{
		GroupID: g2, EmailID: "e1", OwnerID: "u1", Type: model.CorrelationTypeQuote, CreatedAt: now}))

	found, err := repo.FindCorrelation(ctx, "e1", model.CorrelationTypeQuote)
	gt.NoError(t, err)
	gt.V(t, found).NotNil()
	gt.Equal(t, found.GroupID, g1)

	// Different type: no match.
	none, err := repo.FindCorrelation(ctx, "e1", model.CorrelationTypeOrder)
	gt.NoError(t, err)
	gt.V(t, none).Nil()
}
