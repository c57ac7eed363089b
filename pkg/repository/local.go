package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

const (
	documentsFile    = "documents.json"
	emailsFile       = "emails.json"
	correlationsFile = "correlations.jsonl"
)

// Local implements Repository on plain files: documents and emails are one
// JSON snapshot each, rewritten in full on every mutation (write-through,
// last writer wins), and correlation records are an append-only JSONL log.
// It is meant for a single process; concurrent processes sharing a
// directory can lose intervening snapshot mutations.
type Local struct {
	mu  sync.Mutex
	dir string

	docs    map[model.DocumentID]*model.Document
	nextSeq int64
	emails  map[model.EmailID]*model.Email
	recs    []*model.CorrelationRecord
}

type documentSnapshot struct {
	NextSeq   int64                                `json:"next_seq"`
	Documents map[model.DocumentID]*model.Document `json:"documents"`
}

// NewLocal loads (or initializes) a local repository rooted at dir
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create repository directory", goerr.V("dir", dir))
	}

	r := &Local{
		dir:     dir,
		docs:    make(map[model.DocumentID]*model.Document),
		nextSeq: 1,
		emails:  make(map[model.EmailID]*model.Email),
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Local) load() error {
	if data, err := os.ReadFile(filepath.Join(r.dir, documentsFile)); err == nil {
		var snap documentSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return goerr.Wrap(err, "failed to parse document snapshot")
		}
		if snap.Documents != nil {
			r.docs = snap.Documents
		}
		if snap.NextSeq > 0 {
			r.nextSeq = snap.NextSeq
		}
	} else if !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to read document snapshot")
	}

	if data, err := os.ReadFile(filepath.Join(r.dir, emailsFile)); err == nil {
		if err := json.Unmarshal(data, &r.emails); err != nil {
			return goerr.Wrap(err, "failed to parse email snapshot")
		}
	} else if !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to read email snapshot")
	}

	f, err := os.Open(filepath.Join(r.dir, correlationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to open correlation log")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.CorrelationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return goerr.Wrap(err, "failed to parse correlation log entry")
		}
		r.recs = append(r.recs, &rec)
	}
	if err := scanner.Err(); err != nil {
		return goerr.Wrap(err, "failed to read correlation log")
	}

	return nil
}

func (r *Local) persistDocuments() error {
	snap := documentSnapshot{NextSeq: r.nextSeq, Documents: r.docs}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode document snapshot")
	}
	if err := os.WriteFile(filepath.Join(r.dir, documentsFile), data, 0644); err != nil {
		return goerr.Wrap(err, "failed to write document snapshot")
	}
	return nil
}

func (r *Local) persistEmails() error {
	data, err := json.MarshalIndent(r.emails, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode email snapshot")
	}
	if err := os.WriteFile(filepath.Join(r.dir, emailsFile), data, 0644); err != nil {
		return goerr.Wrap(err, "failed to write email snapshot")
	}
	return nil
}

func (r *Local) appendCorrelationLog(rec *model.CorrelationRecord) error {
	f, err := os.OpenFile(filepath.Join(r.dir, correlationsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to open correlation log")
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return goerr.Wrap(err, "failed to append correlation log entry")
	}
	return nil
}

func (r *Local) PutDocument(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.docs[doc.ID]; ok {
		doc.Seq = existing.Seq
	} else {
		doc.Seq = r.nextSeq
		r.nextSeq++
	}
	r.docs[doc.ID] = doc

	return r.persistDocuments()
}

func (r *Local) GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "document not found", goerr.V("id", id))
	}
	return doc, nil
}

func (r *Local) ListDocuments(ctx context.Context, ownerID model.OwnerID) ([]*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var docs []*model.Document
	for _, doc := range r.docs {
		if doc.Metadata.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (r *Local) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, id)
	return r.persistDocuments()
}

func (r *Local) PutEmail(ctx context.Context, email *model.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emails[email.ID] = email
	return r.persistEmails()
}

func (r *Local) GetEmail(ctx context.Context, id model.EmailID) (*model.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, ok := r.emails[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "email not found", goerr.V("id", id))
	}
	return email, nil
}

func (r *Local) ListRecentEmails(ctx context.Context, ownerID model.OwnerID, limit int) ([]*model.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var emails []*model.Email
	for _, email := range r.emails {
		if email.OwnerID == ownerID {
			emails = append(emails, email)
		}
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})

	if limit > 0 && len(emails) > limit {
		emails = emails[:limit]
	}
	return emails, nil
}

func (r *Local) AppendCorrelation(ctx context.Context, rec *model.CorrelationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.appendCorrelationLog(rec); err != nil {
		return err
	}
	r.recs = append(r.recs, rec)
	return nil
}

func (r *Local) FindCorrelation(ctx context.Context, emailID model.EmailID, corrType model.CorrelationType) (*model.CorrelationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.recs {
		if rec.EmailID == emailID && rec.Type == corrType {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *Local) ListCorrelationsByGroup(ctx context.Context, groupID model.GroupID) ([]*model.CorrelationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []*model.CorrelationRecord
	for _, rec := range r.recs {
		if rec.GroupID == groupID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (r *Local) ListCorrelationsByOwner(ctx context.Context, ownerID model.OwnerID) ([]*model.CorrelationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []*model.CorrelationRecord
	for _, rec := range r.recs {
		if rec.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
