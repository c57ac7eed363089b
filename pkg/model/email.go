package model

import "time"

type EmailID string

// Email is a raw mailbox record handed over by the ingestion layer. The
// core never fetches mail itself; it only indexes and correlates what it
// is given.
type Email struct {
	ID      EmailID
	OwnerID OwnerID
	Subject string
	Sender  string
	Body    string
	Date    time.Time

	CreatedAt time.Time
}

// IndexText is the text representation used for embedding.
func (e *Email) IndexText() string {
	return e.Subject + "\n\n" + e.Body
}
