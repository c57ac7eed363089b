package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type GroupID string

// NewGroupID mints a new unique GroupID
func NewGroupID() GroupID {
	return GroupID(uuid.New().String())
}

type CorrelationType string

const (
	CorrelationTypeQuote    CorrelationType = "quote"
	CorrelationTypeInvoice  CorrelationType = "invoice"
	CorrelationTypeOrder    CorrelationType = "order"
	CorrelationTypeInquiry  CorrelationType = "inquiry"
	CorrelationTypeResponse CorrelationType = "response"
	CorrelationTypeManual   CorrelationType = "manual"
)

// Validate checks if the correlation type is valid
func (t CorrelationType) Validate() error {
	switch t {
	case CorrelationTypeQuote, CorrelationTypeInvoice, CorrelationTypeOrder,
		CorrelationTypeInquiry, CorrelationTypeResponse, CorrelationTypeManual:
		return nil
	default:
		return goerr.Wrap(ErrValidation, "invalid correlation type", goerr.V("type", t))
	}
}

// CorrelationRecord is one membership edge asserting that an email belongs
// to a group. Records are append-only; repeated detection may produce
// duplicate (GroupID, EmailID) rows, so readers de-duplicate membership.
type CorrelationRecord struct {
	GroupID    GroupID
	EmailID    EmailID
	OwnerID    OwnerID
	Type       CorrelationType
	Subject    string
	Confidence float64
	Metadata   CorrelationMetadata
	CreatedAt  time.Time
}

// CorrelationMetadata carries the type-specific payload of a record. Only
// the variant matching the record's Type is populated; seed records carry
// neither.
type CorrelationMetadata struct {
	Quote *QuoteMetadata `firestore:"quote,omitempty" json:"quote,omitempty"`
	Order *OrderMetadata `firestore:"order,omitempty" json:"order,omitempty"`
}

type QuoteMetadata struct {
	Price   float64 `firestore:"price" json:"price"`
	Vendor  string  `firestore:"vendor" json:"vendor"`
	Product string  `firestore:"product" json:"product"`
	Notes   string  `firestore:"notes,omitempty" json:"notes,omitempty"`
}

type OrderMetadata struct {
	OrderNumber string  `firestore:"order_number,omitempty" json:"order_number,omitempty"`
	Amount      float64 `firestore:"amount,omitempty" json:"amount,omitempty"`
	Status      string  `firestore:"status,omitempty" json:"status,omitempty"`
	Notes       string  `firestore:"notes,omitempty" json:"notes,omitempty"`
}

// CorrelationGroup is the derived view of all records sharing a GroupID,
// hydrated with their source emails. It is never persisted.
type CorrelationGroup struct {
	ID       GroupID
	Type     CorrelationType
	Subject  string
	Records  []*CorrelationRecord
	Emails   []*Email
	Analysis *GroupAnalysis
}

// MemberIDs returns the de-duplicated email membership of the group, in
// first-appearance order of the record log.
func (g *CorrelationGroup) MemberIDs() []EmailID {
	seen := make(map[EmailID]bool, len(g.Records))
	var ids []EmailID
	for _, r := range g.Records {
		if seen[r.EmailID] {
			continue
		}
		seen[r.EmailID] = true
		ids = append(ids, r.EmailID)
	}
	return ids
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
)

// GroupAnalysis is the on-demand decision support computed for a group.
// Exactly one variant is set, matching the founding record's type; a nil
// GroupAnalysis means no analysis is available.
type GroupAnalysis struct {
	Quote *QuoteAnalysis `json:"quote,omitempty"`
	Order *OrderAnalysis `json:"order,omitempty"`
}

type QuoteAnalysis struct {
	BestOption     BestOption      `json:"best_option"`
	Comparison     QuoteComparison `json:"comparison"`
	Recommendation string          `json:"recommendation"`
}

type BestOption struct {
	Vendor string  `json:"vendor"`
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}

type QuoteComparison struct {
	PriceRange PriceRange         `json:"price_range"`
	Vendors    []VendorAssessment `json:"vendors"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type VendorAssessment struct {
	Vendor string   `json:"vendor"`
	Price  float64  `json:"price"`
	Pros   []string `json:"pros"`
	Cons   []string `json:"cons"`
}

type OrderAnalysis struct {
	Timeline    []TimelineEvent `json:"timeline"`
	OrderStatus OrderStatus     `json:"order_status"`
	NextAction  string          `json:"next_action"`
	TotalValue  *float64        `json:"total_value,omitempty"`
}

type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}
