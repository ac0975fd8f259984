package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MetaCustomerID  = "customer_id"
	MetaBrandID     = "brand_id"
	MetaMessageID   = "message_id"
	MetaChannelType = "channel_type"
	MetaPlatform    = "platform"
	MetaSentiment   = "sentiment"
	MetaCategory    = "category"
	MetaType        = "type"
	MetaDate        = "date"

	MemoryTypeConversation = "conversation_history"
)

var ErrIncompleteFilter = errors.New("retrieval filter requires customer id and brand id")

// RetrievalFilter scopes knowledge search to exactly one customer of one brand.
// Both fields are required and it cannot be widened after construction.
type RetrievalFilter struct {
	customerID uuid.UUID
	brandID    uuid.UUID
}

func NewRetrievalFilter(customerID, brandID uuid.UUID) (RetrievalFilter, error) {
	if customerID == uuid.Nil || brandID == uuid.Nil {
		return RetrievalFilter{}, ErrIncompleteFilter
	}
	return RetrievalFilter{customerID: customerID, brandID: brandID}, nil
}

func (f RetrievalFilter) CustomerID() uuid.UUID { return f.customerID }
func (f RetrievalFilter) BrandID() uuid.UUID    { return f.brandID }

// IsZero reports an unset filter; a zero filter matches nothing.
func (f RetrievalFilter) IsZero() bool {
	return f.customerID == uuid.Nil || f.brandID == uuid.Nil
}

// Matches applies the exact-match conjunction to document metadata.
func (f RetrievalFilter) Matches(meta map[string]string) bool {
	if f.IsZero() {
		return false
	}
	return meta[MetaCustomerID] == f.customerID.String() && meta[MetaBrandID] == f.brandID.String()
}
