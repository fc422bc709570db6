package models

import "time"

// OfferType selects which pricing formula runs and which property
// fields are required.
type OfferType string

const (
	OfferTypeCash      OfferType = "cash"
	OfferTypeCreative  OfferType = "creative"
	OfferTypeNovation  OfferType = "novation"
	OfferTypeZestimate OfferType = "zestimate"
)

// ValidOfferTypes is the closed set of supported strategies.
var ValidOfferTypes = []OfferType{OfferTypeCash, OfferTypeCreative, OfferTypeNovation, OfferTypeZestimate}

// IsValid checks if an offer type is recognized.
func (t OfferType) IsValid() bool {
	for _, v := range ValidOfferTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns the human-readable name used in the history view.
func (t OfferType) Label() string {
	switch t {
	case OfferTypeCash:
		return "Fix and Flip"
	case OfferTypeCreative:
		return "Seller Finance"
	case OfferTypeNovation:
		return "Novation"
	case OfferTypeZestimate:
		return "Zillow"
	default:
		return string(t)
	}
}

// UsesAsIsValue reports whether the strategy prices off the as-is value
// instead of ARV and repairs.
func (t OfferType) UsesAsIsValue() bool {
	return t == OfferTypeCreative || t == OfferTypeNovation || t == OfferTypeZestimate
}

// OfferStatus is the persistence state of an offer.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending" // preview, never written to the store
	OfferStatusActive   OfferStatus = "active"
	OfferStatusArchived OfferStatus = "archived"
)

// Offer is a computed purchase offer. Preview offers carry status
// "pending" and an id in the preview namespace; a save action copies the
// fields into a new offer with a fresh globally-unique id.
type Offer struct {
	ID          string      `json:"id"`
	Address     string      `json:"address"`
	ARV         float64     `json:"arv"`
	Repairs     float64     `json:"repairs"`
	Notes       string      `json:"notes,omitempty"`
	OfferAmount float64     `json:"offerAmount"`
	OfferType   OfferType   `json:"offerType"`
	CreatedAt   time.Time   `json:"createdAt"`
	Status      OfferStatus `json:"status"`

	// Strategy-dependent breakdown fields
	AsIsValue          *float64 `json:"asIsValue,omitempty"`
	DownPayment        *float64 `json:"downPayment,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	MonthlyPayment     *float64 `json:"monthlyPayment,omitempty"`
	LongLengthInMonths *int     `json:"longLengthInMonths,omitempty"`
	ArvPctUsed         *int     `json:"arvPctUsed,omitempty"`
	HoldingCosts       *float64 `json:"holdingCosts,omitempty"`
	ClosingCosts       *float64 `json:"closingCosts,omitempty"`
	HoldingPctUsed     *int     `json:"holdingPctUsed,omitempty"`
	ClosingPctUsed     *int     `json:"closingPctUsed,omitempty"`
}

// IsPreview reports whether the offer is a non-persisted preview.
func (o *Offer) IsPreview() bool {
	return o.Status == OfferStatusPending
}
