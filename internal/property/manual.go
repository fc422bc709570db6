package property

import "offer-calculator/internal/models"

// ManualFields is the raw state of the manual-entry form. Pointers
// distinguish "left blank" from an explicit zero.
type ManualFields struct {
	Address   string   `json:"address"`
	ARV       *float64 `json:"arv,omitempty"`
	Repairs   *float64 `json:"repairs,omitempty"`
	AsIsValue *float64 `json:"asIsValue,omitempty"`
}

// FromManualEntry builds the canonical property record for the active
// strategy, or nil when the required fields are incomplete. The record
// is rebuilt wholesale on every edit; the sentinel id marks it as
// user-supplied so no CRM sync is attempted.
func FromManualEntry(f ManualFields, strategy models.OfferType) *models.Property {
	if strategy.UsesAsIsValue() {
		if f.Address == "" || f.AsIsValue == nil {
			return nil
		}
		return &models.Property{
			ID:        models.ManualEntryID,
			Name:      f.Address,
			Address:   f.Address,
			AsIsValue: f.AsIsValue,
		}
	}

	if f.Address == "" || f.ARV == nil || f.Repairs == nil {
		return nil
	}
	return &models.Property{
		ID:      models.ManualEntryID,
		Name:    f.Address,
		Address: f.Address,
		ARV:     *f.ARV,
		Repairs: *f.Repairs,
	}
}
