package models

// ManualEntryID is the sentinel id assigned to properties the user
// typed in by hand instead of selecting from the CRM.
const ManualEntryID = "manual-entry"

// SearchMode is how the current property was supplied.
type SearchMode string

const (
	SearchModeSearch SearchMode = "search"
	SearchModeManual SearchMode = "manual"
)

// IsValid checks if a search mode is recognized.
func (m SearchMode) IsValid() bool {
	return m == SearchModeSearch || m == SearchModeManual
}

// Property is the canonical property record fed to the pricing engine.
// It is replaced wholesale on every selection or manual edit, never
// partially mutated.
type Property struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	ARV       float64  `json:"arv"`
	Repairs   float64  `json:"repairs"`
	AsIsValue *float64 `json:"asIsValue,omitempty"`
}

// FromCRM reports whether the property was selected from the external
// CRM and therefore has an opportunity record to sync offers back to.
func (p *Property) FromCRM() bool {
	return p != nil && p.ID != "" && p.ID != ManualEntryID
}
