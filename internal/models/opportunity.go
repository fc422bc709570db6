package models

// CustomField is one entry of an opportunity's custom-field list as
// returned by the CRM search endpoint.
type CustomField struct {
	ID               string   `json:"id"`
	FieldValue       string   `json:"fieldValue,omitempty"`
	FieldValueNumber *float64 `json:"fieldValueNumber,omitempty"`
}

// Opportunity is a CRM deal record. The numeric property fields live in
// the custom-field list under fixed field ids.
type Opportunity struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CustomFields []CustomField `json:"customFields"`
}

// NumberField returns the numeric value of the custom field with the
// given id, or nil when absent.
func (o *Opportunity) NumberField(fieldID string) *float64 {
	for _, f := range o.CustomFields {
		if f.ID == fieldID {
			return f.FieldValueNumber
		}
	}
	return nil
}

// OpportunitySearchResponse is the body of the CRM search proxy.
type OpportunitySearchResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
}
