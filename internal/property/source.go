package property

import (
	"context"

	"offer-calculator/internal/config"
	"offer-calculator/internal/models"

	"github.com/sirupsen/logrus"
)

// OpportunitySearcher is the slice of the CRM client the source needs.
type OpportunitySearcher interface {
	SearchOpportunities(ctx context.Context, query string) ([]models.Opportunity, error)
}

// Source normalizes both supply modes (CRM lookup and direct user
// entry) into canonical property records.
type Source struct {
	crm            OpportunitySearcher
	fields         config.CustomFieldsCfg
	minQueryLength int
	log            *logrus.Logger
}

// NewSource creates a property source backed by the given CRM searcher.
func NewSource(crm OpportunitySearcher, cfg config.SearchConfig, fields config.CustomFieldsCfg, log *logrus.Logger) *Source {
	return &Source{
		crm:            crm,
		fields:         fields,
		minQueryLength: cfg.MinQueryLength,
		log:            log,
	}
}

// Search looks up candidate properties for a free-text query. Queries
// below the minimum length are suppressed without a lookup, and CRM
// failures degrade to an empty result list.
func (s *Source) Search(ctx context.Context, query string) []models.Property {
	if len([]rune(query)) < s.minQueryLength {
		return nil
	}

	opps, err := s.crm.SearchOpportunities(ctx, query)
	if err != nil {
		s.log.Warnf("[search] opportunity lookup failed: %v", err)
		return nil
	}

	properties := make([]models.Property, 0, len(opps))
	for _, opp := range opps {
		properties = append(properties, s.FromOpportunity(opp))
	}
	return properties
}

// FromOpportunity maps a CRM opportunity's custom-field list onto the
// canonical numeric fields by the fixed field ids. Missing fields
// default to zero (or stay unset for the as-is value).
func (s *Source) FromOpportunity(opp models.Opportunity) models.Property {
	p := models.Property{
		ID:      opp.ID,
		Name:    opp.Name,
		Address: opp.Name,
	}

	if v := opp.NumberField(s.fields.ARV); v != nil {
		p.ARV = *v
	}
	if v := opp.NumberField(s.fields.Repairs); v != nil {
		p.Repairs = *v
	}
	p.AsIsValue = opp.NumberField(s.fields.AsIsValue)

	return p
}
