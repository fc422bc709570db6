package pricing

import (
	"math"

	"offer-calculator/internal/models"
)

// CanCompute reports whether the current property data is sufficient to
// run the engine for the selected strategy. Pure predicate with no
// caching; callers re-evaluate on every strategy, mode, or field change.
//
// In search mode a non-nil selection is trusted regardless of field
// completeness. In manual mode the strategy's required fields must be
// finite and positive (repairs may be zero).
func CanCompute(strategy models.OfferType, mode models.SearchMode, selected *models.Property) bool {
	if selected == nil {
		return false
	}
	if mode == models.SearchModeSearch {
		return true
	}

	if strategy.UsesAsIsValue() {
		return selected.AsIsValue != nil && isFinite(*selected.AsIsValue) && *selected.AsIsValue > 0
	}
	return isFinite(selected.ARV) && selected.ARV > 0 &&
		isFinite(selected.Repairs) && selected.Repairs >= 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
