package pricing

import (
	"math"

	"offer-calculator/internal/models"
)

// Loan term for seller-finance offers, in months.
const creativeTermMonths = 360

// Engine computes purchase offers from property financials. All
// formulas are pure float64 arithmetic with standard (half away from
// zero) rounding to whole currency units; garbage numeric inputs flow
// through the arithmetic, validation happens before the engine runs.
type Engine struct {
	// CashDeduction is the fixed amount subtracted at the end of the
	// cash formula. Tunable because product has shipped both 20000 and
	// 30000 at different times.
	CashDeduction float64
	// MinOffer is the floor applied to every computed offer amount.
	MinOffer float64
}

// NewEngine creates an engine with the given pricing constants.
func NewEngine(cashDeduction, minOffer float64) *Engine {
	return &Engine{
		CashDeduction: cashDeduction,
		MinOffer:      minOffer,
	}
}

// Overrides carries user-supplied values that replace derived ones.
type Overrides struct {
	ManualDownPayment *float64
}

// CashBreakdown is the derived output of the cash formula.
type CashBreakdown struct {
	DownPayment float64
}

// CreativeBreakdown is the derived output of the seller-finance
// formula. MonthlyPayment is kept at two decimal places; the offer
// amount surfaced to the user for this strategy is the monthly payment,
// not the price.
type CreativeBreakdown struct {
	DownPayment    float64
	Price          float64
	MonthlyPayment float64
	TermMonths     int
	ArvPctUsed     int
}

// Computation is a tagged result: exactly one breakdown pointer is set,
// matching the strategy that produced it.
type Computation struct {
	Strategy    models.OfferType
	OfferAmount float64
	Cash        *CashBreakdown
	Creative    *CreativeBreakdown
}

// Compute runs the formula for the given strategy over the property
// record. Pure and deterministic; no I/O.
func (e *Engine) Compute(strategy models.OfferType, p models.Property, o Overrides) Computation {
	switch strategy {
	case models.OfferTypeCreative:
		return e.computeCreative(p)
	case models.OfferTypeNovation:
		return Computation{
			Strategy:    models.OfferTypeNovation,
			OfferAmount: e.floor(math.Round(0.9*asIsValue(p) - 40000)),
		}
	case models.OfferTypeZestimate:
		return Computation{
			Strategy:    models.OfferTypeZestimate,
			OfferAmount: e.floor(math.Round(0.65 * asIsValue(p))),
		}
	default:
		return e.computeCash(p, o)
	}
}

func (e *Engine) computeCash(p models.Property, o Overrides) Computation {
	base := p.ARV * 0.9

	// Repair adjustment: small jobs carry a flat cushion, oversized
	// jobs (above 10% of ARV) are penalized harder than typical ones.
	switch {
	case p.Repairs < 30000:
		base -= p.Repairs + 30000
	case p.Repairs > p.ARV*0.1:
		base -= p.ARV*0.1*2 + (p.Repairs-p.ARV*0.1)*1.5
	default:
		base -= p.Repairs * 2
	}

	base -= e.CashDeduction

	amount := e.floor(math.Round(base))

	down := math.Round(amount * 0.1)
	if o.ManualDownPayment != nil {
		down = *o.ManualDownPayment
	}

	return Computation{
		Strategy:    models.OfferTypeCash,
		OfferAmount: amount,
		Cash:        &CashBreakdown{DownPayment: down},
	}
}

func (e *Engine) computeCreative(p models.Property) Computation {
	v := asIsValue(p)

	// Down payment is derived from the marked-up price but subtracted
	// unrounded when amortizing the monthly payment.
	down := v * 1.1 * 0.05
	price := math.Round(v * 1.1)
	monthly := round2((v - down) * 1.1 / creativeTermMonths)

	return Computation{
		Strategy:    models.OfferTypeCreative,
		OfferAmount: e.floor(math.Round(monthly)),
		Creative: &CreativeBreakdown{
			DownPayment:    math.Round(down),
			Price:          price,
			MonthlyPayment: monthly,
			TermMonths:     creativeTermMonths,
			ArvPctUsed:     110,
		},
	}
}

// floor clamps a computed amount to the minimum offer. Applied to
// every strategy so a low-value property can never produce a negative
// or token offer.
func (e *Engine) floor(amount float64) float64 {
	return math.Max(amount, e.MinOffer)
}

func asIsValue(p models.Property) float64 {
	if p.AsIsValue == nil {
		return 0
	}
	return *p.AsIsValue
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
