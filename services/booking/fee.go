package booking

import (
	"fmt"
	"math"
)

// FeePolicy computes the platform's cut from an already-discounted price.
// Pure math, no I/O. Which side of the marketplace pays is a property of the
// policy, resolved once from configuration, never inferred per request.
type FeePolicy interface {
	Fee(priceCents int64) int64
	// ChargedToBuyer reports whether the fee is added on top of the price
	// (buyer-pays-fees) or deducted from the provider's payout.
	ChargedToBuyer() bool
}

// CappedPercentPolicy charges the provider a percentage of the price, clamped
// to a floor and a ceiling.
type CappedPercentPolicy struct {
	Rate     float64
	MinCents int64
	MaxCents int64
}

func DefaultCappedPercentPolicy() CappedPercentPolicy {
	return CappedPercentPolicy{Rate: 0.08, MinCents: 99, MaxCents: 1299}
}

func (p CappedPercentPolicy) Fee(priceCents int64) int64 {
	fee := int64(math.Round(float64(priceCents) * p.Rate))
	if fee < p.MinCents {
		fee = p.MinCents
	}
	if fee > p.MaxCents {
		fee = p.MaxCents
	}
	return fee
}

func (p CappedPercentPolicy) ChargedToBuyer() bool { return false }

// GrossUpPolicy charges the buyer a fee sized so that after the processor
// deducts its percentage of the total plus its fixed fee, the platform still
// nets TargetNetCents.
type GrossUpPolicy struct {
	TargetNetCents      int64
	ProcessorRate       float64
	ProcessorFixedCents int64
}

func DefaultGrossUpPolicy() GrossUpPolicy {
	return GrossUpPolicy{TargetNetCents: 99, ProcessorRate: 0.029, ProcessorFixedCents: 30}
}

func (p GrossUpPolicy) Fee(priceCents int64) int64 {
	numerator := float64(p.TargetNetCents) +
		p.ProcessorRate*float64(priceCents) +
		float64(p.ProcessorFixedCents)
	return int64(math.Ceil(numerator / (1 - p.ProcessorRate)))
}

func (p GrossUpPolicy) ChargedToBuyer() bool { return true }

// NetForPrice returns what the platform actually nets for a given price and
// whether it lands within one cent of the target. A larger deviation is a
// reportable validation warning, not a hard error.
func (p GrossUpPolicy) NetForPrice(priceCents int64) (netCents int64, withinTolerance bool) {
	fee := p.Fee(priceCents)
	total := priceCents + fee
	processorCut := int64(math.Round(p.ProcessorRate*float64(total))) + p.ProcessorFixedCents
	net := fee - processorCut
	diff := net - p.TargetNetCents
	if diff < 0 {
		diff = -diff
	}
	return net, diff <= 1
}

// FeeBreakdown is the commercial snapshot denormalized onto each booking.
type FeeBreakdown struct {
	ServicePriceCents   int64
	PlatformFeeCents    int64
	AmountTotalCents    int64
	ProviderPayoutCents int64
}

// ComputeBreakdown applies the policy to a price. Under buyer-pays-fees the
// buyer is charged price+fee and the provider's payout stays the full price;
// otherwise the buyer pays the price and the fee comes out of the payout.
func ComputeBreakdown(policy FeePolicy, priceCents int64) FeeBreakdown {
	fee := policy.Fee(priceCents)
	if policy.ChargedToBuyer() {
		return FeeBreakdown{
			ServicePriceCents:   priceCents,
			PlatformFeeCents:    fee,
			AmountTotalCents:    priceCents + fee,
			ProviderPayoutCents: priceCents,
		}
	}
	return FeeBreakdown{
		ServicePriceCents:   priceCents,
		PlatformFeeCents:    fee,
		AmountTotalCents:    priceCents,
		ProviderPayoutCents: priceCents - fee,
	}
}

// PolicyFromName resolves the configured fee policy at startup.
func PolicyFromName(name string) (FeePolicy, error) {
	switch name {
	case "capped_percent", "":
		return DefaultCappedPercentPolicy(), nil
	case "gross_up":
		return DefaultGrossUpPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown fee policy %q", name)
	}
}
