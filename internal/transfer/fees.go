package transfer

import "github.com/shopspring/decimal"

// FeePolicy computes the cut deducted from a peer-to-peer transfer. Rate is
// fractional (0.01 for 1%) and the result is clamped to [Min, Max]. All three
// knobs are injected from configuration so policy can change without a code
// change.
type FeePolicy struct {
	Rate decimal.Decimal
	Min  decimal.Decimal
	Max  decimal.Decimal
}

// Fee returns the clamped fee for the given gross amount, rounded to two
// decimal places.
func (p FeePolicy) Fee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(p.Rate).Round(2)
	if p.Min.IsPositive() && fee.LessThan(p.Min) {
		fee = p.Min
	}
	if p.Max.IsPositive() && fee.GreaterThan(p.Max) {
		fee = p.Max
	}
	return fee
}
