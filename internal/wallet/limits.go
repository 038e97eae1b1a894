package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ResetIfDue zeroes the daily spent counter when the wallet's last reset was
// not today, and additionally the monthly counter when it was not in the
// current month. The reset is a pure no-op when nothing is due; LastResetAt
// only advances when a counter was actually cleared, so rapid repeated calls
// within one day cannot mask each other.
//
// Every debit path runs ResetIfDue before checking limits. The reset-then-
// check sits outside the debit's compare-and-swap window: limits are
// advisory guards, the balance precondition inside ConditionalDebit is the
// safety net.
func ResetIfDue(ctx context.Context, store Store, w Wallet, now time.Time) (Wallet, error) {
	daily, monthly := resetDue(w.LastResetAt, now)
	if !daily && !monthly {
		return w, nil
	}
	if err := store.ResetLimits(ctx, w.ID, daily, monthly, now); err != nil {
		return Wallet{}, err
	}
	if daily {
		w.DailySpent = decimal.Zero
	}
	if monthly {
		w.MonthlySpent = decimal.Zero
	}
	w.LastResetAt = now
	return w, nil
}

func resetDue(last, now time.Time) (daily, monthly bool) {
	ly, lm, ld := last.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	daily = ly != ny || lm != nm || ld != nd
	monthly = ly != ny || lm != nm
	return daily, monthly
}

// CheckSpend verifies the debit fits inside the wallet's daily and monthly
// caps. A non-positive limit means the cap is disabled.
func CheckSpend(w Wallet, amount decimal.Decimal) error {
	if w.DailyLimit.IsPositive() && w.DailySpent.Add(amount).GreaterThan(w.DailyLimit) {
		return ErrDailyLimitExceeded
	}
	if w.MonthlyLimit.IsPositive() && w.MonthlySpent.Add(amount).GreaterThan(w.MonthlyLimit) {
		return ErrMonthlyLimitExceeded
	}
	return nil
}
