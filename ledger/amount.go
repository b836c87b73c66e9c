package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a caller-supplied delta. The result is always a finite
// decimal strictly greater than zero.
func ParseAmount(raw string) (Amount, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return Amount{}, err
	}
	if !d.IsPositive() {
		return Amount{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidRequest, d)
	}
	return Amount{Value: d}, nil
}

// ParseBalance parses an initial balance, which may be zero but not negative.
func ParseBalance(raw string) (Amount, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return Amount{}, err
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: balance must not be negative, got %s", ErrInvalidRequest, d)
	}
	return Amount{Value: d}, nil
}

// decimal.NewFromString rejects NaN and Infinity but accepts any exponent,
// so magnitudes are bounded separately by checkFinite.
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidRequest)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidRequest, raw)
	}
	if err := checkFinite(d); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return d, nil
}

// Decimal orders of magnitude a float64 can hold, subnormals included.
const (
	maxMagnitude = 308
	minMagnitude = -324
)

// checkFinite rejects values that do not fit a finite, non-underflowing
// float64. The order of magnitude is checked from the exponent first so that
// values like 1e999999999 are never expanded.
func checkFinite(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	order := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	if order > maxMagnitude || order < minMagnitude {
		return fmt.Errorf("amount %s is out of range", shortForm(d))
	}
	if f, _ := d.Float64(); math.IsInf(f, 0) || f == 0 {
		return fmt.Errorf("amount %s is out of range", shortForm(d))
	}
	return nil
}

// shortForm renders d as coefficient and exponent without expanding it.
func shortForm(d decimal.Decimal) string {
	coef := d.Coefficient().String()
	if len(coef) > 16 {
		coef = coef[:16] + "..."
	}
	return fmt.Sprintf("%se%d", coef, d.Exponent())
}
