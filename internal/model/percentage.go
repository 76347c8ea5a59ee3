package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Percentage is a non-negative fraction no greater than one, used for
// slippage tolerance.
type Percentage struct {
	Numerator   uint64
	Denominator uint64
}

// NewPercentage validates numerator/denominator.
func NewPercentage(numerator, denominator uint64) (Percentage, error) {
	p := Percentage{Numerator: numerator, Denominator: denominator}
	if err := p.Validate(); err != nil {
		return Percentage{}, err
	}
	return p, nil
}

// ParsePercentage accepts a fraction ("0.025") or a percent ("2.5%").
func ParsePercentage(s string) (Percentage, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Percentage{}, fmt.Errorf("slippage is required: %w", ErrInvalidSlippage)
	}
	percent := strings.HasSuffix(raw, "%")
	value, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(raw, "%")))
	if err != nil {
		return Percentage{}, fmt.Errorf("parse slippage %q: %w", s, ErrInvalidSlippage)
	}
	if percent {
		value = value.Shift(-2)
	}
	return PercentageFromDecimal(value)
}

// PercentageFromDecimal converts an exact decimal fraction.
func PercentageFromDecimal(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(1)) {
		return Percentage{}, fmt.Errorf("slippage %s: %w", value, ErrInvalidSlippage)
	}
	exp := value.Exponent()
	coef := value.Coefficient()
	if exp >= 0 {
		return NewPercentage(uint64(value.IntPart()), 1)
	}
	if -exp > 19 || !coef.IsUint64() {
		return Percentage{}, fmt.Errorf("slippage %s: too precise: %w", value, ErrInvalidSlippage)
	}
	den := decimal.New(1, -exp).BigInt()
	return NewPercentage(coef.Uint64(), den.Uint64())
}

func (p Percentage) Validate() error {
	if p.Denominator == 0 {
		return fmt.Errorf("slippage denominator is zero: %w", ErrInvalidSlippage)
	}
	if p.Numerator > p.Denominator {
		return fmt.Errorf("slippage %d/%d above 100%%: %w", p.Numerator, p.Denominator, ErrInvalidSlippage)
	}
	return nil
}

func (p Percentage) Decimal() decimal.Decimal {
	if p.Denominator == 0 {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(p.Numerator), 0)
	den := decimal.NewFromBigInt(new(big.Int).SetUint64(p.Denominator), 0)
	return num.Div(den)
}

func (p Percentage) String() string {
	return fmt.Sprintf("%d/%d", p.Numerator, p.Denominator)
}
