package htn

import (
	"fmt"
	"math/big"
	"strings"
)

// TimeScale is the number of sub-units per time unit in the lowered form.
// A delay d is rendered as trunc(d * TimeScale).
const TimeScale = 10

// Epsilon is the smallest representable time granularity.
var Epsilon = DelayFrac(1, TimeScale)

// Delay is an exact rational time offset. The zero value is 0.
type Delay struct {
	r *big.Rat
}

// DelayOf returns an integral delay.
func DelayOf(n int64) Delay {
	return Delay{r: new(big.Rat).SetInt64(n)}
}

// DelayFrac returns num/den. It panics if den is zero.
func DelayFrac(num, den int64) Delay {
	return Delay{r: big.NewRat(num, den)}
}

// ParseDelay parses a decimal ("0.5"), fraction ("1/3") or integer delay.
func ParseDelay(s string) (Delay, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Delay{}, fmt.Errorf("invalid delay %q", s)
	}
	return Delay{r: r}, nil
}

func (d Delay) rat() *big.Rat {
	if d.r == nil {
		return new(big.Rat)
	}
	return d.r
}

// Add returns d + other.
func (d Delay) Add(other Delay) Delay {
	return Delay{r: new(big.Rat).Add(d.rat(), other.rat())}
}

// Neg returns -d.
func (d Delay) Neg() Delay {
	return Delay{r: new(big.Rat).Neg(d.rat())}
}

// Cmp compares d and other like big.Rat.Cmp.
func (d Delay) Cmp(other Delay) int {
	return d.rat().Cmp(other.rat())
}

// IsZero reports whether d is 0.
func (d Delay) IsZero() bool {
	return d.rat().Sign() == 0
}

// Scaled returns trunc(d * TimeScale), the integer used in lowered
// timepoints.
func (d Delay) Scaled() int64 {
	r := d.rat()
	num := new(big.Int).Mul(r.Num(), big.NewInt(TimeScale))
	return new(big.Int).Quo(num, r.Denom()).Int64()
}

// String returns the exact rational form, e.g. "1/10".
func (d Delay) String() string {
	return d.rat().RatString()
}

// Decimal returns a decimal rendering with at least one fractional digit,
// e.g. "2.0" or "0.25".
func (d Delay) Decimal() string {
	return decimalString(d.rat())
}

func decimalString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String() + ".0"
	}
	s := r.FloatString(9)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
