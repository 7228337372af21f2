/*
Package generic provides the domain-agnostic primitives of the timesheet engine.

PURPOSE:
  This package contains the calendar, quantity and error types that the
  timesheet core is built from. Nothing here knows about roles, statuses or
  approval; those live in the timesheet package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A non-float quantity of worked time (e.g., 7.5 hours)
  - UserID: Type-safe identifier of the timesheet owner
  - HolidayTypeID: Reference into the holiday/leave type catalog

DESIGN PRINCIPLES:
  1. Precision: Hours use decimal.Decimal so that 31 days of 7.3 hours sum exactly
  2. Type Safety: Strong typing for IDs prevents mixing users and holiday types

USAGE:
  h := generic.NewHours(7.5)
  total := h.Add(generic.NewHours(0.5)) // 8

SEE ALSO:
  - time.go: TimePoint and holiday calendar
  - period.go: Month periods
  - errors.go: Error taxonomy
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Quantity of worked time
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

// ZeroHours is the additive identity.
var ZeroHours = Hours{Value: decimal.Zero}

func NewHours(value float64) Hours {
	return Hours{Value: decimal.NewFromFloat(value)}
}

func NewHoursFromInt(value int) Hours {
	return Hours{Value: decimal.NewFromInt(int64(value))}
}

// ParseHours parses a decimal string such as "7.5".
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroHours, err
	}
	return Hours{Value: d}, nil
}

// MustParseDecimal is decimal.RequireFromString: it panics on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (h Hours) Add(o Hours) Hours        { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours        { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) MulInt(n int) Hours       { return Hours{Value: h.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (h Hours) IsNegative() bool         { return h.Value.IsNegative() }
func (h Hours) IsZero() bool             { return h.Value.IsZero() }
func (h Hours) IsPositive() bool         { return h.Value.IsPositive() }
func (h Hours) GreaterThan(o Hours) bool { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool    { return h.Value.LessThan(o.Value) }
func (h Hours) Equal(o Hours) bool       { return h.Value.Equal(o.Value) }
func (h Hours) String() string           { return h.Value.String() }

func (h Hours) Min(o Hours) Hours {
	if h.LessThan(o) {
		return h
	}
	return o
}

func (h Hours) Max(o Hours) Hours {
	if h.GreaterThan(o) {
		return h
	}
	return o
}

// Float64 returns the hours as a float for presentation layers.
func (h Hours) Float64() float64 {
	f, _ := h.Value.Float64()
	return f
}

// WithinTolerance reports whether |h - o| <= tol.
func (h Hours) WithinTolerance(o, tol Hours) bool {
	return h.Value.Sub(o.Value).Abs().LessThanOrEqual(tol.Value)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type HolidayTypeID int64
