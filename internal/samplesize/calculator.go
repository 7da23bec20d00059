package samplesize

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

var (
	// ErrInvalidParameter marks inputs that do not admit a well-defined sample size.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumericOverflow marks totals that cannot be represented as an int64.
	ErrNumericOverflow = errors.New("numeric overflow")
)

// maxSampleSize is the first float64 that no longer fits in an int64.
const maxSampleSize = float64(math.MaxInt64)

// Mode selects how the per-day requirement is turned into a total.
type Mode string

const (
	// ModePerDay adds the per-day requirement once for every day of the planned duration.
	ModePerDay Mode = "per_day"
	// ModeSingle returns the per-day requirement once, independent of duration.
	ModeSingle Mode = "single"
)

// ParseMode validates a configured mode name. An empty name yields ModePerDay.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", ModePerDay:
		return ModePerDay, nil
	case ModeSingle:
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("unknown calculator mode %q (want %s or %s)", name, ModePerDay, ModeSingle)
	}
}

// Params are the test-design inputs the calculation depends on.
type Params struct {
	ControlCVR          float64
	MinDetectableEffect float64
	SignificanceLevel   float64
	Power               float64
	DurationDays        int
}

// VariantCVR is the conversion rate the variant is assumed to reach.
func (p Params) VariantCVR() float64 {
	return p.ControlCVR * (1 + p.MinDetectableEffect)
}

// ParamError reports the parameter that made a calculation impossible.
type ParamError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Unwrap lets callers match ParamError with errors.Is(err, ErrInvalidParameter).
func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

// Calculator computes two-proportion z-test sample sizes.
// The zero value uses ModePerDay and is safe for concurrent use.
type Calculator struct {
	Mode Mode
}

// Compute runs the default per-day calculation.
func Compute(p Params) (int64, error) {
	return Calculator{}.Compute(p)
}

// Compute returns the required sample size for p, rounded up and never below one.
func (c Calculator) Compute(p Params) (int64, error) {
	perDay, err := PerDayRequirement(p)
	if err != nil {
		return 0, err
	}

	days := p.DurationDays
	if c.Mode == ModeSingle {
		days = 1
	}

	var total float64
	for day := 1; day <= days; day++ {
		total += perDay
	}

	if math.IsNaN(total) || math.IsInf(total, 0) || math.Ceil(total) >= maxSampleSize {
		return 0, fmt.Errorf("sample size for %d day(s): %w", days, ErrNumericOverflow)
	}

	size := int64(math.Ceil(total))
	if size < 1 {
		size = 1
	}
	return size, nil
}

// PerDayRequirement evaluates the normal-approximation requirement for a single period.
func PerDayRequirement(p Params) (float64, error) {
	if err := p.check(); err != nil {
		return 0, err
	}

	zAlpha := stats.NormPpf(1-p.SignificanceLevel/2, 0, 1)
	zBeta := stats.NormPpf(p.Power, 0, 1)

	p1 := p.ControlCVR
	p2 := p.VariantCVR()
	variance := p1*(1-p1) + p2*(1-p2)
	// Clamped so the size stays monotone in power below power = alpha/2.
	sum := math.Max(0, zAlpha+zBeta)
	ratio := sum / p.MinDetectableEffect

	n := variance * ratio * ratio
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("per-day requirement: %w", ErrNumericOverflow)
	}
	return n, nil
}

func (p Params) check() error {
	switch {
	case !inUnit(p.ControlCVR) || p.ControlCVR <= 0:
		return &ParamError{Param: "control_cvr", Value: p.ControlCVR, Reason: "must be in (0, 1]"}
	case math.IsNaN(p.MinDetectableEffect) || p.MinDetectableEffect <= 0:
		return &ParamError{Param: "min_detectable_effect", Value: p.MinDetectableEffect, Reason: "must be greater than zero"}
	case !inUnit(p.MinDetectableEffect):
		return &ParamError{Param: "min_detectable_effect", Value: p.MinDetectableEffect, Reason: "must not exceed 1"}
	case !inUnit(p.SignificanceLevel) || p.SignificanceLevel <= 0:
		return &ParamError{Param: "significance_level", Value: p.SignificanceLevel, Reason: "must be in (0, 1]"}
	case !inUnit(p.Power) || p.Power <= 0 || p.Power >= 1:
		return &ParamError{Param: "power", Value: p.Power, Reason: "must be in (0, 1)"}
	case p.DurationDays <= 0:
		return &ParamError{Param: "duration_days", Value: float64(p.DurationDays), Reason: "must be at least 1"}
	}

	if p2 := p.VariantCVR(); p2 > 1 {
		return &ParamError{Param: "min_detectable_effect", Value: p.MinDetectableEffect, Reason: fmt.Sprintf("variant conversion rate %.4f exceeds 1", p2)}
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
