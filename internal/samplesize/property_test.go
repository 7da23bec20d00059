package samplesize

import (
	"testing"

	"pgregory.net/rapid"
)

func drawParams(t *rapid.T) Params {
	return Params{
		ControlCVR:          rapid.Float64Range(0.01, 0.5).Draw(t, "control_cvr"),
		MinDetectableEffect: rapid.Float64Range(0.01, 0.9).Draw(t, "mde"),
		SignificanceLevel:   rapid.Float64Range(0.01, 0.5).Draw(t, "alpha"),
		Power:               rapid.Float64Range(0.001, 0.999).Draw(t, "power"),
		DurationDays:        rapid.IntRange(1, 60).Draw(t, "duration_days"),
	}
}

func TestPropertyPositiveSampleSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := drawParams(rt)
		got, err := Compute(p)
		if err != nil {
			rt.Fatalf("valid params rejected: %v", err)
		}
		if got < 1 {
			rt.Fatalf("sample size %d is not positive", got)
		}
	})
}

func TestPropertySmallerEffectNeedsMoreData(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := drawParams(rt)
		smaller := p
		smaller.MinDetectableEffect = rapid.Float64Range(0.005, p.MinDetectableEffect).Draw(rt, "smaller_mde")

		large, err := Compute(p)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		small, err := Compute(smaller)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if small < large {
			rt.Fatalf("mde %.4f gave %d, smaller mde %.4f gave %d", p.MinDetectableEffect, large, smaller.MinDetectableEffect, small)
		}
	})
}

func TestPropertyMorePowerNeverShrinks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := drawParams(rt)
		stronger := p
		stronger.Power = rapid.Float64Range(p.Power, 0.999).Draw(rt, "stronger_power")

		base, err := Compute(p)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		more, err := Compute(stronger)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if more < base {
			rt.Fatalf("power %.4f gave %d, power %.4f gave %d", p.Power, base, stronger.Power, more)
		}
	})
}

func TestPropertyDurationScalesLinearly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := drawParams(rt)
		one := p
		one.DurationDays = 1

		single, err := Compute(one)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		total, err := Compute(p)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		// Each day's ceiling can add at most one unit.
		d := int64(p.DurationDays)
		if total > d*single || total < d*single-d {
			rt.Fatalf("duration %d gave %d, want within [%d, %d]", d, total, d*single-d, d*single)
		}
	})
}

func TestPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := drawParams(rt)
		first, err1 := Compute(p)
		second, err2 := Compute(p)
		if first != second || (err1 == nil) != (err2 == nil) {
			rt.Fatalf("repeat calls disagree: %d/%v vs %d/%v", first, err1, second, err2)
		}
	})
}
