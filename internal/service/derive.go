package service

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultHighConfidenceDays is the duration from which results count as high confidence.
const DefaultHighConfidenceDays = 14

var hundred = decimal.NewFromInt(100)

// Confidence grades how likely the planned duration is to produce a usable result.
type Confidence int

const (
	// LowConfidence marks a duration shorter than the confidence threshold.
	LowConfidence Confidence = iota
	// HighConfidence marks a duration at or past the confidence threshold.
	HighConfidence
)

func (c Confidence) String() string {
	if c == HighConfidence {
		return "High Confidence"
	}
	return "Low Confidence"
}

// MarshalJSON encodes the label rather than the ordinal.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// SplitTraffic divides sampleSize between control and variant by the control percentage.
func SplitTraffic(sampleSize int64, controlSplitPct float64) (control, variant decimal.Decimal) {
	total := decimal.NewFromInt(sampleSize)
	control = total.Mul(decimal.NewFromFloat(controlSplitPct)).Div(hundred)
	variant = total.Sub(control)
	return control, variant
}

// MinimumDuration is the number of whole days needed to collect sampleSize visitors.
func MinimumDuration(sampleSize, dailyTraffic int64) int64 {
	if dailyTraffic <= 0 {
		return 0
	}
	days := sampleSize / dailyTraffic
	if sampleSize%dailyTraffic != 0 {
		days++
	}
	return days
}

// ClassifyConfidence grades durationDays against thresholdDays and returns the signed distance.
func ClassifyConfidence(durationDays, thresholdDays int) (Confidence, int) {
	delta := durationDays - thresholdDays
	if durationDays >= thresholdDays {
		return HighConfidence, delta
	}
	return LowConfidence, delta
}

// TargetConfidencePct converts a significance level into the confidence percentage it targets.
func TargetConfidencePct(significanceLevel float64) decimal.Decimal {
	return hundred.Sub(decimal.NewFromFloat(significanceLevel).Mul(hundred))
}
