package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"abtest-sizer/internal/samplesize"
)

// Report is the full result of one sizing request.
type Report struct {
	Design                  Design          `json:"design"`
	Mode                    samplesize.Mode `json:"mode"`
	SampleSize              int64           `json:"sample_size"`
	ControlTraffic          decimal.Decimal `json:"control_traffic"`
	VariantTraffic          decimal.Decimal `json:"variant_traffic"`
	MinimumTestDurationDays int64           `json:"minimum_test_duration_days"`
	Confidence              Confidence      `json:"confidence"`
	ConfidenceDeltaDays     int             `json:"confidence_delta_days"`
	TargetConfidencePct     decimal.Decimal `json:"target_confidence_pct"`
}

// Tile is one labelled result value, preformatted for display.
type Tile struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Help  string `json:"help,omitempty"`
}

// Tiles lists the result values in form order.
func (r Report) Tiles() []Tile {
	baseline := decimal.NewFromFloat(r.Design.ControlCVR).Mul(hundred)

	return []Tile{
		{Label: "Total Traffic Required", Value: fmt.Sprintf("%d", r.SampleSize), Help: "Total traffic required based on the inputs"},
		{Label: "Control Traffic", Value: r.ControlTraffic.RoundBank(0).String(), Help: "Control traffic based on the estimated proportion to control"},
		{Label: "Variant Traffic", Value: r.VariantTraffic.RoundBank(0).String(), Help: "Variant traffic assumed for the test"},
		{Label: "Minimum Days For Test Duration", Value: fmt.Sprintf("%d Days", r.MinimumTestDurationDays), Help: "Minimum number of days the test stays live"},
		{Label: "Results Strength", Value: r.Confidence.String(), Help: fmt.Sprintf("%+d days against the confidence threshold", r.ConfidenceDeltaDays)},
		{Label: "Baseline Conversion Rate", Value: baseline.StringFixed(2) + " %"},
		{Label: "Target Test Confidence", Value: r.TargetConfidencePct.RoundBank(0).String() + "%", Help: "Target test confidence based on the significance level"},
		{Label: "Target Days To Achieve Test Confidence", Value: fmt.Sprintf("%d Days", r.Design.DurationDays), Help: "Number of days to reach the target test confidence"},
	}
}
