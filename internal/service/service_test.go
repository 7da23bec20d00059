package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"abtest-sizer/internal/samplesize"
)

type recordedCall struct {
	outcome string
	size    int64
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) ObserveCalculation(outcome string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{outcome: outcome, size: size})
}

func defaultDesign() Design {
	return Design{
		ControlCVR:          0.02,
		MinDetectableEffect: 0.03,
		SignificanceLevel:   0.05,
		Power:               0.8,
		DailyTraffic:        10000,
		ControlTrafficSplit: 20,
		DurationDays:        14,
	}
}

func TestPlanDerivesAllMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	planner := New(Options{Recorder: rec}, zerolog.Nop())

	report, err := planner.Plan(context.Background(), defaultDesign())
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	single, err := samplesize.Compute(defaultDesign().Params())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if report.SampleSize != single {
		t.Fatalf("report size %d differs from calculator %d", report.SampleSize, single)
	}
	if report.Mode != samplesize.ModePerDay {
		t.Fatalf("expected per_day mode, got %s", report.Mode)
	}
	if report.Confidence != HighConfidence || report.ConfidenceDeltaDays != 0 {
		t.Fatalf("14 days should be high confidence with zero delta, got %s/%d", report.Confidence, report.ConfidenceDeltaDays)
	}
	if !report.ControlTraffic.Add(report.VariantTraffic).Equal(decimal.NewFromInt(report.SampleSize)) {
		t.Fatalf("traffic split should sum to the sample size")
	}
	if want := MinimumDuration(report.SampleSize, 10000); report.MinimumTestDurationDays != want {
		t.Fatalf("expected %d minimum days, got %d", want, report.MinimumTestDurationDays)
	}
	if report.TargetConfidencePct.String() != "95" {
		t.Fatalf("expected 95 target confidence, got %s", report.TargetConfidencePct)
	}
	if len(rec.calls) != 1 || rec.calls[0].outcome != OutcomeOK {
		t.Fatalf("expected one ok observation, got %#v", rec.calls)
	}
}

func TestPlanSingleMode(t *testing.T) {
	planner := New(Options{Mode: samplesize.ModeSingle}, zerolog.Nop())

	report, err := planner.Plan(context.Background(), defaultDesign())
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if report.SampleSize != 347 {
		t.Fatalf("expected 347 in single mode, got %d", report.SampleSize)
	}
	if report.MinimumTestDurationDays != 1 {
		t.Fatalf("expected one day, got %d", report.MinimumTestDurationDays)
	}
}

func TestPlanCustomThreshold(t *testing.T) {
	planner := New(Options{HighConfidenceDays: 21}, zerolog.Nop())

	report, err := planner.Plan(context.Background(), defaultDesign())
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if report.Confidence != LowConfidence || report.ConfidenceDeltaDays != -7 {
		t.Fatalf("expected low confidence with delta -7, got %s/%d", report.Confidence, report.ConfidenceDeltaDays)
	}
}

func TestPlanRejectsOutOfRangeFields(t *testing.T) {
	rec := &fakeRecorder{}
	planner := New(Options{Recorder: rec}, zerolog.Nop())

	d := defaultDesign()
	d.ControlTrafficSplit = 10
	d.DailyTraffic = 0
	d.DurationDays = 0

	_, err := planner.Plan(context.Background(), d)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !errors.Is(err, samplesize.ErrInvalidParameter) {
		t.Fatal("validation errors should match ErrInvalidParameter")
	}
	for _, field := range []string{"control_traffic_split", "daily_traffic", "duration_days"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s in %v", field, verr.Fields)
		}
	}
	if len(rec.calls) != 1 || rec.calls[0].outcome != OutcomeInvalid {
		t.Fatalf("expected one invalid observation, got %#v", rec.calls)
	}
}

func TestPlanZeroEffectFailsInCalculator(t *testing.T) {
	planner := New(Options{}, zerolog.Nop())

	d := defaultDesign()
	d.MinDetectableEffect = 0

	_, err := planner.Plan(context.Background(), d)
	var perr *samplesize.ParamError
	if !errors.As(err, &perr) || perr.Param != "min_detectable_effect" {
		t.Fatalf("expected min_detectable_effect ParamError, got %v", err)
	}
}

func TestPlanHonoursCancelledContext(t *testing.T) {
	planner := New(Options{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := planner.Plan(ctx, defaultDesign()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSweepRecordsPerPointErrors(t *testing.T) {
	planner := New(Options{Mode: samplesize.ModeSingle}, zerolog.Nop())

	d := defaultDesign()
	d.ControlCVR = 0.6

	points, err := planner.Sweep(context.Background(), d, SweepRange{From: 0.1, To: 1, Steps: 10})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("expected 10 points, got %d", len(points))
	}
	if points[0].Err != nil || points[0].SampleSize < 1 {
		t.Fatalf("first point should size cleanly: %#v", points[0])
	}
	last := points[len(points)-1]
	if last.MinDetectableEffect != 1 {
		t.Fatalf("last point should be the range end, got %v", last.MinDetectableEffect)
	}
	if !errors.Is(last.Err, samplesize.ErrInvalidParameter) {
		t.Fatalf("variant rate 1.2 should be rejected, got %v", last.Err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Err == nil && points[i].SampleSize > points[i-1].SampleSize {
			t.Fatalf("sample size should not grow with the effect: %d then %d", points[i-1].SampleSize, points[i].SampleSize)
		}
	}
}

func TestSweepRangeValidate(t *testing.T) {
	tests := []struct {
		name string
		r    SweepRange
	}{
		{"one step", SweepRange{From: 0.1, To: 0.2, Steps: 1}},
		{"too many steps", SweepRange{From: 0.1, To: 0.2, Steps: MaxSweepSteps + 1}},
		{"zero start", SweepRange{From: 0, To: 0.2, Steps: 5}},
		{"end above one", SweepRange{From: 0.1, To: 1.5, Steps: 5}},
		{"inverted", SweepRange{From: 0.3, To: 0.2, Steps: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestReportTiles(t *testing.T) {
	planner := New(Options{}, zerolog.Nop())
	d := defaultDesign()
	d.DurationDays = 7

	report, err := planner.Plan(context.Background(), d)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	tiles := report.Tiles()
	if len(tiles) != 8 {
		t.Fatalf("expected 8 tiles, got %d", len(tiles))
	}

	byLabel := make(map[string]Tile, len(tiles))
	for _, tile := range tiles {
		byLabel[tile.Label] = tile
	}
	if got := byLabel["Results Strength"]; got.Value != "Low Confidence" || got.Help != "-7 days against the confidence threshold" {
		t.Fatalf("unexpected strength tile %#v", got)
	}
	if got := byLabel["Baseline Conversion Rate"].Value; got != "2.00 %" {
		t.Fatalf("unexpected baseline tile %q", got)
	}
	if got := byLabel["Target Test Confidence"].Value; got != "95%" {
		t.Fatalf("unexpected confidence tile %q", got)
	}
	if got := byLabel["Target Days To Achieve Test Confidence"].Value; got != "7 Days" {
		t.Fatalf("unexpected target days tile %q", got)
	}
}
