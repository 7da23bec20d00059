package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"abtest-sizer/internal/samplesize"
)

// Outcome labels recorded for every calculation.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeOverflow = "overflow"
)

// MaxSweepSteps bounds the number of points a single sweep evaluates.
const MaxSweepSteps = 10000

// Recorder observes finished calculations.
type Recorder interface {
	ObserveCalculation(outcome string, sampleSize int64)
}

// Options tune planner behaviour.
type Options struct {
	Mode               samplesize.Mode
	HighConfidenceDays int
	Recorder           Recorder
}

// Planner validates designs, runs the calculator and derives the result metrics.
// It holds no mutable state and is safe for concurrent use.
type Planner struct {
	calc          samplesize.Calculator
	highThreshold int
	recorder      Recorder
	logger        zerolog.Logger
}

// New constructs a planner.
func New(opts Options, logger zerolog.Logger) *Planner {
	threshold := opts.HighConfidenceDays
	if threshold <= 0 {
		threshold = DefaultHighConfidenceDays
	}
	mode := opts.Mode
	if mode == "" {
		mode = samplesize.ModePerDay
	}

	return &Planner{
		calc:          samplesize.Calculator{Mode: mode},
		highThreshold: threshold,
		recorder:      opts.Recorder,
		logger:        logger.With().Str("component", "planner").Logger(),
	}
}

// Mode reports the accumulation mode in use.
func (p *Planner) Mode() samplesize.Mode {
	return p.calc.Mode
}

// Plan sizes a single design.
func (p *Planner) Plan(ctx context.Context, d Design) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	if err := d.Validate(); err != nil {
		p.observe(err, 0)
		return Report{}, err
	}

	size, err := p.calc.Compute(d.Params())
	p.observe(err, size)
	if err != nil {
		return Report{}, fmt.Errorf("compute sample size: %w", err)
	}

	control, variant := SplitTraffic(size, d.ControlTrafficSplit)
	confidence, delta := ClassifyConfidence(d.DurationDays, p.highThreshold)

	report := Report{
		Design:                  d,
		Mode:                    p.calc.Mode,
		SampleSize:              size,
		ControlTraffic:          control,
		VariantTraffic:          variant,
		MinimumTestDurationDays: MinimumDuration(size, d.DailyTraffic),
		Confidence:              confidence,
		ConfidenceDeltaDays:     delta,
		TargetConfidencePct:     TargetConfidencePct(d.SignificanceLevel),
	}

	p.logger.Debug().
		Int64("sample_size", size).
		Int64("minimum_days", report.MinimumTestDurationDays).
		Str("confidence", confidence.String()).
		Str("mode", string(p.calc.Mode)).
		Msg("design sized")

	return report, nil
}

// SweepRange describes evenly spaced minimum detectable effects, both ends inclusive.
type SweepRange struct {
	From  float64
	To    float64
	Steps int
}

// Validate checks the range bounds.
func (r SweepRange) Validate() error {
	if r.Steps < 2 || r.Steps > MaxSweepSteps {
		return fmt.Errorf("sweep steps must be between 2 and %d", MaxSweepSteps)
	}
	if r.From <= 0 || r.To > 1 {
		return errors.New("sweep range must lie within (0, 1]")
	}
	if r.From >= r.To {
		return errors.New("sweep start must be below sweep end")
	}
	return nil
}

// Values expands the range into its sample points.
func (r SweepRange) Values() []float64 {
	step := (r.To - r.From) / float64(r.Steps-1)
	values := make([]float64, r.Steps)
	for i := range values {
		values[i] = r.From + step*float64(i)
	}
	values[len(values)-1] = r.To
	return values
}

// SweepPoint is the sizing outcome for one minimum detectable effect.
type SweepPoint struct {
	MinDetectableEffect float64
	VariantCVR          float64
	SampleSize          int64
	MinimumDays         int64
	Err                 error
}

// Sweep sizes d across the range of minimum detectable effects. Points whose effect
// cannot be sized carry their error instead of failing the whole sweep.
func (p *Planner) Sweep(ctx context.Context, d Design, r SweepRange) ([]SweepPoint, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	values := r.Values()
	points := make([]SweepPoint, 0, len(values))
	failed := 0
	for _, mde := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		variant := d
		variant.MinDetectableEffect = mde
		params := variant.Params()

		point := SweepPoint{MinDetectableEffect: mde, VariantCVR: params.VariantCVR()}
		size, err := p.calc.Compute(params)
		p.observe(err, size)
		if err != nil {
			point.Err = err
			failed++
		} else {
			point.SampleSize = size
			point.MinimumDays = MinimumDuration(size, d.DailyTraffic)
		}
		points = append(points, point)
	}

	p.logger.Info().Int("points", len(points)).Int("failed", failed).Msg("sweep complete")
	return points, nil
}

func (p *Planner) observe(err error, size int64) {
	if p.recorder == nil {
		return
	}
	p.recorder.ObserveCalculation(outcomeOf(err), size)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, samplesize.ErrNumericOverflow):
		return OutcomeOverflow
	default:
		return OutcomeInvalid
	}
}
