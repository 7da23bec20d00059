package cli

import (
	"github.com/spf13/pflag"

	"abtest-sizer/internal/samplesize"
	"abtest-sizer/internal/service"
)

// designFlags binds the seven design inputs; unset flags keep the configured defaults.
type designFlags struct {
	controlCVR   float64
	mde          float64
	alpha        float64
	power        float64
	dailyTraffic int64
	controlSplit float64
	durationDays int
	mode         string
}

func (f *designFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.controlCVR, "control-cvr", 0, "Baseline conversion rate, in (0, 1]")
	fs.Float64Var(&f.mde, "mde", 0, "Minimum detectable effect as a relative proportion, in (0, 1]")
	fs.Float64Var(&f.alpha, "alpha", 0, "Significance level, in (0, 1]")
	fs.Float64Var(&f.power, "power", 0, "Statistical power, in (0, 1)")
	fs.Int64Var(&f.dailyTraffic, "daily-traffic", 0, "Daily visitors to the page")
	fs.Float64Var(&f.controlSplit, "control-split", 0, "Percentage of traffic sent to control, in [20, 100]")
	fs.IntVar(&f.durationDays, "days", 0, "Planned test duration in days")
	fs.StringVar(&f.mode, "mode", "", "Accumulation mode: per_day or single (defaults to config)")
}

func (f *designFlags) apply(fs *pflag.FlagSet, d service.Design) service.Design {
	if fs.Changed("control-cvr") {
		d.ControlCVR = f.controlCVR
	}
	if fs.Changed("mde") {
		d.MinDetectableEffect = f.mde
	}
	if fs.Changed("alpha") {
		d.SignificanceLevel = f.alpha
	}
	if fs.Changed("power") {
		d.Power = f.power
	}
	if fs.Changed("daily-traffic") {
		d.DailyTraffic = f.dailyTraffic
	}
	if fs.Changed("control-split") {
		d.ControlTrafficSplit = f.controlSplit
	}
	if fs.Changed("days") {
		d.DurationDays = f.durationDays
	}
	return d
}

func (f *designFlags) resolveMode() (samplesize.Mode, error) {
	if f.mode == "" {
		return "", nil
	}
	return samplesize.ParseMode(f.mode)
}
