package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"abtest-sizer/internal/samplesize"
)

var designValidate *validator.Validate

func init() {
	designValidate = validator.New(validator.WithRequiredStructEnabled())
	designValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Design holds the seven inputs of one sizing request.
// DurationDays is capped to bound the per-day accumulation loop.
type Design struct {
	ControlCVR          float64 `json:"control_cvr" form:"control_cvr" validate:"gt=0,lte=1"`
	MinDetectableEffect float64 `json:"min_detectable_effect" form:"min_detectable_effect" validate:"gte=0,lte=1"`
	SignificanceLevel   float64 `json:"significance_level" form:"significance_level" validate:"gt=0,lte=1"`
	Power               float64 `json:"power" form:"power" validate:"gte=0,lte=1"`
	DailyTraffic        int64   `json:"daily_traffic" form:"daily_traffic" validate:"gte=1"`
	ControlTrafficSplit float64 `json:"control_traffic_split" form:"control_traffic_split" validate:"gte=20,lte=100"`
	DurationDays        int     `json:"duration_days" form:"duration_days" validate:"gte=1,lte=3650"`
}

// Params projects the fields the calculator consumes.
func (d Design) Params() samplesize.Params {
	return samplesize.Params{
		ControlCVR:          d.ControlCVR,
		MinDetectableEffect: d.MinDetectableEffect,
		SignificanceLevel:   d.SignificanceLevel,
		Power:               d.Power,
		DurationDays:        d.DurationDays,
	}
}

// Validate checks the documented input ranges.
func (d Design) Validate() error {
	err := designValidate.Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate design: %w", err)
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = describe(fe)
	}
	return verr
}

// ValidationError lists out-of-range inputs keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid design: " + strings.Join(parts, "; ")
}

// Unwrap ties boundary validation to the calculator's error taxonomy.
func (e *ValidationError) Unwrap() error {
	return samplesize.ErrInvalidParameter
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
