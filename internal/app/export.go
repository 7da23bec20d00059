package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"abtest-sizer/internal/service"
)

// Sweep sizes the design across a range of minimum detectable effects and writes CSV and/or PNG.
func (a *App) Sweep(ctx context.Context, opts SweepOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.Steps = a.Config.ResolveSweepSteps(opts.Steps)

	points, err := a.newPlanner(opts.Mode, nil).Sweep(ctx, opts.Design, service.SweepRange{
		From:  opts.From,
		To:    opts.To,
		Steps: opts.Steps,
	})
	if err != nil {
		return err
	}

	a.Logger.Info().Int("points", len(points)).Float64("from", opts.From).Float64("to", opts.To).Msg("exporting sweep")

	if opts.CSVPath != "" {
		if err := writeSweepCSV(opts.CSVPath, points); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSweepPNG(opts.PNGPath, points, a.Config.Export.ChartWidth, a.Config.Export.ChartHeight); err != nil {
			return err
		}
	}

	return nil
}

func writeSweepCSV(path string, points []service.SweepPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"mde", "variant_cvr", "sample_size", "minimum_days", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, point := range points {
		record := []string{
			strconv.FormatFloat(point.MinDetectableEffect, 'f', 6, 64),
			strconv.FormatFloat(point.VariantCVR, 'f', 6, 64),
			"",
			"",
			"",
		}
		if point.Err != nil {
			record[4] = sanitizeInline(point.Err.Error())
		} else {
			record[2] = strconv.FormatInt(point.SampleSize, 10)
			record[3] = strconv.FormatInt(point.MinimumDays, 10)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeSweepPNG(path string, points []service.SweepPoint, width, height int) error {
	x := make([]float64, 0, len(points))
	sizes := make([]float64, 0, len(points))
	days := make([]float64, 0, len(points))

	for _, point := range points {
		if point.Err != nil {
			continue
		}
		x = append(x, point.MinDetectableEffect*100)
		sizes = append(sizes, float64(point.SampleSize))
		days = append(days, float64(point.MinimumDays))
	}
	if len(x) < 2 {
		return errors.New("not enough valid sweep points to chart")
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name: "Minimum detectable effect (%)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f")
			},
		},
		YAxis: chart.YAxis{
			Name: "Sample size",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxisSecondary: chart.YAxis{
			Name: "Minimum days",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Sample size",
				XValues: x,
				YValues: sizes,
			},
			chart.ContinuousSeries{
				Name:    "Minimum days",
				XValues: x,
				YValues: days,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.YAxis.Range = flatRange(sizes)
	graph.YAxisSecondary.Range = flatRange(days)
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// flatRange pads a constant series; go-chart rejects zero-width ranges.
func flatRange(values []float64) chart.Range {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo != hi {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
