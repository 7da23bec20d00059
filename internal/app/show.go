package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"abtest-sizer/internal/service"
)

// Output formats accepted by Calculate.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Calculate sizes one design and prints the result tiles.
func (a *App) Calculate(ctx context.Context, opts CalculateOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatTable
	}
	if format != FormatTable && format != FormatJSON {
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}

	report, err := a.newPlanner(opts.Mode, nil).Plan(ctx, opts.Design)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			service.Report
			Tiles []service.Tile `json:"tiles"`
		}{Report: report, Tiles: report.Tiles()})
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Metric\tValue\tNote")
	for _, tile := range report.Tiles() {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", tile.Label, tile.Value, sanitizeInline(tile.Help))
	}
	fmt.Fprintf(writer, "Mode\t%s\t\n", report.Mode)

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
