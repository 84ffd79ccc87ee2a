package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/piwi3910/FoamNest/internal/engine"
	"github.com/piwi3910/FoamNest/internal/export"
	"github.com/piwi3910/FoamNest/internal/gcode"
	"github.com/piwi3910/FoamNest/internal/importer"
	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/piwi3910/FoamNest/internal/project"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type nestOptions struct {
	mode    string
	length  float64
	width   float64
	kerf    float64
	margin  float64
	height  float64
	profile string
	timeout time.Duration
	compare bool

	jobPath    string
	pdfPath    string
	labelsPath string
	dxfPath    string
	dxfBorders bool
	xlsxPath   string
	gcodeDir   string
}

func newNestCommand() *cobra.Command {
	var opts nestOptions
	cmd := &cobra.Command{
		Use:   "nest <parts-file>",
		Short: "Nest the parts of a DXF, JSON, CSV or Excel file onto sheets.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			if err := runNest(cmd.Context(), env, args[0], opts, cmd.OutOrStdout()); err != nil {
				return err
			}
			if opts.jobPath == "" {
				return nil
			}
			project.AddRecentJob(&env.config, opts.jobPath)
			if err := project.SaveAppConfig(env.configPath, env.config); err != nil {
				logrus.Warnf("could not record recent job: %v", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mode, "mode", "auto", "packer: rect, polygon, or auto (polygon for DXF input)")
	f.Float64Var(&opts.length, "length", 0, "sheet length in mm (default from config)")
	f.Float64Var(&opts.width, "width", 0, "sheet width in mm (default from config)")
	f.Float64Var(&opts.kerf, "kerf", -1, "kerf in mm (default from config)")
	f.Float64Var(&opts.margin, "margin", -1, "sheet margin in mm (default from config)")
	f.Float64Var(&opts.height, "height", 0, "thickness for parts without one, in mm")
	f.StringVar(&opts.profile, "profile", "", "G-code profile name")
	f.DurationVar(&opts.timeout, "timeout", 0, "polygon nesting time limit")
	f.BoolVar(&opts.compare, "compare", false, "compare sheet scenarios for the rectangle packer")
	f.StringVar(&opts.jobPath, "json", "", "save the job and its result as JSON")
	f.StringVar(&opts.pdfPath, "pdf", "", "write a PDF cut sheet")
	f.StringVar(&opts.labelsPath, "labels", "", "write a PDF label sheet")
	f.StringVar(&opts.dxfPath, "dxf", "", "write the nested outlines as DXF")
	f.BoolVar(&opts.dxfBorders, "dxf-borders", false, "include sheet borders and labels in the DXF")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "write the cut list and order lines as Excel")
	f.StringVar(&opts.gcodeDir, "gcode", "", "directory for per-sheet G-code files")
	return cmd
}

// applyOverrides copies the command-line sheet and CNC overrides onto the
// configured settings.
func applyOverrides(s *model.NestSettings, opts nestOptions) {
	if opts.length > 0 {
		s.SheetLength = opts.length
	}
	if opts.width > 0 {
		s.SheetWidth = opts.width
	}
	if opts.kerf >= 0 {
		s.Kerf = opts.kerf
	}
	if opts.margin >= 0 {
		s.Margin = opts.margin
	}
	if opts.height > 0 {
		s.DefaultHeight = opts.height
	}
	if opts.profile != "" {
		s.GCodeProfile = opts.profile
	}
	if opts.timeout > 0 {
		s.NestTimeoutSecs = int(opts.timeout.Round(time.Second) / time.Second)
		if s.NestTimeoutSecs == 0 {
			s.NestTimeoutSecs = 1
		}
	}
}

func runNest(ctx context.Context, env *environment, path string, opts nestOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings := env.settings
	applyOverrides(&settings, opts)
	sheet := settings.Sheet()
	if sheet.UsableWidth() <= 0 || sheet.UsableLength() <= 0 {
		return fmt.Errorf("sheet %gx%g has no usable area inside margin %g", sheet.Length, sheet.Width, sheet.Margin)
	}

	loader := importer.NewLoader(settings)
	loader.Catalog = &env.catalog
	loaded, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	for _, w := range loaded.Warnings {
		logrus.Warn(w)
	}

	mode := opts.mode
	if mode == "auto" {
		mode = "rect"
		if loaded.Format == "dxf" {
			mode = "polygon"
		}
	}

	nester := engine.New(settings)
	job := project.NewJob(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), settings)
	job.Parts = loaded.Parts
	job.PolygonParts = loaded.PolygonParts

	var layout model.Layout
	var lines []model.OrderLine
	switch mode {
	case "rect":
		result := nester.NestRectangles(loaded.Parts)
		job.RectResult = &result
		layout = result.Layout(sheet)
		lines = model.BuildOrderLines(result.Placements)
	case "polygon":
		result, err := nester.NestPolygons(ctx, loaded.PolygonParts)
		if err != nil {
			return fmt.Errorf("polygon nesting: %w", err)
		}
		job.PolygonResult = &result
		layout = result.Layout(sheet)
		lines = model.BuildPolygonOrderLines(result.Placements)
	default:
		return fmt.Errorf("unknown mode %q (want rect, polygon or auto)", opts.mode)
	}

	logrus.WithFields(logrus.Fields{
		"file":        path,
		"mode":        mode,
		"parts":       layout.PartCount(),
		"sheets":      len(layout.Sheets),
		"utilization": layout.Utilization,
	}).Info("nested")

	printSummary(out, loaded, mode, layout, model.EstimateCost(lines, env.catalog))
	if !layout.Feasible {
		logrus.Warnf("%d parts do not fit the %gx%g sheet and were placed on their own sheets",
			layout.FlaggedCount(), sheet.Length, sheet.Width)
	}
	if opts.compare {
		printComparison(out, engine.CompareScenarios(engine.BuildDefaultScenarios(sheet), loaded.Parts))
	}

	return writeOutputs(env, settings, job, layout, lines, opts, out)
}

func writeOutputs(env *environment, settings model.NestSettings, job project.Job, layout model.Layout, lines []model.OrderLine, opts nestOptions, out io.Writer) error {
	if opts.jobPath != "" {
		if err := project.SaveJob(opts.jobPath, job); err != nil {
			return fmt.Errorf("saving job: %w", err)
		}
		fmt.Fprintf(out, "Job saved to %s\n", opts.jobPath)
	}
	if opts.pdfPath != "" {
		if err := export.ExportPDF(opts.pdfPath, layout, job.Name); err != nil {
			return fmt.Errorf("writing PDF: %w", err)
		}
		fmt.Fprintf(out, "Cut sheet written to %s\n", opts.pdfPath)
	}
	if opts.labelsPath != "" {
		if err := export.ExportLabels(opts.labelsPath, layout); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		}
		fmt.Fprintf(out, "Labels written to %s\n", opts.labelsPath)
	}
	if opts.dxfPath != "" {
		dxfOpts := export.DXFOptions{SheetBorders: opts.dxfBorders, Labels: opts.dxfBorders}
		if err := export.ExportDXF(opts.dxfPath, layout, dxfOpts); err != nil {
			return fmt.Errorf("writing DXF: %w", err)
		}
		fmt.Fprintf(out, "DXF written to %s\n", opts.dxfPath)
	}
	if opts.xlsxPath != "" {
		if err := export.ExportXLSX(opts.xlsxPath, layout, lines, env.catalog); err != nil {
			return fmt.Errorf("writing Excel: %w", err)
		}
		fmt.Fprintf(out, "Excel workbook written to %s\n", opts.xlsxPath)
	}
	if opts.gcodeDir != "" {
		if err := writeGCode(opts.gcodeDir, settings, env.profiles, layout, out); err != nil {
			return fmt.Errorf("writing G-code: %w", err)
		}
	}
	return nil
}

// writeGCode writes one file per sheet and checks each program against the
// sheet bounds.
func writeGCode(dir string, settings model.NestSettings, custom []model.GCodeProfile, layout model.Layout, out io.Writer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	gen := gcode.NewWithProfile(settings, model.ResolveProfile(settings.GCodeProfile, custom))
	for i, code := range gen.GenerateAll(layout) {
		for _, w := range gcode.FormatBoundsWarnings(gcode.CheckBounds(gcode.ParseGCode(code), layout.Sheet)) {
			logrus.Warnf("sheet %d: %s", i+1, w)
		}
		path := filepath.Join(dir, fmt.Sprintf("sheet%d.gcode", i+1))
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "G-code (%s) written to %s\n", gen.Profile().Name, path)
	}
	return nil
}

func printSummary(out io.Writer, loaded *importer.LoadResult, mode string, layout model.Layout, cost model.CostEstimate) {
	fmt.Fprintf(out, "Input:       %s, %d part types\n", loaded.Format, len(loaded.Parts))
	fmt.Fprintf(out, "Packer:      %s\n", mode)
	fmt.Fprintf(out, "Placed:      %d parts on %d sheets\n", layout.PartCount(), len(layout.Sheets))
	fmt.Fprintf(out, "Utilization: %.1f%%\n", layout.Utilization*100)
	if n := layout.FlaggedCount(); n > 0 {
		fmt.Fprintf(out, "Oversized:   %d\n", n)
	}
	fmt.Fprintf(out, "Material:    %.2f\n", cost.TotalCost)
	for _, w := range cost.Warnings {
		logrus.Debug(w)
	}
}

func printComparison(out io.Writer, results []engine.ComparisonResult) {
	fmt.Fprintln(out, "\nScenario comparison:")
	for _, r := range results {
		fmt.Fprintf(out, "  %-28s sheets %3d  waste %5.1f%%  mean %5.1f%%  sd %4.1f%%\n",
			r.Scenario.Name, r.SheetsUsed, r.WastePercent, r.MeanUtilization*100, r.StdUtilization*100)
	}
}
