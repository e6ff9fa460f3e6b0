package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/config"
	"github.com/jmylchreest/blazedock/internal/magnify"
)

var scalesOpts struct {
	pointer float64
	focus   int
	count   int
	format  string
}

var scalesCmd = &cobra.Command{
	Use:   "scales",
	Short: "Compute magnification scales from the config",
	Long: `Compute the scale of every pinned item for a given pointer position or
focused index, using the magnification settings in the config file. The
running dock is not contacted.

The pointer position is given in the configured unit: slot indices for
"slots" (1.5 is halfway between the second and third item) or pixels
along the dock for "pixels".

Examples:
  # Scales with the pointer over the third item
  blazectl scales --pointer 2

  # Scales with keyboard focus on the first item, as JSON
  blazectl scales --focus 0 --format json`,
	RunE: runScales,
}

func init() {
	rootCmd.AddCommand(scalesCmd)

	scalesCmd.Flags().Float64Var(&scalesOpts.pointer, "pointer", 0,
		"Pointer position in the configured unit")
	scalesCmd.Flags().IntVar(&scalesOpts.focus, "focus", -1,
		"Focused item index (takes precedence over --pointer)")
	scalesCmd.Flags().IntVarP(&scalesOpts.count, "count", "n", 0,
		"Number of items (default: number of pinned apps)")
	scalesCmd.Flags().StringVarP(&scalesOpts.format, "format", "f", "text",
		"Output format (text, json, yaml)")
}

// scaleRow is one item in the scales output.
type scaleRow struct {
	Index    int     `json:"index" yaml:"index"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Position float64 `json:"position" yaml:"position"`
	Scale    float64 `json:"scale" yaml:"scale"`
}

// scalesReport is the scales command's output document.
type scalesReport struct {
	Source    string     `json:"source" yaml:"source"`
	Reference float64    `json:"reference" yaml:"reference"`
	Items     []scaleRow `json:"items" yaml:"items"`
}

// computeScales evaluates the magnification for count items. A focus index
// of zero or more wins over pointerSet.
func computeScales(cfg *config.Config, count, focus int, pointer float64, pointerSet bool) (scalesReport, error) {
	if count <= 0 {
		count = len(cfg.Pinned)
	}

	layout := cfg.Geometry().SlotLayout(count)
	ctrl := magnify.NewController(cfg.Magnify(), layout)

	switch {
	case focus >= 0:
		if focus >= count {
			return scalesReport{}, fmt.Errorf("focus index %d out of range (0-%d)", focus, count-1)
		}
		ctrl.FocusIndex(focus)
	case pointerSet:
		ctrl.UpdatePointer(pointer)
	}

	ref, source := ctrl.Reference()
	report := scalesReport{Source: source.String(), Reference: ref}
	for i, s := range ctrl.AllScales() {
		row := scaleRow{Index: i, Position: layout[i].Position, Scale: s}
		if i < len(cfg.Pinned) {
			row.Name = cfg.Pinned[i].Name
		}
		report.Items = append(report.Items, row)
	}
	return report, nil
}

func runScales(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, warning := range cfg.Sanitize() {
		logger.Warn("config adjusted", "reason", warning)
	}

	report, err := computeScales(cfg, scalesOpts.count, scalesOpts.focus,
		scalesOpts.pointer, cmd.Flags().Changed("pointer"))
	if err != nil {
		return err
	}

	if scalesOpts.format != "text" {
		return writeStructured(cmd.OutOrStdout(), scalesOpts.format, report)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderScalesTable(report))
	return nil
}

// renderScalesTable draws the report, highlighting the largest scale.
func renderScalesTable(report scalesReport) string {
	peak, best := -1, 1.0
	rows := make([][]string, len(report.Items))
	for i, item := range report.Items {
		if item.Scale > best {
			peak, best = i, item.Scale
		}
		rows[i] = []string{
			strconv.Itoa(item.Index),
			item.Name,
			strconv.FormatFloat(item.Position, 'f', 1, 64),
			strconv.FormatFloat(item.Scale, 'f', 3, 64),
		}
	}
	title := fmt.Sprintf("source: %s", report.Source)
	if report.Source != magnify.SourceNone.String() {
		title += fmt.Sprintf("  reference: %.2f", report.Reference)
	}
	return title + "\n" + renderTable([]string{"#", "Name", "Position", "Scale"}, rows, peak)
}
