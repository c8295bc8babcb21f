package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tsdash/internal/dashboard"
	"tsdash/internal/reports"
	"tsdash/internal/stats"
)

var inspectPointer float64

func createInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Fetch once and print the legend and series statistics of every widget",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}
	cmd.Flags().Float64Var(&inspectPointer, "pointer", -1, "Show legend values with the pointer at this x pixel")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), dashboardFile)
	if err != nil {
		return err
	}
	if err := a.loadOnce(cmd.Context()); err != nil {
		return err
	}

	color.New(color.FgCyan).Add(color.Bold).Printf("\n=== %s ===\n", a.dash.Title)
	for _, w := range a.dash.Widgets() {
		if inspectPointer >= 0 {
			w.Engine().PointerMove(inspectPointer, w.Spec.Height/2)
		}
		printWidget(os.Stdout, w)
	}
	return nil
}

// printWidget writes the legend of a widget as a table with per-series statistics
func printWidget(out io.Writer, w *dashboard.Widget) {
	eng := w.Engine()
	header := fmt.Sprintf("\n%s (%s, %s)", reports.WidgetTitle(w.ID(), w.Title()), eng.Kind().Name(), eng.State())
	if ts, ok := eng.HoverTime(); ok {
		header += fmt.Sprintf(" at %s", ts.Format(time.RFC3339))
	} else if pos, ok := eng.HoverPosition(); ok {
		header += fmt.Sprintf(" at x=%g", pos.DomainX)
	}
	color.New(color.FgGreen).Add(color.Bold).Fprintln(out, header)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Series", "Value", "Count", "Min", "Avg", "P95", "Max"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	legend := eng.Legend()
	for i, s := range w.Chart().Series() {
		sum := stats.Summarize(s)
		row := []string{legend[i].Title, legend[i].Value, fmt.Sprint(sum.Count), "-", "-", "-", "-"}
		if sum.Count > 0 {
			row[3] = eng.FormatValue(sum.Min)
			row[4] = eng.FormatValue(sum.Mean)
			row[5] = eng.FormatValue(sum.P95)
			row[6] = eng.FormatValue(sum.Max)
		}
		table.Append(row)
	}
	table.Render()
}
