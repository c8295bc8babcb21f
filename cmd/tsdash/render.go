package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsdash/internal/charts"
	"tsdash/internal/models"
)

var (
	renderOut      string
	renderFormat   string
	renderSnapshot string
	renderWidget   string
	renderPointer  float64
)

func createRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch once (or load a snapshot file) and write every widget frame",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	cmd.Flags().StringVarP(&renderOut, "output", "o", "frames", "Output directory")
	cmd.Flags().StringVarP(&renderFormat, "format", "f", "svg", "Frame format: svg or png")
	cmd.Flags().StringVar(&renderSnapshot, "snapshot", "", "Snapshot JSON file to apply instead of fetching")
	cmd.Flags().StringVar(&renderWidget, "widget", "", "Widget the snapshot file belongs to")
	cmd.Flags().Float64Var(&renderPointer, "pointer", -1, "Render with the pointer at this x pixel")
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := charts.ParseFormat(renderFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, dashboardFile)
	if err != nil {
		return err
	}

	if renderSnapshot != "" {
		if err := a.applySnapshotFile(renderWidget, renderSnapshot); err != nil {
			return err
		}
	} else if err := a.loadOnce(ctx); err != nil {
		return err
	}

	var sources []charts.Source
	for _, w := range a.dash.Widgets() {
		if renderPointer >= 0 {
			w.Engine().PointerMove(renderPointer, w.Spec.Height/2)
		}
		sources = append(sources, w)
	}

	files, err := charts.NewChartGenerator(renderOut).GenerateFrames(sources, format)
	if err != nil {
		return err
	}
	for _, f := range files {
		color.New(color.FgGreen).Printf("  wrote ")
		fmt.Println(f)
	}
	return nil
}

// applySnapshotFile loads a snapshot document from disk into one widget
func (a *app) applySnapshotFile(widgetID, path string) error {
	if widgetID == "" {
		return fmt.Errorf("--widget is required with --snapshot")
	}
	w, err := a.dash.Widget(widgetID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	w.Apply(&snap)
	return nil
}
