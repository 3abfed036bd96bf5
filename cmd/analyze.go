package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atlasgrid/geochange/app"
	"github.com/atlasgrid/geochange/config"
	"github.com/atlasgrid/geochange/infra/logger"
)

var analyzeSite string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a single change-detection pass and print the summary",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSite, "site", "s", "", "site to analyze")
	if err := analyzeCmd.MarkFlagRequired("site"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// A one-shot pass has no use for the live ingest.
	cfg.Ingest.Enabled = false

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("analyze-command").Errorf("service close: %v", err)
		}
	}()

	out, err := svc.Manager.Analyze(ctx, analyzeSite)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analyzeSite, err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out.Summary); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "geojson: %s\nvisualization: %s\n",
		out.Run.GeoJSONPath, out.Run.VisualizationPath)
	return nil
}
