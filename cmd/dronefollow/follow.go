package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dronefollow/internal/admin"
	"dronefollow/internal/config"
	"dronefollow/internal/core"
	"dronefollow/internal/logging"
	"dronefollow/internal/perception"
	"dronefollow/internal/sim"
	"dronefollow/internal/telemetry"
	"dronefollow/internal/vehicle"
)

var (
	followPrintOnly  bool
	followTUI        bool
	followConfigPath string
	followSchemaPath string
	followLogFile    string
	followAdminAddr  string
)

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Run the control core against a simulated vehicle and detector",
	Long:  "follow starts the control cycle with a simulated flight controller and a scripted person detector, exposing status and operator signals on the admin port.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(followConfigPath, followSchemaPath)
		if err != nil {
			return err
		}

		writer, cleanup, err := newWriter(cfg, followPrintOnly, followTUI, followLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		vehicleID := os.Getenv("VEHICLE_ID")
		if vehicleID == "" {
			vehicleID = "follow-01"
		}

		log := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		link := vehicle.NewSim(48.2082, 16.3738, 10)
		ingest := perception.NewIngest()
		sampler := telemetry.NewSampler(link, cfg.Rates.TelemetryRateHz)
		detector := sim.NewDetector(ingest, cfg.Rates.DetectionRateHz)
		controller := core.New(cfg, vehicleID, link, ingest, sampler, writer)

		srv := admin.NewServer(controller, followAdminAddr)
		go func() {
			if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin server failed", "err", err)
			}
		}()

		go runPhysics(ctx, link)
		go sampler.Run(ctx)
		go detector.Run(ctx)
		go controller.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		log.Info("control core stopped")
		return nil
	},
}

// runPhysics advances the simulated vehicle at a fixed step.
func runPhysics(ctx context.Context, link *vehicle.Sim) {
	const step = 50 * time.Millisecond
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			link.Tick(step)
		case <-ctx.Done():
			return
		}
	}
}

func init() {
	followCmd.Flags().BoolVar(&followPrintOnly, "print-only", false, "Print status rows to STDOUT instead of writing to DB")
	followCmd.Flags().BoolVar(&followTUI, "tui", false, "Render status in a terminal UI")
	followCmd.Flags().StringVar(&followConfigPath, "config", "config/follow.yaml", "Path to configuration YAML")
	followCmd.Flags().StringVar(&followSchemaPath, "schema", "schemas/follow.cue", "Path to CUE schema file")
	followCmd.Flags().StringVar(&followLogFile, "log-file", "", "Path to export status rows (JSONL)")
	followCmd.Flags().StringVar(&followAdminAddr, "admin-addr", ":8080", "Admin server listen address")
}
