package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dronedispatch/internal/api"
	"dronedispatch/internal/bridge"
	"dronedispatch/internal/config"
	"dronedispatch/internal/dispatch"
	"dronedispatch/internal/fleet"
	"dronedispatch/internal/logging"
	"dronedispatch/internal/sim"
	"dronedispatch/internal/telemetry"
)

var (
	serveConfigPath string
	serveSchemaPath string
	serveLogFile    string
	serveTUI        bool
	servePrintOnly  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch service",
	Long:  "serve starts the fleet registry, the flight simulator, and the HTTP/WebSocket API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New(cfg.LogLevel)
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		reg := fleet.NewRegistry(cfg.MinAssignBattery, cfg.LowBatteryPct)
		for _, seed := range cfg.Fleet {
			base := cfg.DefaultBase
			if seed.Base != nil {
				base = *seed.Base
			}
			d := reg.Create(fleet.Spec{
				Name:         seed.Name,
				Model:        seed.Model,
				MaxPayloadKG: seed.MaxPayloadKG,
				MaxRangeKM:   seed.MaxRangeKM,
				Base:         base,
				BatteryPct:   seed.BatteryPct,
			})
			log.Info("provisioned drone", "drone_id", d.ID, "name", d.Name)
		}

		pub := telemetry.NewPublisher(reg, cfg.PositionTTL(), cfg.Telemetry.HistoryLimit, cfg.Telemetry.SubscriberBuffer)
		asn := dispatch.NewAssigner(reg, cfg.MinAssignBattery)
		events := bridge.NewService(asn, reg)

		writer, cleanup, err := newWriters(servePrintOnly, serveLogFile, serveTUI)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator := sim.NewSimulator(reg, pub, writer, sim.Config{
			TickInterval:       cfg.TickInterval(),
			CruiseSpeedKMH:     cfg.CruiseSpeedKMH,
			BatteryDrainPerKM:  cfg.BatteryDrainPerKM,
			ArrivalThresholdKM: cfg.ArrivalThresholdKM,
			CruiseAltitudeM:    cfg.CruiseAltitudeM,
		})
		go simulator.Run(ctx)

		srv := api.NewServer(api.Config{
			ListenAddr:  cfg.ListenAddr,
			DefaultBase: cfg.DefaultBase,
		}, reg, asn, pub, events, log)
		go func() {
			log.Info("http server listening", "addr", cfg.ListenAddr)
			if err := srv.Start(); err != nil {
				log.Error("http server failed", "err", err)
				cancel()
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
		case <-ctx.Done():
		}

		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "err", err)
		}
		log.Info("dispatch service stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/dronedispatch.yaml", "Path to service configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/dronedispatch.cue", "Path to CUE schema file")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export telemetry samples (JSONL)")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Render live fleet telemetry in a terminal UI")
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print telemetry to STDOUT even when GREPTIMEDB_ENDPOINT is set")
}
