package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mantonx/previewgen/internal/config"
	"github.com/mantonx/previewgen/internal/database"
	"github.com/mantonx/previewgen/internal/ffmpeg"
	"github.com/mantonx/previewgen/internal/hwaccel"
	"github.com/mantonx/previewgen/internal/logger"
	"github.com/mantonx/previewgen/internal/plex"
	"github.com/mantonx/previewgen/internal/preview"
	"github.com/mantonx/previewgen/internal/server"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "previewgen",
		Short:        "Generate Plex scrub-preview (BIF) files with hardware-accelerated ffmpeg",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")

	root.AddCommand(newRunCommand())
	root.AddCommand(newServeCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate previews for every supported library on the Plex server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{
				Level:      cfg.Logging.Level,
				JSONFormat: cfg.Logging.Format == "json",
			})

			ffmpegPath, err := exec.LookPath(cfg.Previews.FFmpegPath)
			if err != nil {
				return fmt.Errorf("ffmpeg not found at %q: %w", cfg.Previews.FFmpegPath, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := plex.NewClient(ctx, cfg.Plex.URL, cfg.Plex.Token, cfg.Plex.Timeout, log)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			store := database.NewMetricsStore(db, log)

			accel := hwaccel.Probe(log)
			extractor := ffmpeg.NewExtractor(ffmpeg.Options{
				FFmpegPath:    ffmpegPath,
				FrameInterval: cfg.Previews.FrameInterval,
				Quality:       cfg.Previews.ThumbnailQuality,
				Timeout:       cfg.Previews.FFmpegTimeout,
				GPUBudget:     cfg.Workers.GPU,
				CPUBudget:     cfg.Workers.CPU,
			}, accel, log)

			gen := preview.NewGenerator(cfg, client, extractor, store, log)
			return gen.Run(ctx, filter)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only process source files whose path contains this substring")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation metrics report over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{
				Level:      cfg.Logging.Level,
				JSONFormat: cfg.Logging.Format == "json",
			})

			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			store := database.NewMetricsStore(db, log)

			gin.SetMode(gin.ReleaseMode)
			r := server.SetupRouter(store, log)

			addr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
			log.Info("serving metrics report", "addr", addr)
			return r.Run(addr)
		},
	}
}
