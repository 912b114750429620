package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/config"
	"github.com/mapbook/mapbook/internal/domain"
	"github.com/mapbook/mapbook/internal/geocode"
	logpkg "github.com/mapbook/mapbook/internal/logger"
	"github.com/mapbook/mapbook/internal/metrics"
	openaiTransport "github.com/mapbook/mapbook/internal/transport/openai"
	"github.com/mapbook/mapbook/internal/usecase/export"
	extractuc "github.com/mapbook/mapbook/internal/usecase/extract"
	pipelineuc "github.com/mapbook/mapbook/internal/usecase/pipeline"
	segmentuc "github.com/mapbook/mapbook/internal/usecase/segment"
)

func newProcessCmd() *cobra.Command {
	var (
		output    string
		shapefile string
		crs       string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "process <text-file>",
		Short: "Extract geo-events from a text file and export them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return process(args[0], output, shapefile, crs, language)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "events.geojson", "GeoJSON output path")
	cmd.Flags().StringVar(&shapefile, "shapefile", "", "also write a zipped shapefile to this path")
	cmd.Flags().StringVar(&crs, "crs", export.DefaultCRS, "shapefile coordinate reference system")
	cmd.Flags().StringVar(&language, "language", "", "address output language (default from config)")

	return cmd
}

func process(inputPath, outputPath, shapefilePath, crs, language string) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if language == "" {
		language = cfg.Pipeline.Language
	}

	metrics.RegisterPipelineMetrics()

	completer := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Logger:  logger,
	})

	geocoder, err := geocode.New(geocode.Config{
		Backend:   cfg.Geocoder.Backend,
		UserAgent: cfg.Geocoder.UserAgent,
		APIKey:    cfg.Geocoder.APIKey,
		BaseURL:   cfg.Geocoder.BaseURL,
		Timeout:   time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create geocoder: %w", err)
	}

	processor := pipelineuc.New(
		segmentuc.New(completer, logger),
		extractuc.New(completer, logger),
		geocoder,
		logger,
	).
		WithChunkSize(cfg.Pipeline.ChunkSize).
		WithGeocodeDelay(time.Duration(cfg.Pipeline.GeocodeDelayMS) * time.Millisecond)

	// Ctrl-C cancels the run; events stored so far are still exported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := domain.NewEventStore()
	res, err := processor.Process(ctx, string(text), language, store)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline: %w", err)
	}

	logger.Info("Pipeline finished",
		zap.Int("segments", res.Segments),
		zap.Int("events", len(res.Events)),
		zap.Int("skipped", len(res.Skipped)),
	)

	data, err := export.GeoJSON(res.Events)
	if err != nil {
		return fmt.Errorf("geojson export: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	logger.Info("GeoJSON written", zap.String("path", outputPath))

	if shapefilePath != "" {
		archive, err := export.Shapefile(res.Events, crs)
		if err != nil {
			return fmt.Errorf("shapefile export: %w", err)
		}
		if err := os.WriteFile(shapefilePath, archive, 0o644); err != nil {
			return fmt.Errorf("write shapefile: %w", err)
		}
		logger.Info("Shapefile written", zap.String("path", shapefilePath), zap.String("crs", crs))
	}

	return nil
}
