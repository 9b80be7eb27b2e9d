package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dronewatch/internal/airspace"
	"dronewatch/internal/api"
	"dronewatch/internal/config"
	"dronewatch/internal/logging"
	"dronewatch/internal/playback"
	"dronewatch/internal/registry"
	"dronewatch/internal/video"
)

var (
	serveConfigPath string
	serveSchemaPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telemetry server",
	Long:  "serve starts the HTTP/WebSocket server with the live registry, airspace grid, and optional playback log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.LogFormat)

		// A configured grid that fails to load is fatal; serving ceiling
		// queries against an empty grid would silently answer "no ceiling".
		air := airspace.New(cfg.Airspace.DefaultElevationM)
		if cfg.Airspace.GridFile != "" {
			air, err = airspace.Load(cfg.Airspace.GridFile, cfg.Airspace.DefaultElevationM)
			if err != nil {
				return err
			}
			logger.Info("facility grid loaded", "file", cfg.Airspace.GridFile, "cells", len(air.Cells()))
		}

		var pb *playback.Adapter
		if cfg.Playback.File != "" {
			pb = playback.New(cfg.Playback.OriginLat, cfg.Playback.OriginLon)
			if err := pb.Load(cfg.Playback.File); err != nil {
				return err
			}
			logger.Info("playback log loaded", "file", cfg.Playback.File, "duration_s", pb.Duration())
		}

		writer, cleanup, err := newArchiveWriter(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		clusterID := cfg.ClusterID
		if env := os.Getenv("CLUSTER_ID"); env != "" {
			clusterID = env
		}

		vid := video.NewCache()
		reg := registry.New(registry.Options{
			Timeout:       cfg.StaleTimeout(),
			SweepInterval: cfg.SweepInterval(),
			ClusterID:     clusterID,
			Writer:        writer,
			Video:         vid,
			Logger:        logger,
		})

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
		defer cancel()

		go reg.Run(ctx)

		srv := api.NewServer(reg, pb, air, vid, logger)
		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.ListenAddr, "cluster_id", clusterID)
			errCh <- srv.Start(ctx, cfg.ListenAddr)
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigs:
			cancel()
			err = <-errCh
		case err = <-errCh:
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		logger.Info("server stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/dronewatch.yaml", "Path to server configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/dronewatch.cue", "Path to CUE schema file")
}
