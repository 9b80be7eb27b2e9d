package main

import (
	"log/slog"
	"os"

	"dronewatch/internal/archive"
	"dronewatch/internal/config"
	"dronewatch/internal/registry"
)

// newArchiveWriter assembles the archive sink from config and env vars. A nil
// writer means archiving is disabled. The cleanup closes any opened files.
func newArchiveWriter(cfg *config.Config, logger *slog.Logger) (registry.Writer, func(), error) {
	cleanup := func() {}

	endpoint := cfg.Archive.GreptimeEndpoint
	if env := os.Getenv("GREPTIMEDB_ENDPOINT"); env != "" {
		endpoint = env
	}

	var writers []archive.Writer
	if endpoint != "" {
		gw, err := archive.NewGreptimeWriter(endpoint, cfg.Archive.GreptimeDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("greptime archive enabled", "endpoint", endpoint, "database", cfg.Archive.GreptimeDatabase)
		writers = append(writers, gw)
	}
	if cfg.Archive.File != "" {
		fw, err := archive.NewFileWriter(cfg.Archive.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file archive enabled", "file", cfg.Archive.File)
		writers = append(writers, fw)
		cleanup = func() { fw.Close() }
	}

	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return writers[0], cleanup, nil
	default:
		return archive.NewMultiWriter(writers...), cleanup, nil
	}
}
