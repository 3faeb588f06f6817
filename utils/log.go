package utils

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"tmovies/config"
)

// SetupLogging routes the standard logger to stdout, and additionally to
// a size-rotated file when one is configured.
func SetupLogging(cfg config.LoggingSettings) {
	log.SetFlags(log.LstdFlags)

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
