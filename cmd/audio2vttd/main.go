// Command audio2vttd runs the transcription daemon: the worker pool, the job
// store, and the HTTP API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/daemon"
	"github.com/hirelala/audio2vtt/internal/jobqueue"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/preflight"
	"github.com/hirelala/audio2vtt/internal/transcribe"
	"github.com/hirelala/audio2vtt/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, check := range preflight.Run(cfg) {
		if !check.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
			)
		}
	}

	store, err := jobqueue.Open()
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	engine := transcribe.NewEngine(cfg.Whisper, cfg.Paths.TempDir, logger)
	queue := jobqueue.NewFIFO(cfg.Queue.Capacity)
	manager := workflow.NewManager(store, queue, engine, logger, cfg.Queue.Workers)

	d, err := daemon.New(cfg, store, manager, engine.Model(), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("audio2vttd shutting down")
}
