package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kstock/internal/analyst"
	"kstock/internal/config"
	"kstock/internal/editor"
	"kstock/internal/market"
	"kstock/internal/naver"
	"kstock/internal/pipeline"
	"kstock/internal/report"
	"kstock/internal/scheduler"
	"kstock/internal/server"
	"kstock/internal/strategy"
	"kstock/internal/yahoo"
)

// runTimeout 스케줄 실행 1회 제한 시간
const runTimeout = 30 * time.Minute

func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	hc := &http.Client{Timeout: cfg.HTTP.Timeout.Std()}
	src := naver.NewClient(naver.WithHTTPClient(hc), naver.WithUserAgent(cfg.HTTP.UserAgent))
	global := yahoo.NewClient(hc, "")

	return pipeline.New(
		analyst.New(src, global, cfg),
		strategy.New(cfg.Select),
		editor.New(),
		report.NewPublisher(cfg.Output),
	).WithLocation(cfg.Schedule.Location())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("mode")
	mode, err := market.ParseMode(raw)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out, err := newPipeline(cfg).Run(ctx, mode)
	if errors.Is(err, pipeline.ErrNoCandidates) {
		log.Warn().Str("mode", string(mode)).Msg("No candidates today, report skipped")
		return nil
	}
	if err != nil {
		return err
	}

	for _, path := range out.Artifacts {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := scheduler.New(cfg.Schedule, newPipeline(cfg), runTimeout)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return s.Run(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	archive := report.NewArchive(cfg.Output.Dir, cfg.Schedule.Location())
	ctx, cancel := signalContext()
	defer cancel()
	return server.New(cfg.Server.Addr, archive).Run(ctx)
}
