// Package scheduler 오전/오후 리포트를 cron 일정으로 실행한다.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kstock/internal/config"
	"kstock/internal/market"
	"kstock/internal/pipeline"
)

// Runner 리포트 1회 실행 (*pipeline.Pipeline)
type Runner interface {
	Run(ctx context.Context, mode market.Mode) (*pipeline.Outcome, error)
}

// Scheduler cron 기반 실행기. 같은 작업은 겹쳐 실행되지 않는다.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	entries map[market.Mode]cron.EntryID
}

// cronLogger cron 내부 로그를 zerolog로 보낸다
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// New 설정된 일정으로 Scheduler 생성. timeout이 0이면 실행 시간 제한이 없다.
func New(cfg config.ScheduleConfig, runner Runner, timeout time.Duration) (*Scheduler, error) {
	logger := cronLogger{l: log.With().Str("component", "scheduler").Logger()}
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{cron: c, runner: runner, timeout: timeout, entries: make(map[market.Mode]cron.EntryID)}
	for mode, spec := range map[market.Mode]string{market.Morning: cfg.Morning, market.Afternoon: cfg.Afternoon} {
		id, err := c.AddFunc(spec, s.job(mode))
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", mode, spec, err)
		}
		s.entries[mode] = id
	}
	return s, nil
}

func (s *Scheduler) job(mode market.Mode) func() {
	return func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		out, err := s.runner.Run(ctx, mode)
		switch {
		case errors.Is(err, pipeline.ErrNoCandidates):
			log.Warn().Str("mode", string(mode)).Msg("Scheduled run produced no report")
		case err != nil:
			log.Error().Err(err).Str("mode", string(mode)).Msg("Scheduled run failed")
		default:
			log.Info().Str("mode", string(mode)).Int("picks", len(out.Picks)).Msg("Scheduled run complete")
		}
	}
}

// Next 모드별 다음 실행 시각
func (s *Scheduler) Next(mode market.Mode) time.Time {
	id, ok := s.entries[mode]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Run ctx가 끝날 때까지 일정을 실행하고, 끝나면 진행 중인 작업이 마칠 때까지 기다린다.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	for mode := range s.entries {
		log.Info().Str("mode", string(mode)).Time("next", s.Next(mode)).Msg("Report scheduled")
	}

	<-ctx.Done()
	log.Info().Msg("Stopping scheduler, waiting for running jobs")
	<-s.cron.Stop().Done()
	return nil
}
