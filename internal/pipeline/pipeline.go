// Package pipeline 수집 -> 전략 -> 본문 작성 -> 산출물 저장 순서로 한 번의 리포트를 만든다.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"kstock/internal/market"
	"kstock/internal/report"
	"kstock/internal/strategy"
)

// ErrNoCandidates 1차 선별을 통과한 종목이 없음. 산출물은 만들지 않는다.
var ErrNoCandidates = errors.New("no candidates passed pre-selection")

// Collector 시장 데이터 수집 (*analyst.Analyst)
type Collector interface {
	Collect(ctx context.Context, mode market.Mode) (*market.Snapshot, error)
}

// Selector 최종 종목 선정 (*strategy.Strategist)
type Selector interface {
	Run(candidates []market.Candidate, global market.GlobalStatus, mode market.Mode) *strategy.Result
}

// Writer 리포트 본문 작성 (*editor.Editor)
type Writer interface {
	Draft(snap *market.Snapshot, picks []market.Pick) string
}

// Publisher 산출물 저장 (*report.Publisher)
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) ([]string, error)
}

// Pipeline 단계 조립
type Pipeline struct {
	collector Collector
	selector  Selector
	writer    Writer
	publisher Publisher
	now       func() time.Time
	loc       *time.Location
}

// New Pipeline 생성
func New(c Collector, s Selector, w Writer, p Publisher) *Pipeline {
	return &Pipeline{collector: c, selector: s, writer: w, publisher: p, now: time.Now, loc: time.Local}
}

// WithLocation 산출물 시각(파일명)을 loc 기준으로 찍는다
func (p *Pipeline) WithLocation(loc *time.Location) *Pipeline {
	if loc != nil {
		p.loc = loc
	}
	return p
}

// Outcome 실행 결과
type Outcome struct {
	Mode      market.Mode
	Picks     []market.Pick
	Artifacts []string
	Elapsed   time.Duration
}

// Run 모드별 리포트 1회 생성
func (p *Pipeline) Run(ctx context.Context, mode market.Mode) (*Outcome, error) {
	start := p.now()
	log.Info().Str("mode", string(mode)).Str("session", mode.Label()).Msg("Report pipeline started")

	snap, err := p.collector.Collect(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if len(snap.Candidates) == 0 {
		log.Warn().Str("mode", string(mode)).Msg("No candidates found, skipping report")
		return nil, ErrNoCandidates
	}

	res := p.selector.Run(snap.Candidates, snap.Global, mode)
	draft := p.writer.Draft(snap, res.Picks)

	paths, err := p.publisher.Publish(ctx, &report.Report{
		Snapshot:  snap,
		Result:    res,
		Draft:     draft,
		CreatedAt: p.now().In(p.loc),
	})
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	out := &Outcome{Mode: mode, Picks: res.Picks, Artifacts: paths, Elapsed: p.now().Sub(start)}
	logTopPicks(out.Picks, 3)

	log.Info().
		Str("mode", string(mode)).
		Int("picks", len(out.Picks)).
		Strs("artifacts", paths).
		Dur("elapsed", out.Elapsed).
		Msg("Report pipeline finished")

	return out, nil
}

// logTopPicks 점수 상위 n개 매수 후보 요약
func logTopPicks(picks []market.Pick, n int) {
	for i, pick := range picks {
		if i >= n {
			break
		}
		log.Info().
			Int("rank", i+1).
			Str("ticker", pick.Ticker).
			Str("name", pick.Name).
			Float64("score", pick.FinalScore).
			Int64("close", pick.Close).
			Int64("target", pick.Target).
			Int64("stop_loss", pick.StopLoss).
			Msg("Top pick")
	}
}
