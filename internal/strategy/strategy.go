// Package strategy 후보 종목을 다중 팩터로 채점하고 최종 추천 종목을 고른다.
package strategy

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"kstock/internal/config"
	"kstock/internal/market"
)

// Bonus 해외 시장 동조화 가점 (오전 모드 전용)
type Bonus struct {
	Semi float64 `json:"semi"`
	// Tech XLK 강세 가점. 기술주 분류가 없어 점수에는 반영하지 않는다.
	Tech float64 `json:"tech"`
}

// GlobalBonus 밤사이 SOXX/XLK 등락으로 가점 산정
func GlobalBonus(mode market.Mode, global market.GlobalStatus) Bonus {
	var b Bonus
	if mode != market.Morning || len(global) == 0 {
		return b
	}

	soxx := global.ChangeRate("SOXX")
	switch {
	case soxx > 1.0:
		b.Semi = 10
	case soxx > 0:
		b.Semi = 5
	}
	if global.ChangeRate("XLK") > 1.0 {
		b.Tech = 5
	}
	return b
}

// Result 전략 단계 결과
type Result struct {
	Mode  market.Mode   `json:"mode"`
	Bonus Bonus         `json:"bonus"`
	Picks []market.Pick `json:"picks"`
}

// Strategist 최종 종목 선정
type Strategist struct {
	sel config.SelectConfig
}

// New Strategist 생성
func New(sel config.SelectConfig) *Strategist {
	return &Strategist{sel: sel}
}

// Score 항목별 점수
//
//	수급/매집: 외국인·기관 순매수 일수 x 2.5, OBV 상승 +15
//	밸류에이션: PBR 1.0 미만 +15, 1.5 미만 +8 / ROE 15 초과 +15, 10 초과 +8
//	추세: 정배열 +10, 돌파 +10 (아니면 눌림목 +10)
//	해외: 오전 반도체 종목에 SOXX 가점
//	섹터: 반도체 +5
func Score(c market.Candidate, mode market.Mode, bonus Bonus) market.ScoreBreakdown {
	var b market.ScoreBreakdown

	b.Flow = 2.5*float64(c.ForeignDays) + 2.5*float64(c.InstitutionDays)
	if c.OBVRising {
		b.Flow += 15
	}

	// PBR 미표기는 0으로 수집되어 저평가 구간에 든다
	switch {
	case c.PBR < 1.0:
		b.Valuation += 15
	case c.PBR < 1.5:
		b.Valuation += 8
	}
	switch {
	case c.ROE > 15:
		b.Valuation += 15
	case c.ROE > 10:
		b.Valuation += 8
	}

	if c.Perfect {
		b.Trend += 10
	}
	if c.Breakout || c.Pullback {
		b.Trend += 10
	}

	if mode == market.Morning && c.Semi {
		b.Global = bonus.Semi
	}
	if c.Semi {
		b.Sector = 5
	}
	return b
}

// Run 후보 채점 후 점수 내림차순으로 상위 종목을 골라 가격 수준과 사유를 붙인다.
func (s *Strategist) Run(candidates []market.Candidate, global market.GlobalStatus, mode market.Mode) *Result {
	bonus := GlobalBonus(mode, global)
	res := &Result{Mode: mode, Bonus: bonus}

	picks := make([]market.Pick, 0, len(candidates))
	for _, c := range candidates {
		b := Score(c, mode, bonus)
		picks = append(picks, market.Pick{Candidate: c, FinalScore: b.Total(), Breakdown: b})
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].FinalScore > picks[j].FinalScore })
	if len(picks) > s.sel.PickLimit {
		picks = picks[:s.sel.PickLimit]
	}

	for i := range picks {
		p := &picks[i]
		p.Target, p.StopLoss = s.PriceLevels(p.Close)
		p.Reason, p.Rationale = s.narrate(p.Candidate, mode, bonus)

		log.Debug().
			Str("ticker", p.Ticker).
			Float64("score", p.FinalScore).
			Float64("flow", p.Breakdown.Flow).
			Float64("valuation", p.Breakdown.Valuation).
			Float64("trend", p.Breakdown.Trend).
			Msg("Scored pick")
	}
	res.Picks = picks

	log.Info().
		Str("mode", string(mode)).
		Int("candidates", len(candidates)).
		Int("picks", len(picks)).
		Float64("semi_bonus", bonus.Semi).
		Float64("tech_bonus", bonus.Tech).
		Msg("Strategy complete")

	return res
}

// PriceLevels 목표가/손절가 (원 단위 버림)
func (s *Strategist) PriceLevels(close int64) (target, stop int64) {
	target = int64(math.Floor(float64(close) * s.sel.TargetMultiplier))
	stop = int64(math.Floor(float64(close) * s.sel.StopMultiplier))
	return target, stop
}
