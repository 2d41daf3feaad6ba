package analyst

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"kstock/internal/config"
	"kstock/internal/market"
	"kstock/internal/naver"
)

// Universe 분석 대상 종목: 반도체 업종 구성 종목 + 코스피/코스닥 거래량 상위.
// 처음 나온 순서를 유지하며 중복을 제거한다. semi는 반도체 종목 집합.
func (a *Analyst) Universe(ctx context.Context) (tickers []string, semi map[string]bool) {
	semi = make(map[string]bool)
	seen := make(map[string]bool)
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	semiTickers, err := a.src.GroupTickers(ctx, a.cfg.SemiconductorGroup)
	if err != nil {
		log.Warn().Err(err).Int("group", a.cfg.SemiconductorGroup).Msg("Semiconductor group unavailable")
	}
	for _, t := range semiTickers {
		semi[t] = true
		add(t)
	}

	for _, m := range []naver.Market{naver.KOSPI, naver.KOSDAQ} {
		ranked, err := a.src.VolumeRanking(ctx, m, a.cfg.VolumeRankLimit)
		if err != nil {
			log.Warn().Err(err).Str("market", m.String()).Msg("Volume ranking unavailable")
			continue
		}
		for _, t := range ranked {
			add(t)
		}
	}

	log.Debug().Int("universe", len(tickers)).Int("semi", len(semi)).Msg("Built candidate universe")
	return tickers, semi
}

// Candidates 종목별 재무 -> 기술 -> 수급 순으로 분석해 1차 선별 후보를 만든다.
// 재무 성장이 없거나 일봉이 부족한 종목은 건너뛴다.
func (a *Analyst) Candidates(ctx context.Context, tickers []string, semi map[string]bool) ([]market.Candidate, error) {
	var out []market.Candidate

	for i, ticker := range tickers {
		if i > 0 && !a.pause(ctx) {
			return nil, fmt.Errorf("candidate scan interrupted: %w", ctx.Err())
		}

		c, ok := a.analyze(ctx, ticker, semi[ticker])
		if !ok {
			continue
		}
		c.PreScore = PreScore(c)
		if !Passes(c, a.sel) {
			log.Debug().Str("ticker", ticker).Float64("score", c.PreScore).Msg("Filtered by flow gate")
			continue
		}

		news, err := a.src.StockNews(ctx, ticker, a.cfg.NewsLimit)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Stock news unavailable")
		}
		c.News = news
		out = append(out, c)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PreScore > out[j].PreScore })
	if len(out) > a.sel.CandidateLimit {
		out = out[:a.sel.CandidateLimit]
	}
	return out, nil
}

func (a *Analyst) analyze(ctx context.Context, ticker string, isSemi bool) (market.Candidate, bool) {
	c := market.Candidate{Ticker: ticker, Semi: isSemi}

	item, err := a.src.FetchItem(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker: item page")
		return c, false
	}
	if !item.Financial.Growing {
		log.Debug().Str("ticker", ticker).Floats64("profits", item.Financial.Profits).Msg("Skipping ticker: profits not growing")
		return c, false
	}

	bars, err := a.src.DailyBars(ctx, ticker, tradingBars(a.cfg.HistoryDays))
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker: daily bars")
		return c, false
	}
	tech, err := Technicals(bars, a.cfg.MinBars)
	if err != nil {
		if !errors.Is(err, ErrInsufficientData) {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker: technicals")
		}
		return c, false
	}

	flow, err := a.src.InvestorFlow(ctx, ticker, a.cfg.FlowDays)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Investor flow unavailable")
	}

	c.Name = item.Name
	c.MarketCap = item.MarketCap
	c.Summary = item.Summary
	c.Financial = item.Financial
	c.Technical = tech
	c.InvestorFlow = flow
	return c, true
}

// PreScore 1차 선별 점수
func PreScore(c market.Candidate) float64 {
	score := 1.5*float64(c.ForeignDays) + 1.5*float64(c.InstitutionDays)
	if c.Perfect {
		score += 4
	}
	if c.StrongTrend {
		score += 3
	}
	if c.Breakout {
		score += 3
	}
	if c.Semi {
		score += 5
	}
	if c.ForeignNet > 0 && c.InstitutionNet > 0 {
		score += 3
	}
	return score
}

// Passes 수급 게이트: 외국인 또는 기관의 연속 순매수, 혹은 거래량 돌파이면서
// 등락률이 하한보다 높아야 한다.
func Passes(c market.Candidate, sel config.SelectConfig) bool {
	accumulating := c.ForeignDays >= sel.MinConsecutive || c.InstitutionDays >= sel.MinConsecutive || c.Breakout
	return accumulating && c.ChangeRate > sel.MinChangeRate
}
