// Package analyst 시장 데이터를 수집하고 후보 종목을 1차 선별한다.
//
// 수집 실패는 경고 로그만 남기고 건너뛴다. 실행 전체를 중단시키는 것은
// 컨텍스트 취소뿐이다.
package analyst

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"kstock/internal/config"
	"kstock/internal/market"
	"kstock/internal/naver"
)

// Source 국내 시장 데이터 공급원 (*naver.Client)
type Source interface {
	MarketNews(ctx context.Context, limit int) ([]string, error)
	Briefing(ctx context.Context) (market.Briefing, error)
	SectorGroups(ctx context.Context) ([]naver.SectorGroup, error)
	FetchSectorDetail(ctx context.Context, detailURL string, top int) (*naver.SectorDetail, error)
	GroupTickers(ctx context.Context, no int) ([]string, error)
	VolumeRanking(ctx context.Context, m naver.Market, limit int) ([]string, error)
	FetchItem(ctx context.Context, ticker string) (*naver.Item, error)
	InvestorFlow(ctx context.Context, ticker string, days int) (market.InvestorFlow, error)
	ETFHoldings(ctx context.Context, ticker string, n int) (string, error)
	StockNews(ctx context.Context, ticker string, limit int) ([]market.NewsItem, error)
	DailyBars(ctx context.Context, symbol string, count int) (market.Series, error)
	ETFList(ctx context.Context) ([]naver.ETFItem, error)
}

// GlobalSource 해외 시장 데이터 공급원 (*yahoo.Client)
type GlobalSource interface {
	GlobalStatus(ctx context.Context) market.GlobalStatus
}

// Analyst 데이터 수집 및 1차 선별
type Analyst struct {
	src    Source
	global GlobalSource
	cfg    config.CollectConfig
	sel    config.SelectConfig
	delay  time.Duration
	now    func() time.Time
}

// New Analyst 생성
func New(src Source, global GlobalSource, cfg *config.Config) *Analyst {
	return &Analyst{
		src:    src,
		global: global,
		cfg:    cfg.Collect,
		sel:    cfg.Select,
		delay:  cfg.HTTP.RequestDelay.Std(),
		now:    time.Now,
	}
}

// Collect 한 번의 리포트에 필요한 데이터를 모두 수집한다.
// 뉴스, 해외 시황(오전), 시장 브리핑, 섹터, ETF는 동시에 수집하고
// 이후 후보 종목을 순차로 분석한다.
func (a *Analyst) Collect(ctx context.Context, mode market.Mode) (*market.Snapshot, error) {
	snap := &market.Snapshot{Mode: mode, CollectedAt: a.now()}

	log.Info().Str("mode", string(mode)).Msg("Collecting market data")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		news, err := a.src.MarketNews(gctx, a.cfg.NewsLimit)
		if err != nil {
			log.Warn().Err(err).Msg("Market news unavailable")
			return nil
		}
		snap.News = news
		return nil
	})
	if mode == market.Morning && a.global != nil {
		g.Go(func() error {
			snap.Global = a.global.GlobalStatus(gctx)
			return nil
		})
	}
	g.Go(func() error {
		b, err := a.src.Briefing(gctx)
		if err != nil {
			log.Warn().Err(err).Msg("Market briefing unavailable")
			return nil
		}
		snap.Briefing = b
		return nil
	})
	g.Go(func() error {
		sectors, err := a.Sectors(gctx)
		if err != nil {
			log.Warn().Err(err).Msg("Sector trends unavailable")
		}
		snap.Sectors = sectors
		return nil
	})
	g.Go(func() error {
		etfs, err := a.ETFTrends(gctx)
		if err != nil {
			log.Warn().Err(err).Msg("ETF trends unavailable")
		}
		snap.ETFs = etfs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tickers, semi := a.Universe(ctx)
	candidates, err := a.Candidates(ctx, tickers, semi)
	if err != nil {
		return nil, err
	}
	snap.Candidates = candidates

	log.Info().
		Int("news", len(snap.News)).
		Int("global", len(snap.Global)).
		Int("sectors", len(snap.Sectors)).
		Int("etfs", len(snap.ETFs)).
		Int("universe", len(tickers)).
		Int("candidates", len(candidates)).
		Msg("Market data collected")

	return snap, nil
}

// pause 종목 간 요청 간격. 취소되면 false.
func (a *Analyst) pause(ctx context.Context) bool {
	if a.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(a.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// tradingBars 달력 일수를 대략적인 거래일 수로
func tradingBars(days int) int {
	return days*250/365 + 1
}
