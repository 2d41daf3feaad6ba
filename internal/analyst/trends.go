package analyst

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"kstock/internal/indicator"
	"kstock/internal/market"
)

const (
	trendHistoryDays = 40
	sectorMinBars    = 20
	sectorTopStocks  = 5
	etfTopHoldings   = 5
)

// Weather 당일 등락률 기상도
func Weather(rate float64) string {
	switch {
	case rate > 1.5:
		return "☀️"
	case rate >= 0:
		return "☁️"
	default:
		return "🌧️"
	}
}

// Sectors 업종별 당일/5일/20일 등락과 외국인/기관 수급.
// 대표 종목(첫 번째 구성 종목)의 일봉이 20개 미만이면 그 업종은 제외한다.
func (a *Analyst) Sectors(ctx context.Context) ([]market.Sector, error) {
	groups, err := a.src.SectorGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("sector groups: %w", err)
	}

	var sectors []market.Sector
	for _, g := range groups {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail, err := a.src.FetchSectorDetail(ctx, g.DetailURL, sectorTopStocks)
		if err != nil {
			log.Warn().Err(err).Str("sector", g.Name).Msg("Skipping sector detail")
			continue
		}

		s := market.Sector{
			Name:           g.Name,
			Rate:           g.Rate,
			Weather:        Weather(g.RateValue),
			Score:          g.RateValue,
			TopStocks:      strings.Join(detail.Names, ", "),
			ForeignNet:     detail.ForeignNet,
			InstitutionNet: detail.InstitutionNet,
			IndividualNet:  -(detail.ForeignNet + detail.InstitutionNet),
		}

		var ret5, ret20 float64
		if len(detail.Tickers) > 0 {
			s.RepTicker = detail.Tickers[0]
			bars, err := a.src.DailyBars(ctx, s.RepTicker, tradingBars(trendHistoryDays))
			if err != nil {
				log.Warn().Err(err).Str("sector", g.Name).Str("ticker", s.RepTicker).Msg("Skipping sector: daily bars")
				continue
			}
			if len(bars) < sectorMinBars {
				continue
			}
			closes := bars.Closes()
			ret5 = indicator.Return(closes, 5)
			ret20 = indicator.Return(closes, 20)
		}
		s.Return5D = fmt.Sprintf("%+.1f%%", ret5)
		s.Return20D = fmt.Sprintf("%+.1f%%", ret20)
		sectors = append(sectors, s)
	}

	sort.SliceStable(sectors, func(i, j int) bool { return sectors[i].Score > sectors[j].Score })
	if len(sectors) > a.cfg.SectorLimit {
		sectors = sectors[:a.cfg.SectorLimit]
	}

	log.Debug().Int("groups", len(groups)).Int("sectors", len(sectors)).Msg("Analyzed sector trends")
	return sectors, nil
}

// ETFTrends 당일 등락률 상위 ETF의 단기 수익률, 수급, 구성 종목
func (a *Analyst) ETFTrends(ctx context.Context) ([]market.ETFTrend, error) {
	items, err := a.src.ETFList(ctx)
	if err != nil {
		return nil, fmt.Errorf("etf list: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ChangeRate > items[j].ChangeRate })
	if len(items) > a.cfg.ETFScan {
		items = items[:a.cfg.ETFScan]
	}

	var trends []market.ETFTrend
	for _, it := range items {
		if len(trends) >= a.cfg.ETFLimit {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		bars, err := a.src.DailyBars(ctx, it.Ticker, tradingBars(trendHistoryDays))
		if err != nil {
			log.Warn().Err(err).Str("etf", it.Ticker).Msg("Skipping ETF: daily bars")
			continue
		}
		if len(bars) < 2 {
			continue
		}
		closes := bars.Closes()
		daily := indicator.Return(closes, 1)

		var ret5, ret20 float64
		if len(closes) >= 6 {
			ret5 = indicator.Return(closes, 5)
		}
		if len(closes) >= 21 {
			ret20 = indicator.Return(closes, 20)
		}

		flow, err := a.src.InvestorFlow(ctx, it.Ticker, a.cfg.FlowDays)
		if err != nil {
			log.Warn().Err(err).Str("etf", it.Ticker).Msg("ETF investor flow unavailable")
		}
		holdings, err := a.src.ETFHoldings(ctx, it.Ticker, etfTopHoldings)
		if err != nil {
			log.Warn().Err(err).Str("etf", it.Ticker).Msg("ETF holdings unavailable")
			holdings = "분석 중"
		}

		trends = append(trends, market.ETFTrend{
			Ticker:       it.Ticker,
			Name:         it.Name,
			Rate:         fmt.Sprintf("%+.2f%%", daily),
			Return5D:     fmt.Sprintf("%+.2f%%", ret5),
			Return20D:    fmt.Sprintf("%+.2f%%", ret20),
			TopStocks:    holdings,
			Score:        daily,
			InvestorFlow: flow,
		})
	}

	log.Debug().Int("scanned", len(items)).Int("etfs", len(trends)).Msg("Analyzed ETF trends")
	return trends, nil
}
