package naver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kstock/internal/indicator"
	"kstock/internal/market"
)

// DefaultSummary 기업 개요가 없을 때 쓰는 문구
const DefaultSummary = "핵심 기술력과 시장 지배력을 바탕으로 지속적인 성장이 기대되는 기업입니다."

// Item 종목 메인 페이지에서 얻는 정보
type Item struct {
	Ticker    string
	Name      string
	MarketCap string
	Summary   string
	Financial market.Financial
}

// FetchItem 종목 메인 페이지(main.naver) 한 번으로 재무/기본 정보를 수집
func (c *Client) FetchItem(ctx context.Context, ticker string) (*Item, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, ticker))
	if err != nil {
		return nil, err
	}

	item := &Item{
		Ticker:    ticker,
		Name:      ticker,
		MarketCap: "정보없음",
		Summary:   DefaultSummary,
		Financial: parseFinancial(doc),
	}

	if name := strings.TrimSpace(doc.Find(".wrap_company h2 a").First().Text()); name != "" {
		item.Name = name
	}
	if sum := doc.Find("#_market_sum"); sum.Length() > 0 {
		v := strings.NewReplacer("\t", "", "\n", "", " ", "").Replace(sum.Text())
		item.MarketCap = v + "억원"
	}
	if s := doc.Find(".summary_info"); s.Length() > 0 {
		if text := collapseSpace(s.Text()); text != "" {
			item.Summary = text
		}
	}
	return item, nil
}

// parseFinancial 기업실적분석(cop_analysis) 표와 투자지표 영역 파싱
func parseFinancial(doc *goquery.Document) market.Financial {
	f := market.Financial{}

	doc.Find(".section.cop_analysis tr").Each(func(i int, row *goquery.Selection) {
		text := row.Text()
		tds := row.Find("td")

		if strings.Contains(text, "영업이익") && !strings.Contains(text, "영업이익률") && f.Profits == nil {
			tds.EachWithBreak(func(j int, td *goquery.Selection) bool {
				if j >= 3 {
					return false
				}
				f.Profits = append(f.Profits, parseCell(td.Text()))
				return true
			})
		}
		if strings.Contains(text, "ROE") && tds.Length() > 2 {
			f.ROE = parseCell(tds.Eq(2).Text())
		}
	})

	f.Growing = len(f.Profits) >= 2 && indicator.StrictlyIncreasing(f.Profits)

	if v := doc.Find("#_pbr"); v.Length() > 0 {
		f.PBR = parseCell(v.Text())
	}
	if v := doc.Find("#_per"); v.Length() > 0 {
		f.PER = parseCell(v.Text())
	}
	if v := doc.Find("em#_target_money"); v.Length() > 0 {
		f.TargetPrice = parseNumber(v.Text())
	}
	return f
}

// StockNews 종목 뉴스 (제목, 출처)
func (c *Client) StockNews(ctx context.Context, ticker string, limit int) ([]market.NewsItem, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf("%s/item/news_news.naver?code=%s", c.baseURL, ticker))
	if err != nil {
		return nil, err
	}

	titles := doc.Find(".title a")
	infos := doc.Find(".info")

	var items []market.NewsItem
	for i := 0; i < titles.Length() && i < limit; i++ {
		item := market.NewsItem{Title: strings.TrimSpace(titles.Eq(i).Text())}
		if i < infos.Length() {
			item.Source = strings.TrimSpace(infos.Eq(i).Text())
		}
		items = append(items, item)
	}
	return items, nil
}

type dealTrend struct {
	Bizdate    string `json:"bizdate"`
	Foreigner  string `json:"foreignerPureBuyQuant"`
	Organ      string `json:"organPureBuyQuant"`
	Individual string `json:"individualPureBuyQuant"`
}

type cuInfo struct {
	StockName string `json:"stockName"`
}

// Integration m.stock 종합 정보 API 응답 중 사용하는 부분
type Integration struct {
	StockName   string      `json:"stockName"`
	DealTrends  []dealTrend `json:"dealTrendInfos"`
	ETFHoldings []cuInfo    `json:"etfCuInfos"`
}

// FetchIntegration 종합 정보 API 호출
func (c *Client) FetchIntegration(ctx context.Context, ticker string) (*Integration, error) {
	var in Integration
	if err := c.fetchJSON(ctx, fmt.Sprintf("%s/api/stock/%s/integration", c.mobileURL, ticker), &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Flow 최근 days 일 투자자별 순매수 합계와 외국인/기관 순매수 일수
func (in *Integration) Flow(days int) market.InvestorFlow {
	var f market.InvestorFlow
	for i, t := range in.DealTrends {
		if i >= days {
			break
		}
		fv := parseSignedNumber(t.Foreigner)
		iv := parseSignedNumber(t.Organ)
		pv := parseSignedNumber(t.Individual)

		f.ForeignNet += fv
		f.InstitutionNet += iv
		f.IndividualNet += pv
		if fv > 0 {
			f.ForeignDays++
		}
		if iv > 0 {
			f.InstitutionDays++
		}
	}
	return f
}

// Holdings ETF 상위 n개 구성 종목명, 없으면 "정보 미흡"
func (in *Integration) Holdings(n int) string {
	var names []string
	for i, h := range in.ETFHoldings {
		if i >= n {
			break
		}
		names = append(names, h.StockName)
	}
	if len(names) == 0 {
		return "정보 미흡"
	}
	return strings.Join(names, ", ")
}

// InvestorFlow 종합 정보 API로 최근 days 일 투자자별 수급
func (c *Client) InvestorFlow(ctx context.Context, ticker string, days int) (market.InvestorFlow, error) {
	in, err := c.FetchIntegration(ctx, ticker)
	if err != nil {
		return market.InvestorFlow{}, err
	}
	return in.Flow(days), nil
}

// ETFHoldings ETF 상위 n개 구성 종목명
func (c *Client) ETFHoldings(ctx context.Context, ticker string, n int) (string, error) {
	in, err := c.FetchIntegration(ctx, ticker)
	if err != nil {
		return "", err
	}
	return in.Holdings(n), nil
}
