package naver

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"kstock/internal/market"
)

// Market 시장 구분 (sise 페이지의 sosok 값)
type Market int

const (
	KOSPI  Market = 0
	KOSDAQ Market = 1
)

func (m Market) String() string {
	if m == KOSDAQ {
		return "KOSDAQ"
	}
	return "KOSPI"
}

// MarketNews 주요 증권 뉴스 제목
func (c *Client) MarketNews(ctx context.Context, limit int) ([]string, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/news/mainnews.naver")
	if err != nil {
		return nil, err
	}

	var titles []string
	doc.Find(".articleSubject a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(titles) >= limit {
			return false
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			titles = append(titles, t)
		}
		return true
	})
	return titles, nil
}

// Briefing 코스피/코스닥 현재가, 등락, 거래대금
func (c *Client) Briefing(ctx context.Context) (market.Briefing, error) {
	var b market.Briefing

	doc, err := c.fetchDocument(ctx, c.baseURL+"/sise/")
	if err != nil {
		return b, err
	}

	b.KOSPI = indexQuote(doc, "KOSPI")
	b.KOSDAQ = indexQuote(doc, "KOSDAQ")

	if b.KOSPI.Now != "" {
		doc.Find(".lst_pop li").Each(func(i int, li *goquery.Selection) {
			if !strings.Contains(li.Text(), "거래대금") {
				return
			}
			b.KOSPI.Amount = "정보없음"
			nm := li.Find(".nm")
			if nm.Length() == 0 {
				return
			}
			if next := nm.Nodes[0].NextSibling; next != nil && next.Type == html.TextNode {
				b.KOSPI.Amount = strings.TrimSpace(next.Data)
			}
		})
	}

	log.Debug().
		Str("kospi", b.KOSPI.Now).
		Str("kosdaq", b.KOSDAQ.Now).
		Msg("Fetched market briefing from Naver")

	return b, nil
}

func indexQuote(doc *goquery.Document, code string) market.IndexQuote {
	var q market.IndexQuote

	now := doc.Find("#" + code + "_now")
	if now.Length() == 0 {
		return q
	}
	q.Now = strings.TrimSpace(now.Text())

	// "12.34 +0.50%상승" 형태: 첫 토큰이 등락폭, 마지막 토큰이 등락률
	var fields []string
	for _, f := range strings.Fields(doc.Find("#" + code + "_change").Text()) {
		if f = strings.TrimRightFunc(f, isHangul); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) > 0 {
		q.Change = fields[0]
		q.Rate = fields[len(fields)-1]
	}
	return q
}

func isHangul(r rune) bool { return unicode.Is(unicode.Hangul, r) }

// SectorGroup 업종 목록의 한 행
type SectorGroup struct {
	Name      string
	Rate      string
	RateValue float64
	DetailURL string
}

// SectorGroups 업종별 시세 목록
func (c *Client) SectorGroups(ctx context.Context) ([]SectorGroup, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/sise/sise_group.naver?type=upjong")
	if err != nil {
		return nil, err
	}

	var groups []SectorGroup
	doc.Find("table.type_5 tr").Each(func(i int, row *goquery.Selection) {
		tds := row.Find("td")
		if tds.Length() < 4 {
			return
		}
		link := tds.Eq(0).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		rate := strings.TrimSpace(tds.Eq(1).Text())
		groups = append(groups, SectorGroup{
			Name:      strings.TrimSpace(link.Text()),
			Rate:      rate,
			RateValue: parseSignedFloat(rate),
			DetailURL: c.resolve(href),
		})
	})
	return groups, nil
}

// SectorDetail 업종 상세: 상위 종목과 외국인/기관 순매수 합계
type SectorDetail struct {
	Names          []string
	Tickers        []string
	ForeignNet     int64
	InstitutionNet int64
}

// FetchSectorDetail 업종 상세 페이지. top 개 종목명/코드, 앞쪽 top 개 행의 순매수를 합산한다.
func (c *Client) FetchSectorDetail(ctx context.Context, detailURL string, top int) (*SectorDetail, error) {
	doc, err := c.fetchDocument(ctx, detailURL)
	if err != nil {
		return nil, err
	}

	d := &SectorDetail{}
	doc.Find("td.name a").Each(func(i int, a *goquery.Selection) {
		if i >= top {
			return
		}
		d.Names = append(d.Names, strings.TrimSpace(a.Text()))
		href, _ := a.Attr("href")
		d.Tickers = append(d.Tickers, tickerFromHref(href))
	})

	count := 0
	doc.Find("table.type_5 tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		tds := row.Find("td")
		if tds.Length() < 12 {
			return true
		}
		d.ForeignNet += parseSignedNumber(tds.Eq(10).Text())
		d.InstitutionNet += parseSignedNumber(tds.Eq(11).Text())
		count++
		return count < top
	})
	return d, nil
}

// GroupTickers 업종 그룹(no)의 구성 종목코드
func (c *Client) GroupTickers(ctx context.Context, no int) ([]string, error) {
	url := fmt.Sprintf("%s/sise/sise_group_detail.naver?type=upjong&no=%d", c.baseURL, no)
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	var tickers []string
	doc.Find("div.name_area a").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if t := tickerFromHref(href); t != "" {
			tickers = append(tickers, t)
		}
	})
	return tickers, nil
}

// VolumeRanking 거래량 상위 종목코드
func (c *Client) VolumeRanking(ctx context.Context, m Market, limit int) ([]string, error) {
	url := fmt.Sprintf("%s/sise/sise_quant.naver?sosok=%d", c.baseURL, m)
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	var tickers []string
	doc.Find("a.tltle").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if len(tickers) >= limit {
			return false
		}
		href, _ := a.Attr("href")
		if t := tickerFromHref(href); t != "" {
			tickers = append(tickers, t)
		}
		return true
	})

	log.Debug().
		Str("market", m.String()).
		Int("count", len(tickers)).
		Msg("Fetched volume ranking from Naver")

	return tickers, nil
}

// ETFItem ETF 목록 한 항목
type ETFItem struct {
	Ticker     string  `json:"itemcode"`
	Name       string  `json:"itemname"`
	NowVal     float64 `json:"nowVal"`
	ChangeRate float64 `json:"changeRate"`
	MarketSum  float64 `json:"marketSum"`
}

type etfListResponse struct {
	ResultCode string `json:"resultCode"`
	Result     struct {
		Items []ETFItem `json:"etfItemList"`
	} `json:"result"`
}

// ETFList 국내 ETF 전체 목록 (EUC-KR JSON)
func (c *Client) ETFList(ctx context.Context) ([]ETFItem, error) {
	var resp etfListResponse
	if err := c.fetchJSON(ctx, c.baseURL+"/api/sise/etfItemList.nhn", &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != "" && resp.ResultCode != "success" {
		return nil, fmt.Errorf("etf list: result code %q", resp.ResultCode)
	}
	return resp.Result.Items, nil
}
