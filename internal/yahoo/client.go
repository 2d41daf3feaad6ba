// Package yahoo Yahoo Finance chart API로 해외 지수/ETF 등락을 조회한다.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"kstock/internal/market"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	defaultAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Symbol 조회 대상 (표시 이름과 Yahoo 심볼)
type Symbol struct {
	Name   string
	Ticker string
}

// GlobalSymbols 오전 리포트에서 쓰는 미국 시장 지표
var GlobalSymbols = []Symbol{
	{Name: "NASDAQ", Ticker: "^IXIC"},
	{Name: "S&P500", Ticker: "^GSPC"},
	{Name: "SOXX", Ticker: "SOXX"},
	{Name: "XLK", Ticker: "XLK"},
}

// Client Yahoo Finance 클라이언트
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient 클라이언트 생성. baseURL이 비어 있으면 기본 주소를 쓴다.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultAgent,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote 최근 두 개의 유효 종가로 등락률 계산
func (c *Client) Quote(ctx context.Context, s Symbol) (market.GlobalQuote, error) {
	q := market.GlobalQuote{Name: s.Name, Symbol: s.Ticker}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(s.Ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return q, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return q, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return q, fmt.Errorf("yahoo chart %s: unexpected status %d", s.Ticker, resp.StatusCode)
	}

	var data chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return q, fmt.Errorf("decode chart %s: %w", s.Ticker, err)
	}
	if e := data.Chart.Error; e != nil {
		return q, fmt.Errorf("yahoo chart %s: %s", s.Ticker, e.Description)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return q, fmt.Errorf("yahoo chart %s: empty result", s.Ticker)
	}

	// null 이나 0 이하 종가는 건너뛴다
	var closes []float64
	for _, v := range data.Chart.Result[0].Indicators.Quote[0].Close {
		if v != nil && *v > 0 {
			closes = append(closes, *v)
		}
	}
	if len(closes) < 2 {
		return q, fmt.Errorf("yahoo chart %s: need 2 closes, got %d", s.Ticker, len(closes))
	}

	cur, prev := closes[len(closes)-1], closes[len(closes)-2]
	q.Price = cur
	q.ChangeRate = math.Round((cur-prev)/prev*100*100) / 100
	return q, nil
}

// GlobalStatus 미국 지수/섹터 ETF 등락. 실패한 심볼은 건너뛴다.
func (c *Client) GlobalStatus(ctx context.Context) market.GlobalStatus {
	status := make(market.GlobalStatus, len(GlobalSymbols))
	for _, s := range GlobalSymbols {
		if ctx.Err() != nil {
			break
		}
		q, err := c.Quote(ctx, s)
		if err != nil {
			log.Warn().Err(err).Str("symbol", s.Ticker).Msg("Skipping global quote")
			continue
		}
		status[s.Name] = q
	}

	log.Debug().Int("count", len(status)).Msg("Fetched global market status")
	return status
}
