// Package naver 네이버 금융 수집 클라이언트
//
// finance.naver.com HTML(EUC-KR), m.stock.naver.com JSON API,
// fchart.stock.naver.com 일봉 XML 세 가지 소스를 다룬다.
// 재시도는 하지 않는다. 실패는 호출자에게 그대로 돌려준다.
package naver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"golang.org/x/net/html/charset"
)

const (
	baseURL        = "https://finance.naver.com"
	mobileURL      = "https://m.stock.naver.com"
	chartURL       = "https://fchart.stock.naver.com"
	defaultTimeout = 30 * time.Second
	defaultAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// ErrNotFound 페이지에서 원하는 항목을 찾지 못함
var ErrNotFound = errors.New("naver: not found")

// Client 네이버 금융 클라이언트
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	mobileURL  string
	chartURL   string
}

// Option 클라이언트 옵션
type Option func(*Client)

// WithHTTPClient HTTP 클라이언트 교체
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent User-Agent 지정
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithEndpoints 세 소스의 기본 URL 교체 (테스트용 서버 등)
func WithEndpoints(finance, mobile, chart string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(finance, "/")
		c.mobileURL = strings.TrimRight(mobile, "/")
		c.chartURL = strings.TrimRight(chart, "/")
	}
}

// NewClient 클라이언트 생성
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultAgent,
		baseURL:    baseURL,
		mobileURL:  mobileURL,
		chartURL:   chartURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	return resp, nil
}

// fetchDocument HTML을 받아 UTF-8로 변환 후 파싱. 빈 본문은 빈 문서.
func (c *Client) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		return goquery.NewDocumentFromReader(strings.NewReader(""))
	}

	body, err := charset.NewReader(br, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// fetchJSON JSON 응답 디코딩. Content-Type에 charset이 명시된 경우(EUC-KR 등)만 변환한다.
func (c *Client) fetchJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := declaredCharsetReader(resp)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func declaredCharsetReader(resp *http.Response) (io.Reader, error) {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.Body, nil
	}
	label, ok := params["charset"]
	if !ok || strings.EqualFold(label, "utf-8") {
		return resp.Body, nil
	}
	r, err := charset.NewReaderLabel(label, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("charset %s: %w", label, err)
	}
	return r, nil
}

// resolve 상대 경로를 금융 기본 URL 기준 절대 URL로
func (c *Client) resolve(ref string) string {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// =============================================================================
// Helper Functions
// =============================================================================

var (
	digitsRe = regexp.MustCompile(`\d+`)
	floatRe  = regexp.MustCompile(`\d+(\.\d+)?`)
	codeRe   = regexp.MustCompile(`code=([0-9A-Z]{6})`)
)

// parseNumber 숫자 문자열 파싱 (콤마 제거, 부호 무시)
func parseNumber(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.ParseInt(m, 10, 64)
	return n
}

// parseSignedNumber "-6,672,482", "+1,990,474" 형태
func parseSignedNumber(s string) int64 {
	s = strings.TrimSpace(s)
	n := parseNumber(s)
	if isNegative(s) {
		return -n
	}
	return n
}

// parseSignedFloat "+1.23%", "-0.45%", "1.5배" 형태
func parseSignedFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := floatRe.FindString(s)
	if m == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(m, 64)
	if isNegative(s) {
		return -f
	}
	return f
}

// parseCell 재무 표 셀: 빈 값, "-"는 0
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	return parseSignedFloat(s)
}

func isNegative(s string) bool {
	return strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−") || strings.Contains(s, "하락")
}

// tickerFromHref "...?code=005930" 에서 종목코드 추출
func tickerFromHref(href string) string {
	if m := codeRe.FindStringSubmatch(href); len(m) == 2 {
		return m[1]
	}
	if i := strings.LastIndex(href, "="); i >= 0 {
		return href[i+1:]
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
