// Package market 파이프라인 전 단계가 공유하는 도메인 타입
package market

import (
	"fmt"
	"strings"
	"time"
)

// Mode 리포트 발간 모드 (오전/오후)
type Mode string

const (
	Morning   Mode = "morning"
	Afternoon Mode = "afternoon"
)

// ParseMode 문자열을 Mode로 변환
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Morning:
		return Morning, nil
	case Afternoon, "":
		return Afternoon, nil
	}
	return "", fmt.Errorf("unknown mode %q (want morning or afternoon)", s)
}

// Tag 파일명에 쓰이는 AM/PM 표기
func (m Mode) Tag() string {
	if m == Morning {
		return "AM"
	}
	return "PM"
}

// Label 한글 표기
func (m Mode) Label() string {
	if m == Morning {
		return "오전"
	}
	return "오후"
}

// Bar 일봉 한 개
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series 날짜 오름차순 일봉 목록
type Series []Bar

// Closes 종가 배열
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs 고가 배열
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows 저가 배열
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes 거래량 배열
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = float64(b.Volume)
	}
	return out
}

// Tail 마지막 n개
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Technical 기술적 분석 결과
type Technical struct {
	Close       int64   `json:"close"`
	ChangeRate  float64 `json:"change_rate"`
	RSI         float64 `json:"rsi"`
	ADX         float64 `json:"adx"`
	MA5         float64 `json:"ma5"`
	MA20        float64 `json:"ma20"`
	MA60        float64 `json:"ma60"`
	MA120       float64 `json:"ma120"`
	Volume      int64   `json:"volume"`
	VolumeMA20  float64 `json:"v_ma20"`
	Volatility  float64 `json:"volatility"`
	Sharpe      float64 `json:"sharpe"`
	StochK      float64 `json:"k"`
	StochD      float64 `json:"d"`
	Perfect     bool    `json:"is_perfect"`
	Breakout    bool    `json:"is_breakout"`
	Pullback    bool    `json:"is_pullback"`
	StrongTrend bool    `json:"strong_trend"`
	OBVRising   bool    `json:"is_obv_rising"`
}

// Financial 재무 지표
type Financial struct {
	Profits     []float64 `json:"profits"`
	Growing     bool      `json:"is_growing"`
	ROE         float64   `json:"roe"`
	PBR         float64   `json:"pbr"`
	PER         float64   `json:"per"`
	TargetPrice int64     `json:"target_price_analyst"`
}

// InvestorFlow 투자자별 순매수 합계와 순매수 일수
type InvestorFlow struct {
	ForeignNet      int64 `json:"f_net"`
	InstitutionNet  int64 `json:"i_net"`
	IndividualNet   int64 `json:"p_net"`
	ForeignDays     int   `json:"f_cont"`
	InstitutionDays int   `json:"i_cont"`
}

// NewsItem 종목 뉴스
type NewsItem struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// Candidate 1차 선별을 통과한 종목
type Candidate struct {
	Ticker    string     `json:"ticker"`
	Name      string     `json:"name"`
	MarketCap string     `json:"market_cap"`
	Summary   string     `json:"summary"`
	News      []NewsItem `json:"news"`
	Semi      bool       `json:"is_semi"`
	PreScore  float64    `json:"score"`

	Technical
	Financial
	InvestorFlow
}

// ScoreBreakdown 최종 점수 항목별 구성
type ScoreBreakdown struct {
	Flow      float64 `json:"flow"`
	Valuation float64 `json:"valuation"`
	Trend     float64 `json:"trend"`
	Global    float64 `json:"global"`
	Sector    float64 `json:"sector"`
}

// Total 항목 합계
func (b ScoreBreakdown) Total() float64 {
	return b.Flow + b.Valuation + b.Trend + b.Global + b.Sector
}

// Pick 최종 추천 종목
type Pick struct {
	Candidate

	FinalScore float64        `json:"final_score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Target     int64          `json:"target_price"`
	StopLoss   int64          `json:"stop_loss"`
	Reason     string         `json:"reason"`
	Rationale  string         `json:"rationale"`
}

// IndexQuote 국내 지수 시황
type IndexQuote struct {
	Now    string `json:"now"`
	Change string `json:"change"`
	Rate   string `json:"rate"`
	Amount string `json:"amount"`
}

// Briefing 코스피/코스닥 마감 시황
type Briefing struct {
	KOSPI  IndexQuote `json:"kospi"`
	KOSDAQ IndexQuote `json:"kosdaq"`
}

// GlobalQuote 해외 지수/ETF 등락
type GlobalQuote struct {
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	ChangeRate float64 `json:"change_rate"`
}

// GlobalStatus 해외 시장 동향 (이름 -> 시세)
type GlobalStatus map[string]GlobalQuote

// ChangeRate 이름으로 등락률 조회, 없으면 0
func (g GlobalStatus) ChangeRate(name string) float64 {
	if g == nil {
		return 0
	}
	return g[name].ChangeRate
}

// Sector 업종 동향
type Sector struct {
	Name           string  `json:"name"`
	Rate           string  `json:"rate"`
	Return5D       string  `json:"ret_5d"`
	Return20D      string  `json:"ret_20d"`
	Weather        string  `json:"weather"`
	Score          float64 `json:"score"`
	RepTicker      string  `json:"rep_ticker"`
	TopStocks      string  `json:"top_stocks"`
	ForeignNet     int64   `json:"f_net"`
	InstitutionNet int64   `json:"i_net"`
	IndividualNet  int64   `json:"p_net"`
}

// ETFTrend ETF 당일 등락 상위
type ETFTrend struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Rate      string  `json:"rate"`
	Return5D  string  `json:"ret_5d"`
	Return20D string  `json:"ret_20d"`
	TopStocks string  `json:"top_stocks"`
	Score     float64 `json:"score"`

	InvestorFlow
}

// Snapshot 한 번의 실행에서 수집한 모든 데이터
type Snapshot struct {
	Mode        Mode         `json:"mode"`
	CollectedAt time.Time    `json:"collected_at"`
	News        []string     `json:"market_news"`
	Global      GlobalStatus `json:"global_status"`
	Briefing    Briefing     `json:"market_briefing"`
	Sectors     []Sector     `json:"sectors"`
	ETFs        []ETFTrend   `json:"etf_trends"`
	Candidates  []Candidate  `json:"picks"`
}
