package analyst

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kstock/internal/config"
	"kstock/internal/market"
	"kstock/internal/naver"
)

var errMissing = errors.New("missing fixture")

type fakeSource struct {
	news         []string
	briefing     market.Briefing
	groups       []naver.SectorGroup
	details      map[string]*naver.SectorDetail
	groupTickers []string
	ranking      map[naver.Market][]string
	items        map[string]*naver.Item
	flows        map[string]market.InvestorFlow
	holdings     map[string]string
	bars         map[string]market.Series
	etfs         []naver.ETFItem

	mu        sync.Mutex
	newsCalls []string
}

func (f *fakeSource) MarketNews(ctx context.Context, limit int) ([]string, error) {
	return f.news, nil
}

func (f *fakeSource) Briefing(ctx context.Context) (market.Briefing, error) {
	return f.briefing, nil
}

func (f *fakeSource) SectorGroups(ctx context.Context) ([]naver.SectorGroup, error) {
	return f.groups, nil
}

func (f *fakeSource) FetchSectorDetail(ctx context.Context, detailURL string, top int) (*naver.SectorDetail, error) {
	if d, ok := f.details[detailURL]; ok {
		return d, nil
	}
	return nil, errMissing
}

func (f *fakeSource) GroupTickers(ctx context.Context, no int) ([]string, error) {
	return f.groupTickers, nil
}

func (f *fakeSource) VolumeRanking(ctx context.Context, m naver.Market, limit int) ([]string, error) {
	if r, ok := f.ranking[m]; ok {
		return r, nil
	}
	return nil, errMissing
}

func (f *fakeSource) FetchItem(ctx context.Context, ticker string) (*naver.Item, error) {
	if it, ok := f.items[ticker]; ok {
		return it, nil
	}
	return nil, errMissing
}

func (f *fakeSource) InvestorFlow(ctx context.Context, ticker string, days int) (market.InvestorFlow, error) {
	if fl, ok := f.flows[ticker]; ok {
		return fl, nil
	}
	return market.InvestorFlow{}, errMissing
}

func (f *fakeSource) ETFHoldings(ctx context.Context, ticker string, n int) (string, error) {
	if h, ok := f.holdings[ticker]; ok {
		return h, nil
	}
	return "", errMissing
}

func (f *fakeSource) StockNews(ctx context.Context, ticker string, limit int) ([]market.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newsCalls = append(f.newsCalls, ticker)
	return []market.NewsItem{{Title: ticker + " news", Source: "test"}}, nil
}

func (f *fakeSource) DailyBars(ctx context.Context, symbol string, count int) (market.Series, error) {
	if b, ok := f.bars[symbol]; ok {
		return b, nil
	}
	return nil, errMissing
}

func (f *fakeSource) ETFList(ctx context.Context) ([]naver.ETFItem, error) {
	return f.etfs, nil
}

type fakeGlobal struct {
	calls int
}

func (g *fakeGlobal) GlobalStatus(ctx context.Context) market.GlobalStatus {
	g.calls++
	return market.GlobalStatus{"SOXX": {Name: "SOXX", ChangeRate: 1.5}}
}

// risingSeries 종가가 매일 1씩 오르는 n개 일봉, 마지막 거래량만 지정
func risingSeries(n int, lastVolume int64) market.Series {
	s := make(market.Series, n)
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range s {
		c := 100 + float64(i)
		s[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	s[n-1].Volume = lastVolume
	return s
}

func growingItem(ticker, name string) *naver.Item {
	return &naver.Item{
		Ticker:    ticker,
		Name:      name,
		MarketCap: "1,000억원",
		Summary:   naver.DefaultSummary,
		Financial: market.Financial{Profits: []float64{1, 2, 3}, Growing: true, PBR: 0.9, ROE: 12},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.RequestDelay = 0
	return cfg
}

func TestTechnicals_InsufficientData(t *testing.T) {
	_, err := Technicals(risingSeries(50, 1000), 120)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTechnicals_RisingBreakout(t *testing.T) {
	tech, err := Technicals(risingSeries(130, 5000), 120)
	require.NoError(t, err)

	assert.Equal(t, int64(229), tech.Close)
	assert.InDelta(t, 100.0/228.0, tech.ChangeRate, 1e-9)
	assert.Equal(t, 100.0, tech.RSI)
	assert.True(t, tech.Perfect)
	assert.True(t, tech.Breakout)
	assert.False(t, tech.Pullback)
	assert.True(t, tech.StrongTrend)
	assert.True(t, tech.OBVRising)
	assert.InDelta(t, 1200.0, tech.VolumeMA20, 1e-9)
	assert.Greater(t, tech.Volatility, 0.0)
	assert.Greater(t, tech.StochK, 50.0)
}

func TestTechnicals_Pullback(t *testing.T) {
	s := risingSeries(130, 100)
	s[len(s)-1].Close = s[len(s)-2].Close

	tech, err := Technicals(s, 120)
	require.NoError(t, err)
	assert.True(t, tech.Pullback)
	assert.False(t, tech.Breakout)
	assert.Zero(t, tech.ChangeRate)
}

func TestTechnicals_ShortHistoryIsNotPerfect(t *testing.T) {
	tech, err := Technicals(risingSeries(60, 1000), 30)
	require.NoError(t, err)
	assert.False(t, tech.Perfect)
	assert.Zero(t, tech.MA120)
}

func TestPreScoreAndGate(t *testing.T) {
	sel := config.Default().Select

	tests := []struct {
		name   string
		c      market.Candidate
		score  float64
		passes bool
	}{
		{
			name:   "foreign accumulation",
			c:      market.Candidate{InvestorFlow: market.InvestorFlow{ForeignDays: 3}},
			score:  4.5,
			passes: true,
		},
		{
			name: "everything",
			c: market.Candidate{
				Semi:         true,
				Technical:    market.Technical{Perfect: true, StrongTrend: true, Breakout: true},
				InvestorFlow: market.InvestorFlow{ForeignDays: 5, InstitutionDays: 5, ForeignNet: 1, InstitutionNet: 1},
			},
			score:  15 + 4 + 3 + 3 + 5 + 3,
			passes: true,
		},
		{
			name:   "breakout alone opens the gate",
			c:      market.Candidate{Technical: market.Technical{Breakout: true, ChangeRate: 3}},
			score:  3,
			passes: true,
		},
		{
			name:   "change rate at the floor is excluded",
			c:      market.Candidate{Technical: market.Technical{ChangeRate: -2}, InvestorFlow: market.InvestorFlow{InstitutionDays: 4}},
			score:  6,
			passes: false,
		},
		{
			name:   "two days is not consecutive enough",
			c:      market.Candidate{InvestorFlow: market.InvestorFlow{ForeignDays: 2, InstitutionDays: 2, ForeignNet: 1, InstitutionNet: 1}},
			score:  9,
			passes: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.score, PreScore(tt.c))
			assert.Equal(t, tt.passes, Passes(tt.c, sel))
		})
	}
}

func TestUniverse_DedupesInFirstSeenOrder(t *testing.T) {
	src := &fakeSource{
		groupTickers: []string{"000660", "005930"},
		ranking: map[naver.Market][]string{
			naver.KOSPI:  {"005930", "035420"},
			naver.KOSDAQ: {"247540", "000660", ""},
		},
	}
	a := New(src, nil, testConfig())

	tickers, semi := a.Universe(context.Background())
	assert.Equal(t, []string{"000660", "005930", "035420", "247540"}, tickers)
	assert.True(t, semi["005930"])
	assert.False(t, semi["035420"])
}

func candidateSource() *fakeSource {
	notGrowing := growingItem("B", "비성장")
	notGrowing.Financial.Growing = false

	return &fakeSource{
		items: map[string]*naver.Item{
			"A": growingItem("A", "반도체A"),
			"B": notGrowing,
			"C": growingItem("C", "신규상장"),
			"D": growingItem("D", "수급없음"),
			"E": growingItem("E", "돌파"),
		},
		bars: map[string]market.Series{
			"A": risingSeries(130, 5000),
			"B": risingSeries(130, 5000),
			"C": risingSeries(50, 5000),
			"D": risingSeries(130, 1000),
			"E": risingSeries(130, 5000),
		},
		flows: map[string]market.InvestorFlow{
			"A": {ForeignDays: 3, ForeignNet: 100, InstitutionNet: -5},
			"D": {},
			"E": {ForeignDays: 1, InstitutionDays: 1, ForeignNet: 10, InstitutionNet: 10},
		},
	}
}

func TestCandidates_FiltersAndRanks(t *testing.T) {
	src := candidateSource()
	a := New(src, nil, testConfig())

	out, err := a.Candidates(context.Background(), []string{"E", "B", "C", "D", "A", "Z"}, map[string]bool{"A": true})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "A", out[0].Ticker)
	assert.Equal(t, 19.5, out[0].PreScore)
	assert.True(t, out[0].Semi)
	assert.Equal(t, "반도체A", out[0].Name)
	assert.Equal(t, 0.9, out[0].PBR)
	require.Len(t, out[0].News, 1)

	assert.Equal(t, "E", out[1].Ticker)
	assert.Equal(t, 16.0, out[1].PreScore)

	assert.ElementsMatch(t, []string{"A", "E"}, src.newsCalls)
}

func TestCandidates_Limit(t *testing.T) {
	cfg := testConfig()
	cfg.Select.CandidateLimit = 1
	a := New(candidateSource(), nil, cfg)

	out, err := a.Candidates(context.Background(), []string{"E", "A"}, map[string]bool{"A": true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Ticker)
}

func TestCandidates_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(candidateSource(), nil, testConfig())
	_, err := a.Candidates(ctx, []string{"A", "E"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSectors(t *testing.T) {
	src := &fakeSource{
		groups: []naver.SectorGroup{
			{Name: "제약", Rate: "-1.00%", RateValue: -1, DetailURL: "u2"},
			{Name: "반도체", Rate: "+2.00%", RateValue: 2, DetailURL: "u1"},
			{Name: "신규", Rate: "+0.50%", RateValue: 0.5, DetailURL: "u3"},
			{Name: "오류", Rate: "+9.00%", RateValue: 9, DetailURL: "missing"},
		},
		details: map[string]*naver.SectorDetail{
			"u1": {Names: []string{"삼성전자", "SK하이닉스"}, Tickers: []string{"R1", "R1b"}, ForeignNet: 700, InstitutionNet: 300},
			"u2": {Names: []string{"제약사"}, Tickers: []string{"R2"}, ForeignNet: -100, InstitutionNet: 50},
			"u3": {Names: []string{"새회사"}, Tickers: []string{"R3"}},
		},
		bars: map[string]market.Series{
			"R1": risingSeries(30, 1000),
			"R2": risingSeries(30, 1000),
			"R3": risingSeries(10, 1000),
		},
	}
	a := New(src, nil, testConfig())

	sectors, err := a.Sectors(context.Background())
	require.NoError(t, err)
	require.Len(t, sectors, 2)

	semi := sectors[0]
	assert.Equal(t, "반도체", semi.Name)
	assert.Equal(t, "☀️", semi.Weather)
	assert.Equal(t, "R1", semi.RepTicker)
	assert.Equal(t, "삼성전자, SK하이닉스", semi.TopStocks)
	assert.Equal(t, "+4.0%", semi.Return5D)
	assert.Equal(t, "+18.3%", semi.Return20D)
	assert.Equal(t, int64(-1000), semi.IndividualNet)

	assert.Equal(t, "제약", sectors[1].Name)
	assert.Equal(t, "🌧️", sectors[1].Weather)
	assert.Equal(t, int64(50), sectors[1].IndividualNet)
}

func TestWeather(t *testing.T) {
	assert.Equal(t, "☀️", Weather(1.51))
	assert.Equal(t, "☁️", Weather(1.5))
	assert.Equal(t, "☁️", Weather(0))
	assert.Equal(t, "🌧️", Weather(-0.01))
	assert.Equal(t, "🌧️", Weather(-2))
}

func TestSectors_FallingSectorKeepsSign(t *testing.T) {
	src := &fakeSource{
		groups: []naver.SectorGroup{
			{Name: "조선", Rate: "-2.00%", RateValue: -2, DetailURL: "down"},
			{Name: "은행", Rate: "+1.00%", RateValue: 1, DetailURL: "up"},
		},
		details: map[string]*naver.SectorDetail{
			"down": {Names: []string{"조선사"}, Tickers: []string{"D1"}},
			"up":   {Names: []string{"은행사"}, Tickers: []string{"U1"}},
		},
		bars: map[string]market.Series{
			"D1": risingSeries(30, 1000),
			"U1": risingSeries(30, 1000),
		},
	}
	a := New(src, nil, testConfig())

	sectors, err := a.Sectors(context.Background())
	require.NoError(t, err)
	require.Len(t, sectors, 2)

	assert.Equal(t, "은행", sectors[0].Name)
	assert.Equal(t, "☁️", sectors[0].Weather)
	assert.Equal(t, "조선", sectors[1].Name)
	assert.Equal(t, "🌧️", sectors[1].Weather)
	assert.Equal(t, "-2.00%", sectors[1].Rate)
}

func TestETFTrends(t *testing.T) {
	cfg := testConfig()
	cfg.Collect.ETFScan = 3
	cfg.Collect.ETFLimit = 2

	src := &fakeSource{
		etfs: []naver.ETFItem{
			{Ticker: "X", Name: "KODEX X", ChangeRate: 1.0},
			{Ticker: "Y", Name: "KODEX Y", ChangeRate: 3.0},
			{Ticker: "Z", Name: "KODEX Z", ChangeRate: 2.0},
			{Ticker: "W", Name: "KODEX W", ChangeRate: 0.5},
		},
		bars: map[string]market.Series{
			"X": risingSeries(4, 1000),
			"Z": risingSeries(30, 1000),
			"W": risingSeries(30, 1000),
		},
		flows:    map[string]market.InvestorFlow{"X": {ForeignNet: 10}},
		holdings: map[string]string{"X": "삼성전자, SK하이닉스"},
	}
	a := New(src, nil, cfg)

	trends, err := a.ETFTrends(context.Background())
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "Z", trends[0].Ticker)
	assert.Equal(t, "+0.78%", trends[0].Rate)
	assert.Equal(t, "분석 중", trends[0].TopStocks)

	assert.Equal(t, "X", trends[1].Ticker)
	assert.Equal(t, "+0.00%", trends[1].Return5D)
	assert.Equal(t, "+0.00%", trends[1].Return20D)
	assert.Equal(t, "삼성전자, SK하이닉스", trends[1].TopStocks)
	assert.Equal(t, int64(10), trends[1].ForeignNet)
}

func TestCollect_ModeControlsGlobalStatus(t *testing.T) {
	for _, tt := range []struct {
		mode  market.Mode
		calls int
	}{
		{mode: market.Morning, calls: 1},
		{mode: market.Afternoon, calls: 0},
	} {
		t.Run(string(tt.mode), func(t *testing.T) {
			src := candidateSource()
			src.news = []string{"코스피 상승"}
			src.briefing = market.Briefing{KOSPI: market.IndexQuote{Now: "2,650.12"}}
			src.groupTickers = []string{"A"}
			src.ranking = map[naver.Market][]string{naver.KOSPI: {"E"}, naver.KOSDAQ: {}}

			global := &fakeGlobal{}
			a := New(src, global, testConfig())
			a.now = func() time.Time { return time.Date(2025, 1, 10, 15, 40, 0, 0, time.UTC) }

			snap, err := a.Collect(context.Background(), tt.mode)
			require.NoError(t, err)

			assert.Equal(t, tt.mode, snap.Mode)
			assert.Equal(t, tt.calls, global.calls)
			assert.Equal(t, []string{"코스피 상승"}, snap.News)
			assert.Equal(t, "2,650.12", snap.Briefing.KOSPI.Now)
			assert.Equal(t, 2025, snap.CollectedAt.Year())
			require.Len(t, snap.Candidates, 2)
			assert.Equal(t, "A", snap.Candidates[0].Ticker)
			if tt.mode == market.Morning {
				assert.Equal(t, 1.5, snap.Global.ChangeRate("SOXX"))
			} else {
				assert.Nil(t, snap.Global)
			}
		})
	}
}
