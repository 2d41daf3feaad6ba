package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

// eucKR UTF-8 문자열을 EUC-KR 바이트로 인코딩 (네이버 금융 응답 재현)
func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	b, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(WithEndpoints(srv.URL, srv.URL, srv.URL), WithUserAgent("kstock-test"))
}

func serveEUCKR(t *testing.T, mux *http.ServeMux, path, contentType, body string) {
	t.Helper()
	encoded := eucKR(t, body)
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(encoded)
	})
}

func serveUTF8(mux *http.ServeMux, path, contentType, body string) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	})
}

const htmlEUCKR = "text/html;charset=EUC-KR"

func TestBriefing(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/sise/", htmlEUCKR, `<html><body>
<span id="KOSPI_now">2,650.12</span>
<span id="KOSPI_change">12.34 +0.47%<span class="blind">상승</span></span>
<span id="KOSDAQ_now">870.55</span>
<span id="KOSDAQ_change">3.21 -0.37%하락</span>
<ul class="lst_pop"><li><span class="nm">거래대금</span> 12,345억</li></ul>
</body></html>`)

	c := newTestClient(t, mux)
	b, err := c.Briefing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2,650.12", b.KOSPI.Now)
	assert.Equal(t, "12.34", b.KOSPI.Change)
	assert.Equal(t, "+0.47%", b.KOSPI.Rate)
	assert.Equal(t, "12,345억", b.KOSPI.Amount)
	assert.Equal(t, "870.55", b.KOSDAQ.Now)
	assert.Equal(t, "-0.37%", b.KOSDAQ.Rate)
}

func TestMarketNews(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/news/mainnews.naver", htmlEUCKR, `<html><body><ul>
<li><dd class="articleSubject"><a href="#">코스피 상승 마감</a></dd></li>
<li><dd class="articleSubject"><a href="#">반도체 강세</a></dd></li>
<li><dd class="articleSubject"><a href="#">환율 하락</a></dd></li>
</ul></body></html>`)

	c := newTestClient(t, mux)
	news, err := c.MarketNews(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"코스피 상승 마감", "반도체 강세"}, news)
}

func TestSectorGroupsAndDetail(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/sise/sise_group.naver", htmlEUCKR, `<html><body><table class="type_5">
<tr><th>업종명</th><th>전일대비</th></tr>
<tr><td><a href="/sise/sise_group_detail.naver?type=upjong&no=278">반도체와반도체장비</a></td><td>+2.15%</td><td>1</td><td>2</td></tr>
<tr><td><a href="/sise/sise_group_detail.naver?type=upjong&no=261">제약</a></td><td>-1.03%</td><td>1</td><td>2</td></tr>
<tr><td colspan="4"></td></tr>
</table></body></html>`)

	row := func(name, code, f, i string) string {
		return `<tr><td class="name"><a href="/item/main.naver?code=` + code + `">` + name + `</a></td>` +
			`<td>1</td><td>2</td><td>3</td><td>4</td><td>5</td><td>6</td><td>7</td><td>8</td><td>9</td>` +
			`<td>` + f + `</td><td>` + i + `</td></tr>`
	}
	serveEUCKR(t, mux, "/sise/sise_group_detail.naver", htmlEUCKR, `<html><body><table class="type_5">`+
		row("삼성전자", "005930", "1,000", "-200")+
		row("SK하이닉스", "000660", "-300", "500")+
		row("한미반도체", "042700", "50", "50")+
		`</table></body></html>`)

	c := newTestClient(t, mux)
	groups, err := c.SectorGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "반도체와반도체장비", groups[0].Name)
	assert.Equal(t, 2.15, groups[0].RateValue)
	assert.Equal(t, -1.03, groups[1].RateValue)
	assert.Contains(t, groups[0].DetailURL, "/sise/sise_group_detail.naver?type=upjong&no=278")

	d, err := c.FetchSectorDetail(context.Background(), groups[0].DetailURL, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"삼성전자", "SK하이닉스"}, d.Names)
	assert.Equal(t, []string{"005930", "000660"}, d.Tickers)
	assert.Equal(t, int64(700), d.ForeignNet)
	assert.Equal(t, int64(300), d.InstitutionNet)
}

func TestGroupTickersAndVolumeRanking(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/sise/sise_group_detail.naver", htmlEUCKR, `<html><body>
<div class="name_area"><a href="/item/main.naver?code=005930">삼성전자</a></div>
<div class="name_area"><a href="/item/main.naver?code=000660">SK하이닉스</a></div>
</body></html>`)
	mux.HandleFunc("/sise/sise_quant.naver", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", htmlEUCKR)
		if r.URL.Query().Get("sosok") == "1" {
			_, _ = w.Write(eucKR(t, `<a class="tltle" href="/item/main.naver?code=247540">에코프로비엠</a>`))
			return
		}
		_, _ = w.Write(eucKR(t, `<a class="tltle" href="/item/main.naver?code=005930">삼성전자</a>
<a class="tltle" href="/item/main.naver?code=035420">NAVER</a>
<a class="tltle" href="/item/main.naver?code=000660">SK하이닉스</a>`))
	})

	c := newTestClient(t, mux)
	semi, err := c.GroupTickers(context.Background(), 278)
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "000660"}, semi)

	kospi, err := c.VolumeRanking(context.Background(), KOSPI, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "035420"}, kospi)

	kosdaq, err := c.VolumeRanking(context.Background(), KOSDAQ, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"247540"}, kosdaq)
}

const itemPage = `<html><body>
<div class="wrap_company"><h2><a href="#">삼성전자</a></h2></div>
<em id="_market_sum">
	4,512,345</em>
<div class="summary_info"><p>한국 및 DX부문 해외 9개 지역총괄.</p>
<p>메모리 반도체 세계 1위.</p></div>
<div class="section cop_analysis"><table>
<tr><th>영업이익</th><td>100</td><td>-</td><td>300</td><td>400</td></tr>
<tr><th>영업이익률</th><td>10</td><td>11</td><td>12</td></tr>
<tr><th>ROE(지배주주)</th><td>8.1</td><td>9.2</td><td>16.5</td></tr>
</table></div>
<em id="_per">12.5</em><em id="_pbr">0.95</em>
<em id="_target_money">95,000</em>
</body></html>`

func TestFetchItem(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/item/main.naver", htmlEUCKR, itemPage)

	c := newTestClient(t, mux)
	item, err := c.FetchItem(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "삼성전자", item.Name)
	assert.Equal(t, "4,512,345억원", item.MarketCap)
	assert.Equal(t, "한국 및 DX부문 해외 9개 지역총괄. 메모리 반도체 세계 1위.", item.Summary)

	f := item.Financial
	assert.Equal(t, []float64{100, 0, 300}, f.Profits)
	assert.False(t, f.Growing, "a dash column breaks the strictly increasing run")
	assert.Equal(t, 16.5, f.ROE)
	assert.Equal(t, 0.95, f.PBR)
	assert.Equal(t, 12.5, f.PER)
	assert.Equal(t, int64(95000), f.TargetPrice)
}

func TestFetchItem_DefaultsWhenMissing(t *testing.T) {
	mux := http.NewServeMux()
	serveUTF8(mux, "/item/main.naver", "text/html; charset=utf-8", `<html><body>
<div class="section cop_analysis"><table><tr><th>영업이익</th><td>1</td><td>2</td><td>3</td></tr></table></div>
</body></html>`)

	c := newTestClient(t, mux)
	item, err := c.FetchItem(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", item.Name)
	assert.Equal(t, "정보없음", item.MarketCap)
	assert.Equal(t, DefaultSummary, item.Summary)
	assert.True(t, item.Financial.Growing)
	assert.Zero(t, item.Financial.PBR)
}

func TestStockNews(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/item/news_news.naver", htmlEUCKR, `<html><body><table>
<tr><td class="title"><a href="#">실적 발표</a></td><td class="info">연합뉴스</td></tr>
<tr><td class="title"><a href="#">신제품 출시</a></td></tr>
</table></body></html>`)

	c := newTestClient(t, mux)
	news, err := c.StockNews(context.Background(), "005930", 5)
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "실적 발표", news[0].Title)
	assert.Equal(t, "연합뉴스", news[0].Source)
	assert.Equal(t, "", news[1].Source)
}

func TestIntegrationFlowAndHoldings(t *testing.T) {
	mux := http.NewServeMux()
	serveUTF8(mux, "/api/stock/005930/integration", "application/json", `{
 "stockName": "삼성전자",
 "dealTrendInfos": [
  {"bizdate":"20250110","foreignerPureBuyQuant":"+1,000","organPureBuyQuant":"-200","individualPureBuyQuant":"-800"},
  {"bizdate":"20250109","foreignerPureBuyQuant":"+500","organPureBuyQuant":"+300","individualPureBuyQuant":"-800"},
  {"bizdate":"20250108","foreignerPureBuyQuant":"0","organPureBuyQuant":"+100","individualPureBuyQuant":"-100"},
  {"bizdate":"20250107","foreignerPureBuyQuant":"+9,999","organPureBuyQuant":"+9,999","individualPureBuyQuant":"0"}
 ],
 "etfCuInfos": [{"stockName":"삼성전자"},{"stockName":"SK하이닉스"}]
}`)

	c := newTestClient(t, mux)
	in, err := c.FetchIntegration(context.Background(), "005930")
	require.NoError(t, err)

	f := in.Flow(3)
	assert.Equal(t, int64(1500), f.ForeignNet)
	assert.Equal(t, int64(200), f.InstitutionNet)
	assert.Equal(t, int64(-1700), f.IndividualNet)
	assert.Equal(t, 2, f.ForeignDays)
	assert.Equal(t, 2, f.InstitutionDays)

	assert.Equal(t, "삼성전자, SK하이닉스", in.Holdings(5))
	assert.Equal(t, "삼성전자", in.Holdings(1))
	assert.Equal(t, "정보 미흡", (&Integration{}).Holdings(5))
}

func TestDailyBars(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/sise.nhn", "text/xml;charset=EUC-KR", `<?xml version="1.0" encoding="EUC-KR" ?>
<protocol>
<chartdata symbol="005930" name="삼성전자" count="3" timeframe="day" precision="0" origintime="19900103">
<item data="20250103|53000|54000|52500|53800|1000" />
<item data="20250102|52000|53500|51800|53000|2000" />
<item data="20250106|bad|0|0|0|0" />
<item data="20250107|54000|55000|53900|54500|3000" />
</chartdata>
</protocol>`)

	c := newTestClient(t, mux)
	bars, err := c.DailyBars(context.Background(), "005930", 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2025-01-02", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, 53000.0, bars[0].Close)
	assert.Equal(t, int64(3000), bars[2].Volume)
	assert.Equal(t, 55000.0, bars[2].High)
}

func TestETFList_EUCKRJSON(t *testing.T) {
	mux := http.NewServeMux()
	serveEUCKR(t, mux, "/api/sise/etfItemList.nhn", "application/json;charset=EUC-KR", `{"resultCode":"success","result":{"etfItemList":[
{"itemcode":"069500","itemname":"KODEX 200","nowVal":35000,"changeRate":0.47,"marketSum":60000},
{"itemcode":"091160","itemname":"KODEX 반도체","nowVal":30000,"changeRate":2.5,"marketSum":9000}
]}}`)

	c := newTestClient(t, mux)
	items, err := c.ETFList(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "KODEX 반도체", items[1].Name)
	assert.Equal(t, 2.5, items[1].ChangeRate)
}

func TestUnexpectedStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/mainnews.naver", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	})

	c := newTestClient(t, mux)
	_, err := c.MarketNews(context.Background(), 5)
	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestUserAgentHeader(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("/news/mainnews.naver", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	})

	c := newTestClient(t, mux)
	_, err := c.MarketNews(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "kstock-test", got)
}

func TestEmptyPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/mainnews.naver", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/sise/sise_group_detail.naver", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
	})

	c := newTestClient(t, mux)
	news, err := c.MarketNews(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, news)

	tickers, err := c.GroupTickers(context.Background(), 278)
	require.NoError(t, err)
	assert.Empty(t, tickers)
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in     string
		signed int64
		float  float64
	}{
		{in: "+1,990,474", signed: 1990474, float: 1990474},
		{in: "-6,672,482", signed: -6672482, float: -6672482},
		{in: "−12", signed: -12, float: -12},
		{in: "하락 1,200", signed: -1200, float: -1200},
		{in: "+2.15%", signed: 2, float: 2.15},
		{in: "1.5배", signed: 1, float: 1.5},
		{in: "", signed: 0, float: 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.signed, parseSignedNumber(tt.in))
			assert.InDelta(t, tt.float, parseSignedFloat(tt.in), 1e-9)
		})
	}

	assert.Equal(t, 0.0, parseCell("-"))
	assert.Equal(t, 0.0, parseCell(" "))
	assert.Equal(t, -3.5, parseCell("-3.5"))
	assert.Equal(t, "005930", tickerFromHref("/item/main.naver?code=005930"))
	assert.Equal(t, "0080G0", tickerFromHref("/item/main.naver?code=0080G0"))
}
