// Package editor 수집 데이터와 추천 종목으로 리포트 본문(Markdown)을 작성한다.
package editor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"kstock/internal/market"
)

// Divider 종목 상세 사이 구분 표식. PDF 렌더러가 페이지 구분선으로 바꾼다.
const Divider = "[DIVIDER]"

const (
	defaultEnterprise = "해당 기업은 최근 시장 내 독보적인 기술적 해자와 사업 포트폴리오를 바탕으로 안정적인 수익성을 증명하고 있으며, 주요 경영 지표가 우상향 추세에 있습니다."
	disclaimer        = "**Disclaimer**: 본 리포트는 투자 참고용 데이터이며 최종 판단은 투자자 본인에게 있습니다."
)

// Editor 리포트 본문 작성기
type Editor struct {
	p *message.Printer
}

// New 한국어 숫자 표기(천 단위 구분)를 쓰는 Editor
func New() *Editor {
	return &Editor{p: message.NewPrinter(language.Korean)}
}

type draft struct {
	b strings.Builder
}

func (d *draft) line(s string) {
	d.b.WriteString(s)
	d.b.WriteByte('\n')
}

func (d *draft) linef(format string, args ...any) {
	d.line(fmt.Sprintf(format, args...))
}

// Draft 모드별 리포트 본문
func (e *Editor) Draft(snap *market.Snapshot, picks []market.Pick) string {
	d := &draft{}
	morning := snap.Mode == market.Morning

	d.linef("# %s 주식 리서치 리포트 (%s)", snap.Mode.Label(), snap.CollectedAt.Format("2006-01-02"))
	d.line("")

	if morning {
		e.morningBriefing(d, snap.Global)
	} else {
		e.closingBriefing(d, snap.Briefing)
	}

	d.line("## 2. 주요 마켓 이슈 및 경제 뉴스")
	if len(snap.News) == 0 {
		d.line("- 현재 주요 뉴스를 수집 중이거나 휴장일입니다.")
	}
	for _, n := range snap.News {
		d.line("- " + n)
	}
	d.line("")

	e.sectors(d, snap.Sectors)
	e.etfs(d, snap.ETFs)

	d.line("## 4. 데일리 마켓 & 뉴스 심층 분석")
	d.line("금일 시장은 거시 경제 환경의 불확실성 속에서도 반도체 및 하이테크 섹터 중심의 '선택과 집중' 장세가 뚜렷했습니다. " +
		"특히 주요 외신과 증권사들이 주목한 이슈들이 시장의 트리거로 작용하였으나, 견조한 실적을 기반으로 한 우량주들은 수급의 하방 지지력을 확인시켜 주었습니다. " +
		"기술적 분석 관점에서는 하방 압력보다는 매수 에너지가 응축되는 구간으로 판단되며, 뉴스 플로우를 통한 재료 노출 시 폭발적인 시세 분출 가능성이 높은 종목군들에 대한 선제적 대응이 필요합니다. " +
		"외인/기관의 누적 순매수 데이터는 이러한 스마트 머니의 유입을 강력하게 시사하고 있습니다.")
	d.line("")

	e.picks(d, picks)

	if morning && len(snap.Global) > 0 {
		e.global(d, snap.Global)
	}

	d.line("")
	d.line("---")
	d.line(disclaimer)
	return d.b.String()
}

func (e *Editor) morningBriefing(d *draft, global market.GlobalStatus) {
	d.line("## 1. 밤사이 미 증시 요약 및 국내 시장 전망")

	summary := "밤사이 미 증시는 "
	if len(global) > 0 {
		ndq := global.ChangeRate("NASDAQ")
		sox := global.ChangeRate("SOXX")
		sentiment := "조정을 받으며 신중한 접근이 필요한 상황입니다."
		if ndq > 0 {
			sentiment = "강세를 보이며 국내 증시의 긍정적 출발이 예상됩니다."
		}
		summary += fmt.Sprintf("나스닥 %s%% 변동, 필라델피아 반도체 지수 %s%%를 기록하며 %s ", rate(ndq), rate(sox), sentiment)
	}
	summary += "특히 주요 빅테크 종목들의 실적 발표와 거시 지표 방향성에 따라 국내 IT 및 반도체 섹터의 변동성이 확대될 것으로 보입니다. " +
		"개장 전 선제적 종목 선정이 필수적인 구간입니다."
	d.line(summary)
	d.line("")
}

func (e *Editor) closingBriefing(d *draft, b market.Briefing) {
	d.line("## 1. 데일리 마켓 마감 브리핑")
	d.linef("금일 국내 증시는 특정 섹터로의 수급 집중 현상이 뚜렷했습니다. KOSPI는 %spt(%s), 거래대금 %s을 기록했습니다. "+
		"외국인과 기관의 '선택적 매집'이 이어지며 하방 경직성을 확보했습니다.",
		orNA(b.KOSPI.Now), orNA(b.KOSPI.Rate), orNA(b.KOSPI.Amount))
	if b.KOSDAQ.Now != "" {
		d.linef("KOSDAQ은 %spt(%s)로 마감했습니다.", b.KOSDAQ.Now, orNA(b.KOSDAQ.Rate))
	}
	d.line("")
}

func (e *Editor) sectors(d *draft, sectors []market.Sector) {
	d.line("## 3. 주요 섹터별 기상도 및 전망 (Top 5 Insights)")
	d.line("최근 5일 및 20일 누적 등락율을 기반으로 한 단기/중기 트렌드 분석입니다. ☀️(맑음) 섹터군에 대한 비중 확대 전략이 유효합니다.")
	d.line("")
	if len(sectors) == 0 {
		return
	}

	d.line("| 섹터 | 기상도 | 당일 | 5일 | 20일 | 외국인 | 기관 | 개인 | 주요 종목 |")
	d.line("|---|---|---|---|---|---:|---:|---:|---|")
	for _, s := range sectors {
		d.linef("| %s | %s | %s | %s | %s | %s | %s | %s | %s |",
			s.Name, s.Weather, s.Rate, s.Return5D, s.Return20D,
			e.p.Sprintf("%d", s.ForeignNet), e.p.Sprintf("%d", s.InstitutionNet), e.p.Sprintf("%d", s.IndividualNet),
			s.TopStocks)
	}
	d.line("")
}

func (e *Editor) etfs(d *draft, etfs []market.ETFTrend) {
	if len(etfs) == 0 {
		return
	}
	d.line("### ETF 동향 (당일 등락률 상위)")
	d.line("| ETF | 당일 | 5일 | 20일 | 외국인 | 기관 | 주요 구성 종목 |")
	d.line("|---|---|---|---|---:|---:|---|")
	for _, t := range etfs {
		d.linef("| %s | %s | %s | %s | %s | %s | %s |",
			t.Name, t.Rate, t.Return5D, t.Return20D,
			e.p.Sprintf("%d", t.ForeignNet), e.p.Sprintf("%d", t.InstitutionNet), t.TopStocks)
	}
	d.line("")
}

func (e *Editor) picks(d *draft, picks []market.Pick) {
	d.line("## 5. AI-Model Picks 상세 분석 (스마트 머니 중심)")
	d.line("외인/기관의 '연속 순매수' 데이터와 'VPA(거래량-가격 분석)' 패턴을 복합적으로 필터링한 정예 종목군입니다.")
	d.line("")

	if len(picks) > 0 {
		d.line("| 순위 | 종목 | 현재가 | 목표가 | 손절가 | 점수 |")
		d.line("|---:|---|---:|---:|---:|---:|")
		for i, p := range picks {
			d.linef("| %d | %s (%s) | %s | %s | %s | %.1f |",
				i+1, p.Name, p.Ticker,
				e.p.Sprintf("%d", p.Close), e.p.Sprintf("%d", p.Target), e.p.Sprintf("%d", p.StopLoss),
				p.FinalScore)
		}
		d.line("")
	}

	for i, p := range picks {
		d.linef(" %d) %s (%s)", i+1, p.Name, p.Ticker)

		enterprise := p.Summary
		if enterprise == "" {
			enterprise = defaultEnterprise
		}
		d.line("  - 기업분석 : " + enterprise)

		rationale := p.Rationale
		if rationale == "" {
			rationale = "에너지 응축"
		}
		d.linef("  - 핵심사유: %s을(를) 바탕으로 스마트 머니의 수급 강도가 임계점을 상회하고 있으며, 기술적으로 %s 패턴이 완성되어 폭발적인 시세 분출이 기대되는 시점입니다. (ADX: %.1f)",
			p.Reason, rationale, p.ADX)
		d.line(Divider)
	}
}

func (e *Editor) global(d *draft, global market.GlobalStatus) {
	d.line("")
	d.line("## 해외 시장 동향")
	d.line("| 지표 | 종가 | 등락률 |")
	d.line("|---|---:|---:|")
	for _, name := range []string{"NASDAQ", "S&P500", "SOXX", "XLK"} {
		q, ok := global[name]
		if !ok {
			continue
		}
		d.linef("| %s | %s | %s%% |", name, e.p.Sprintf("%.2f", q.Price), rate(q.ChangeRate))
	}
}

// rate 불필요한 0 없이 표기하되 소수점 한 자리는 남긴다 (1.5 -> "1.5", 2 -> "2.0")
func rate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
