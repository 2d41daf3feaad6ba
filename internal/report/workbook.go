package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"kstock/internal/market"
	"kstock/internal/strategy"
)

// 시트 이름
const (
	SheetSummary = "Summary"
	SheetPicks   = "Picks"
	SheetSectors = "Sectors"
	SheetETFs    = "ETFs"
	SheetGlobal  = "Global"
)

// rowStyle 데이터 셀 스타일 키. trend: 1 상승, -1 하락, 0 보합
type rowStyle struct {
	alt   bool
	trend int
}

type styles struct {
	header int
	rows   map[rowStyle]int

	title   int
	sub     int
	section int
	label   int
	value   int
	accent  int
}

func (p *Publisher) newStyles(f *excelize.File) (*styles, error) {
	font := func(color string, size float64, bold bool) *excelize.Font {
		return &excelize.Font{Family: p.fonts.Main, Size: size, Color: color, Bold: bold}
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	s := &styles{rows: make(map[rowStyle]int)}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:      font("#FFFFFF", p.fonts.Base, true),
			Fill:      fill(p.palette.Primary),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.title, &excelize.Style{Font: font(p.palette.Primary, p.fonts.Title, true), Fill: fill(p.palette.BgLight)}},
		{&s.sub, &excelize.Style{Font: font(p.palette.TextSub, p.fonts.Base, false), Fill: fill(p.palette.BgLight)}},
		{&s.section, &excelize.Style{Font: font(p.palette.Secondary, p.fonts.Section, true)}},
		{&s.label, &excelize.Style{Font: font(p.palette.TextMain, p.fonts.Base, true), Fill: fill(p.palette.TableHeader)}},
		{&s.value, &excelize.Style{Font: font(p.palette.TextMain, p.fonts.Base, false)}},
		{&s.accent, &excelize.Style{Font: font(p.palette.Accent, p.fonts.Base, true)}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, err
		}
		*d.dst = id
	}

	colors := map[int]string{1: p.palette.Up, -1: p.palette.Down, 0: p.palette.TextMain}
	for _, alt := range []bool{false, true} {
		for trend, color := range colors {
			st := &excelize.Style{Font: font(color, p.fonts.Table, trend != 0)}
			if alt {
				st.Fill = fill(p.palette.TableAlt)
			}
			id, err := f.NewStyle(st)
			if err != nil {
				return nil, err
			}
			s.rows[rowStyle{alt: alt, trend: trend}] = id
		}
	}
	return s, nil
}

type sheetWriter struct {
	f      *excelize.File
	name   string
	styles *styles
	row    int
	cols   int
}

func (w *sheetWriter) header(titles ...string) error {
	w.cols = len(titles)
	row := make([]any, len(titles))
	for i, t := range titles {
		row[i] = t
	}
	if err := w.f.SetSheetRow(w.name, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(w.cols, 1)
	if err := w.f.SetCellStyle(w.name, "A1", last, w.styles.header); err != nil {
		return err
	}
	w.row = 1
	return w.f.SetColWidth(w.name, "A", columnName(w.cols), 14)
}

// append 한 행 추가. 데이터 행을 하나 걸러 배경색을 깔고, trendCol(1부터) 셀은 같은 배경 위에 부호별 글자색을 입힌다.
func (w *sheetWriter) append(values []any, trendCol int, trend float64) error {
	w.row++
	start, _ := excelize.CoordinatesToCellName(1, w.row)
	if err := w.f.SetSheetRow(w.name, start, &values); err != nil {
		return err
	}

	alt := w.row%2 == 1
	end, _ := excelize.CoordinatesToCellName(w.cols, w.row)
	if err := w.f.SetCellStyle(w.name, start, end, w.styles.rows[rowStyle{alt: alt}]); err != nil {
		return err
	}
	if trendCol > 0 && trend != 0 {
		sign := 1
		if trend < 0 {
			sign = -1
		}
		cell, _ := excelize.CoordinatesToCellName(trendCol, w.row)
		return w.f.SetCellStyle(w.name, cell, cell, w.styles.rows[rowStyle{alt: alt, trend: sign}])
	}
	return nil
}

func columnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

func (p *Publisher) writeWorkbook(path string, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := p.newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetPicks, SheetSectors, SheetETFs, SheetGlobal} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	var picks []market.Pick
	if r.Result != nil {
		picks = r.Result.Picks
	}
	if err := writeSummary(f, st, r); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writePicks(&sheetWriter{f: f, name: SheetPicks, styles: st}, picks); err != nil {
		return fmt.Errorf("picks sheet: %w", err)
	}
	if err := writeSectors(&sheetWriter{f: f, name: SheetSectors, styles: st}, r.Snapshot.Sectors); err != nil {
		return fmt.Errorf("sectors sheet: %w", err)
	}
	if err := writeETFs(&sheetWriter{f: f, name: SheetETFs, styles: st}, r.Snapshot.ETFs); err != nil {
		return fmt.Errorf("etfs sheet: %w", err)
	}
	if err := writeGlobal(&sheetWriter{f: f, name: SheetGlobal, styles: st}, r.Snapshot.Global); err != nil {
		return fmt.Errorf("global sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

// writeSummary 표지 시트: 제목, 생성 시각, 요약 표
func writeSummary(f *excelize.File, st *styles, r *Report) error {
	set := func(cell string, v any, style int) error {
		if err := f.SetCellValue(SheetSummary, cell, v); err != nil {
			return err
		}
		return f.SetCellStyle(SheetSummary, cell, cell, style)
	}

	var bonus strategy.Bonus
	var picks []market.Pick
	if r.Result != nil {
		bonus, picks = r.Result.Bonus, r.Result.Picks
	}
	top := "-"
	if len(picks) > 0 {
		top = fmt.Sprintf("%s (%s) %.1f점", picks[0].Name, picks[0].Ticker, picks[0].FinalScore)
	}

	cells := []struct {
		cell  string
		value any
		style int
	}{
		{"A1", r.Snapshot.Mode.Label() + " 주식 리서치 리포트", st.title},
		{"A2", "생성 시각 " + r.CreatedAt.Format("2006-01-02 15:04"), st.sub},
		{"A4", "요약", st.section},
		{"A5", "선정 종목 수", st.label},
		{"B5", len(picks), st.value},
		{"A6", "최고 점수 종목", st.label},
		{"B6", top, st.accent},
		{"A7", "반도체 해외 가점", st.label},
		{"B7", bonus.Semi, st.value},
		{"A8", "기술주 해외 가점(미적용)", st.label},
		{"B8", bonus.Tech, st.value},
		{"A9", "수집 섹터 수", st.label},
		{"B9", len(r.Snapshot.Sectors), st.value},
		{"A10", "수집 ETF 수", st.label},
		{"B10", len(r.Snapshot.ETFs), st.value},
	}
	for _, c := range cells {
		if err := set(c.cell, c.value, c.style); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 26); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 36)
}

func writePicks(w *sheetWriter, picks []market.Pick) error {
	if err := w.header("순위", "종목코드", "종목명", "현재가", "등락률", "목표가", "손절가", "점수",
		"수급", "밸류", "추세", "해외", "섹터", "PBR", "ROE", "RSI", "ADX", "외국인일수", "기관일수", "패턴", "사유"); err != nil {
		return err
	}
	for i, p := range picks {
		b := p.Breakdown
		values := []any{
			i + 1, p.Ticker, p.Name, p.Close, round2(p.ChangeRate), p.Target, p.StopLoss, p.FinalScore,
			b.Flow, b.Valuation, b.Trend, b.Global, b.Sector,
			p.PBR, p.ROE, round2(p.RSI), round2(p.ADX), p.ForeignDays, p.InstitutionDays, p.Rationale, p.Reason,
		}
		if err := w.append(values, 5, p.ChangeRate); err != nil {
			return err
		}
	}
	return nil
}

func writeSectors(w *sheetWriter, sectors []market.Sector) error {
	if err := w.header("섹터", "기상도", "당일", "5일", "20일", "대표종목", "주요 종목", "외국인", "기관", "개인"); err != nil {
		return err
	}
	for _, s := range sectors {
		values := []any{s.Name, s.Weather, s.Rate, s.Return5D, s.Return20D, s.RepTicker, s.TopStocks,
			s.ForeignNet, s.InstitutionNet, s.IndividualNet}
		if err := w.append(values, 3, s.Score); err != nil {
			return err
		}
	}
	return nil
}

func writeETFs(w *sheetWriter, etfs []market.ETFTrend) error {
	if err := w.header("종목코드", "ETF", "당일", "5일", "20일", "외국인", "기관", "개인", "주요 구성 종목"); err != nil {
		return err
	}
	for _, e := range etfs {
		values := []any{e.Ticker, e.Name, e.Rate, e.Return5D, e.Return20D,
			e.ForeignNet, e.InstitutionNet, e.IndividualNet, e.TopStocks}
		if err := w.append(values, 3, e.Score); err != nil {
			return err
		}
	}
	return nil
}

func writeGlobal(w *sheetWriter, global market.GlobalStatus) error {
	if err := w.header("지표", "심볼", "종가", "등락률"); err != nil {
		return err
	}
	for _, name := range []string{"NASDAQ", "S&P500", "SOXX", "XLK"} {
		q, ok := global[name]
		if !ok {
			continue
		}
		if err := w.append([]any{name, q.Symbol, q.Price, q.ChangeRate}, 4, q.ChangeRate); err != nil {
			return err
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
