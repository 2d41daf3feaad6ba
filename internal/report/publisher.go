// Package report 리포트 산출물(Markdown, JSON, XLSX) 저장과 보관소 조회
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"kstock/internal/config"
	"kstock/internal/market"
	"kstock/internal/strategy"
)

// 산출물 형식
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatXLSX     = "xlsx"
)

var extensions = map[string]string{
	FormatMarkdown: ".md",
	FormatJSON:     ".json",
	FormatXLSX:     ".xlsx",
}

// Report 한 번의 실행 결과
type Report struct {
	Snapshot  *market.Snapshot
	Result    *strategy.Result
	Draft     string
	CreatedAt time.Time
}

// Document JSON 산출물 구조
type Document struct {
	Mode        market.Mode      `json:"mode"`
	GeneratedAt time.Time        `json:"generated_at"`
	Bonus       strategy.Bonus   `json:"bonus"`
	Picks       []market.Pick    `json:"picks"`
	Snapshot    *market.Snapshot `json:"snapshot"`
}

// BaseName Stock_Report_{AM|PM}_{YYYYMMDD_HHMM}
func BaseName(mode market.Mode, t time.Time) string {
	return fmt.Sprintf("Stock_Report_%s_%s", mode.Tag(), t.Format("20060102_1504"))
}

// Publisher 산출물 저장
type Publisher struct {
	dir     string
	formats []string
	palette Palette
	fonts   Fonts
}

// NewPublisher 출력 설정으로 Publisher 생성
func NewPublisher(cfg config.OutputConfig) *Publisher {
	return &Publisher{
		dir:     cfg.Dir,
		formats: cfg.Formats,
		palette: DefaultPalette,
		fonts:   DefaultFonts,
	}
}

// Publish 설정된 형식으로 산출물을 쓰고 경로 목록을 돌려준다.
func (p *Publisher) Publish(ctx context.Context, r *Report) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(p.dir, BaseName(r.Snapshot.Mode, r.CreatedAt))
	var written []string

	for _, format := range p.formats {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ext, ok := extensions[format]
		if !ok {
			return written, fmt.Errorf("unknown output format %q", format)
		}
		path := base + ext

		var err error
		switch format {
		case FormatMarkdown:
			err = os.WriteFile(path, []byte(r.Draft), 0o644)
		case FormatJSON:
			err = p.writeJSON(path, r)
		case FormatXLSX:
			err = p.writeWorkbook(path, r)
		}
		if err != nil {
			return written, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}

		log.Debug().Str("path", path).Msg("Wrote report artifact")
		written = append(written, path)
	}
	return written, nil
}

func (p *Publisher) writeJSON(path string, r *Report) error {
	doc := Document{
		Mode:        r.Snapshot.Mode,
		GeneratedAt: r.CreatedAt,
		Snapshot:    r.Snapshot,
	}
	if r.Result != nil {
		doc.Bonus = r.Result.Bonus
		doc.Picks = r.Result.Picks
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
