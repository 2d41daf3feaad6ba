package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrNotFound 보관소에 없는 산출물
	ErrNotFound = errors.New("report not found")
	// ErrInvalidName 산출물 이름 형식이 아님
	ErrInvalidName = errors.New("invalid report name")
)

var artifactRe = regexp.MustCompile(`^Stock_Report_(AM|PM)_(\d{8}_\d{4})\.(md|json|xlsx)$`)

var formatByExt = map[string]string{
	"md":   FormatMarkdown,
	"json": FormatJSON,
	"xlsx": FormatXLSX,
}

// Artifact 보관된 산출물 한 개
type Artifact struct {
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Session   string    `json:"session"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Archive 출력 디렉터리의 산출물 조회
type Archive struct {
	dir string
	loc *time.Location
}

// NewArchive 파일명 시각을 loc 기준으로 해석하는 Archive
func NewArchive(dir string, loc *time.Location) *Archive {
	if loc == nil {
		loc = time.UTC
	}
	return &Archive{dir: dir, loc: loc}
}

func (a *Archive) parse(name string) (Artifact, bool) {
	m := artifactRe.FindStringSubmatch(name)
	if m == nil {
		return Artifact{}, false
	}
	created, err := time.ParseInLocation("20060102_1504", m[2], a.loc)
	if err != nil {
		return Artifact{}, false
	}
	return Artifact{Name: name, Session: m[1], CreatedAt: created, Format: formatByExt[m[3]]}, true
}

// List 산출물 목록, 최신순
func (a *Archive) List() ([]Artifact, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var out []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		art, ok := a.parse(e.Name())
		if !ok {
			continue
		}
		if info, err := e.Info(); err == nil {
			art.Size = info.Size()
		}
		out = append(out, art)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Path 이름 검증 후 산출물 경로
func (a *Archive) Path(name string) (string, error) {
	if filepath.Base(name) != name {
		return "", ErrInvalidName
	}
	if _, ok := a.parse(name); !ok {
		return "", ErrInvalidName
	}

	path := filepath.Join(a.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// Open 산출물 파일 열기
func (a *Archive) Open(name string) (*os.File, error) {
	path, err := a.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Latest 가장 최근 JSON 산출물
func (a *Archive) Latest() (*Document, error) {
	list, err := a.List()
	if err != nil {
		return nil, err
	}
	for _, art := range list {
		if art.Format != FormatJSON {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.dir, art.Name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", art.Name, err)
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", art.Name, err)
		}
		return &doc, nil
	}
	return nil, ErrNotFound
}
