package report

// Palette 증권사 리포트 톤의 색상표 (#RRGGBB)
type Palette struct {
	Primary     string // Deep Navy
	Secondary   string // Steel Blue
	Accent      string
	Up          string
	Down        string
	BgLight     string
	TextMain    string
	TextSub     string
	TableHeader string
	TableAlt    string
}

// Fonts 글꼴과 크기
type Fonts struct {
	Main    string
	Base    float64
	Title   float64
	Section float64
	Table   float64
}

// DefaultPalette 기본 색상표
var DefaultPalette = Palette{
	Primary:     "#123456",
	Secondary:   "#4682B4",
	Accent:      "#D93025",
	Up:          "#E74C3C",
	Down:        "#2980B9",
	BgLight:     "#F5F7FA",
	TextMain:    "#2C3E50",
	TextSub:     "#7F8C8D",
	TableHeader: "#E8F0FE",
	TableAlt:    "#F8F9FB",
}

// DefaultFonts 기본 글꼴
var DefaultFonts = Fonts{
	Main:    "Malgun Gothic",
	Base:    10,
	Title:   22,
	Section: 14,
	Table:   8,
}
