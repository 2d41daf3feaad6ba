package naver

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"kstock/internal/market"
)

type chartProtocol struct {
	Data struct {
		Symbol string      `xml:"symbol,attr"`
		Name   string      `xml:"name,attr"`
		Items  []chartItem `xml:"item"`
	} `xml:"chartdata"`
}

type chartItem struct {
	Data string `xml:"data,attr"` // YYYYMMDD|open|high|low|close|volume
}

// DailyBars fchart API로 최근 count 개 일봉 (날짜 오름차순)
func (c *Client) DailyBars(ctx context.Context, symbol string, count int) (market.Series, error) {
	url := fmt.Sprintf("%s/sise.nhn?symbol=%s&timeframe=day&count=%d&requestType=0", c.chartURL, symbol, count)

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 응답 XML은 EUC-KR 선언을 포함한다
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel

	var proto chartProtocol
	if err := dec.Decode(&proto); err != nil {
		return nil, fmt.Errorf("decode chart xml: %w", err)
	}

	series := make(market.Series, 0, len(proto.Data.Items))
	for _, it := range proto.Data.Items {
		bar, ok := parseChartItem(it.Data)
		if !ok {
			continue
		}
		series = append(series, bar)
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	log.Debug().
		Str("symbol", symbol).
		Int("count", len(series)).
		Msg("Fetched daily bars from Naver chart")

	return series, nil
}

func parseChartItem(data string) (market.Bar, bool) {
	parts := strings.Split(data, "|")
	if len(parts) < 6 {
		return market.Bar{}, false
	}
	date, err := time.Parse("20060102", parts[0])
	if err != nil {
		return market.Bar{}, false
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return market.Bar{}, false
		}
		vals[i] = v
	}
	volume, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return market.Bar{}, false
	}

	if vals[3] <= 0 {
		return market.Bar{}, false
	}
	return market.Bar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}, true
}
