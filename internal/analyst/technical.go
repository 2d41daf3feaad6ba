package analyst

import (
	"errors"
	"fmt"
	"math"

	"kstock/internal/indicator"
	"kstock/internal/market"
)

// ErrInsufficientData 기술적 분석에 필요한 일봉이 모자람
var ErrInsufficientData = errors.New("insufficient price history")

const (
	rsiPeriod       = 14
	adxPeriod       = 14
	strongTrendADX  = 25
	volatilityBars  = 21
	breakoutVolume  = 2.0
	pullbackVolume  = 0.5
	obvRisingWindow = 5
)

// Technicals 일봉 시계열로 기술적 지표와 패턴 플래그 계산
func Technicals(series market.Series, minBars int) (market.Technical, error) {
	var t market.Technical
	if len(series) < minBars || len(series) < 2 {
		return t, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), minBars)
	}

	closes := series.Closes()
	volumes := series.Volumes()
	last, prev := series[len(series)-1], series[len(series)-2]

	t.Close = int64(last.Close)
	t.ChangeRate = (last.Close - prev.Close) / prev.Close * 100
	t.RSI = indicator.RSI(closes, rsiPeriod)
	t.ADX = indicator.ADX(series.Highs(), series.Lows(), closes, adxPeriod)

	t.MA5 = indicator.Last(indicator.SMA(closes, 5))
	t.MA20 = indicator.Last(indicator.SMA(closes, 20))
	t.MA60 = indicator.Last(indicator.SMA(closes, 60))
	t.MA120 = indicator.Last(indicator.SMA(closes, 120))
	t.Volume = last.Volume
	t.VolumeMA20 = indicator.Last(indicator.SMA(volumes, 20))

	// NaN 비교는 항상 false 이므로 120봉 미만이면 정배열이 아니다
	t.Perfect = t.MA5 > t.MA20 && t.MA20 > t.MA60 && t.MA60 > t.MA120
	t.Breakout = last.Close > prev.Close && float64(last.Volume) > t.VolumeMA20*breakoutVolume
	t.Pullback = last.Close <= prev.Close && float64(last.Volume) < t.VolumeMA20*pullbackVolume
	t.StrongTrend = t.ADX > strongTrendADX

	obv := indicator.OBV(closes, volumes)
	t.OBVRising = len(obv) >= obvRisingWindow && indicator.StrictlyIncreasing(obv[len(obv)-obvRisingWindow:])

	recent := series.Tail(volatilityBars)
	t.Volatility = indicator.Volatility(recent.Closes())
	t.Sharpe = indicator.Sharpe(indicator.DailyReturns(recent.Closes()), 0)

	kd := indicator.KD(series.Highs(), series.Lows(), closes)
	t.StochK, t.StochD = kd.K, kd.D

	for _, v := range []*float64{&t.RSI, &t.MA5, &t.MA20, &t.MA60, &t.MA120, &t.VolumeMA20} {
		if math.IsNaN(*v) {
			*v = 0
		}
	}
	return t, nil
}
