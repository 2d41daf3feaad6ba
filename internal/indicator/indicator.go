// Package indicator 일봉 시계열에 대한 기술적 지표 계산
//
// 모든 입력은 날짜 오름차순이다. 윈도우가 채워지지 않은 구간은 NaN으로 채운다.
package indicator

import "math"

// SMA 단순 이동평균 시계열
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	// 윈도우에 NaN이 하나라도 있으면 그 위치는 NaN
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Last 시계열의 마지막 값, 비어 있으면 NaN
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// RSI 상대강도지수 (단순 이동평균 방식)
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period {
		return math.NaN()
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// ADX 평균방향성지수의 마지막 값
func ADX(highs, lows, closes []float64, period int) float64 {
	n := minLen(highs, lows, closes)
	if period <= 0 || n == 0 {
		return 0
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		tr[i] = math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))

		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := SMA(tr, period)
	pdm := SMA(plusDM, period)
	mdm := SMA(minusDM, period)

	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || atr[i] == 0 {
			dx[i] = math.NaN()
			continue
		}
		pdi := 100 * pdm[i] / atr[i]
		mdi := 100 * mdm[i] / atr[i]
		if pdi+mdi == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
	}

	adx := Last(SMA(dx, period))
	if math.IsNaN(adx) {
		return 0
	}
	return adx
}

// OBV 누적 거래량 (On-Balance Volume)
func OBV(closes, volumes []float64) []float64 {
	n := minLen(closes, volumes)
	if n == 0 {
		return nil
	}

	obv := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv[i] = obv[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			obv[i] = obv[i-1] - volumes[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	return obv
}

// StrictlyIncreasing 모든 값이 직전 값보다 큰지
func StrictlyIncreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if !(values[i-1] < values[i]) {
			return false
		}
	}
	return true
}

// Return lookback 봉 전 종가 대비 수익률(%), 시계열이 짧으면 첫 봉 기준
func Return(closes []float64, lookback int) float64 {
	if len(closes) == 0 {
		return 0
	}
	base := closes[0]
	if len(closes) > lookback {
		base = closes[len(closes)-1-lookback]
	}
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base * 100
}

// KDResult KD 지표 결과
type KDResult struct {
	K float64
	D float64
}

// KD 9일 RSV 기반 스토캐스틱 K/D
func KD(highs, lows, closes []float64) KDResult {
	n := minLen(highs, lows, closes)
	if n < 9 {
		return KDResult{K: 50.0, D: 50.0}
	}

	// K = 2/3 * 전일 K + 1/3 * RSV
	// D = 2/3 * 전일 D + 1/3 * K
	k, d := 50.0, 50.0
	for i := 8; i < n; i++ {
		highest, lowest := highs[i-8], lows[i-8]
		for j := i - 8; j <= i; j++ {
			highest = math.Max(highest, highs[j])
			lowest = math.Min(lowest, lows[j])
		}

		rsv := 50.0
		if highest != lowest {
			rsv = (closes[i] - lowest) / (highest - lowest) * 100
		}
		k = (2.0/3.0)*k + (1.0/3.0)*rsv
		d = (2.0/3.0)*d + (1.0/3.0)*k
	}
	return KDResult{K: k, D: d}
}

// DailyReturns 일간 수익률
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// Volatility 연환산 변동성
func Volatility(prices []float64) float64 {
	returns := DailyReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	return stddev(returns) * math.Sqrt(252)
}

// Sharpe 샤프 비율
func Sharpe(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / sd
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func minLen(series ...[]float64) int {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
