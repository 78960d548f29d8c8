package indicator

import "math"

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// firstValid returns the index of the first non-NaN value, or len(src).
func firstValid(src []float64) int {
	for i, v := range src {
		if !math.IsNaN(v) {
			return i
		}
	}

	return len(src)
}

// SMA is the simple moving average over n values. Leading NaNs in src
// shift the first output; any NaN inside a window yields NaN.
func SMA(src []float64, n int) []float64 {
	out := NaNs(len(src))
	if n <= 0 {
		return out
	}

	for i := firstValid(src) + n - 1; i < len(src); i++ {
		sum := 0.0
		ok := true

		for j := i - n + 1; j <= i; j++ {
			if math.IsNaN(src[j]) {
				ok = false

				break
			}

			sum += src[j]
		}

		if ok {
			out[i] = sum / float64(n)
		}
	}

	return out
}

// ewm is the recursive average seeded with the SMA of the first n valid values.
func ewm(src []float64, n int, alpha float64) []float64 {
	out := NaNs(len(src))
	if n <= 0 {
		return out
	}

	start := firstValid(src)
	seed := start + n - 1

	if seed >= len(src) {
		return out
	}

	sum := 0.0
	for j := start; j <= seed; j++ {
		sum += src[j]
	}

	prev := sum / float64(n)
	out[seed] = prev

	for i := seed + 1; i < len(src); i++ {
		if math.IsNaN(src[i]) {
			continue
		}

		prev = alpha*src[i] + (1-alpha)*prev
		out[i] = prev
	}

	return out
}

// ExpMA is the exponential moving average series, alpha 2/(n+1).
func ExpMA(src []float64, n int) []float64 {
	return ewm(src, n, 2/float64(n+1))
}

// RMA is Wilder's smoothing, alpha 1/n.
func RMA(src []float64, n int) []float64 {
	return ewm(src, n, 1/float64(n))
}

// RollingMax and RollingMin scan a trailing window of n values.
func RollingMax(src []float64, n int) []float64 {
	return rolling(src, n, math.Max)
}

func RollingMin(src []float64, n int) []float64 {
	return rolling(src, n, math.Min)
}

func rolling(src []float64, n int, pick func(a, b float64) float64) []float64 {
	out := NaNs(len(src))
	if n <= 0 {
		return out
	}

	for i := firstValid(src) + n - 1; i < len(src); i++ {
		v := src[i-n+1]
		for j := i - n + 2; j <= i; j++ {
			v = pick(v, src[j])
		}

		out[i] = v
	}

	return out
}

// StdDev is the population standard deviation over a trailing window.
func StdDev(src []float64, n int) []float64 {
	mean := SMA(src, n)
	out := NaNs(len(src))

	for i := range src {
		if math.IsNaN(mean[i]) {
			continue
		}

		sq := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := src[j] - mean[i]
			sq += d * d
		}

		out[i] = math.Sqrt(sq / float64(n))
	}

	return out
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and is NaN.
func TrueRange(high, low, closes []float64) []float64 {
	out := NaNs(len(closes))
	for i := 1; i < len(closes); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}

	return out
}

// Crossover marks golden and death crosses of fast over slow.
//
// gx[t] = slow[t] when fast[t] > slow[t] and fast[t-1] <= slow[t-1].
// dx[t] = slow[t] when fast[t] < slow[t] and fast[t-1] >= slow[t-1].
// Every other bar, including any bar with a NaN operand, records 0.
func Crossover(fast, slow []float64) (gx, dx []float64) {
	gx = make([]float64, len(fast))
	dx = make([]float64, len(fast))

	for t := 1; t < len(fast) && t < len(slow); t++ {
		f, s := fast[t], slow[t]
		pf, ps := fast[t-1], slow[t-1]

		// comparisons against NaN are false, leaving the zero value
		if f > s && pf <= ps {
			gx[t] = s
		}

		if f < s && pf >= ps {
			dx[t] = s
		}
	}

	return gx, dx
}
