package analysis

import (
	"math"
	"math/cmplx"
)

func fft(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		return data
	}
	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}
	feven, fodd := fft(even), fft(odd)
	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		out[k] = feven[k] + w*fodd[k]
		out[k+n/2] = feven[k] - w*fodd[k]
	}
	return out
}

// PowerSpectrum returns the magnitude spectrum of a trait-frequency series.
// Input of any length is accepted; it is zero-padded to the next power of
// two, so only the first half of the spectrum is returned.
func PowerSpectrum(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]complex128, n)
	for i, v := range data {
		padded[i] = complex(v, 0)
	}
	spec := fft(padded)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency locates the strongest nonzero spectral peak of data
// sampled every dt and returns its frequency. It returns 0 when the series
// is too short or flat.
func DominantFrequency(data []float64, dt float64) float64 {
	if len(data) < 4 || dt <= 0 {
		return 0
	}
	ps := PowerSpectrum(data)
	maxPower, maxIdx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower, maxIdx = ps[i], i
		}
	}
	if maxIdx == 0 {
		return 0
	}
	n := 2 * len(ps)
	return float64(maxIdx) / (float64(n) * dt)
}
