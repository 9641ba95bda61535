package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of x. len(x) must be a power
// of two.
func FFT(x []complex128) []complex128 {
	n := len(x)
	if n&(n-1) != 0 {
		panic("analysis: fft length must be a power of two")
	}
	if n <= 1 {
		return append([]complex128(nil), x...)
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}
	fe, fo := FFT(even), FFT(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		t := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n))) * fo[k]
		out[k] = fe[k] + t
		out[k+n/2] = fe[k] - t
	}
	return out
}

// Spectrum is the one sided amplitude spectrum of a sampled series.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum removes the mean of series, zero pads it to a power of two
// and transforms it. dt is the sample spacing in seconds.
func PowerSpectrum(series []float64, dt float64) Spectrum {
	if len(series) < 2 || dt <= 0 {
		return Spectrum{}
	}
	n := 1
	for n < len(series) {
		n <<= 1
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	x := make([]complex128, n)
	for i, v := range series {
		x[i] = complex(v-mean, 0)
	}
	f := FFT(x)

	s := Spectrum{Freq: make([]float64, n/2), Power: make([]float64, n/2)}
	for i := range s.Power {
		s.Freq[i] = float64(i) / (float64(n) * dt)
		s.Power[i] = cmplx.Abs(f[i])
	}
	return s
}

// Dominant returns the strongest non-zero frequency.
func (s Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freq[i], s.Power[i]
		}
	}
	return freq, power
}
