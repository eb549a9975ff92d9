package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("series too short")

// Spectrum is the one sided amplitude spectrum of a series sampled once
// per frame.
type Spectrum struct {
	Freqs []float64 // Hz
	Power []float64
}

// PowerSpectrum removes the mean of series and transforms it. fps is the
// sample rate.
func PowerSpectrum(series []float64, fps float64) (Spectrum, error) {
	n := len(series)
	if n < 4 {
		return Spectrum{}, ErrShortSeries
	}
	centered := make([]float64, n)
	copy(centered, series)
	floats.AddConst(-stat.Mean(series, nil), centered)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	s := Spectrum{
		Freqs: make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freqs[i] = fft.Freq(i) * fps
		s.Power[i] = cmplx.Abs(c)
	}
	return s, nil
}

// Dominant returns the strongest frequency above zero.
func (s Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freqs[i], s.Power[i]
		}
	}
	return freq, power
}

type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// Trend is the least squares slope per second.
	Trend float64
}

// Summarize describes values sampled at times, in seconds.
func Summarize(times, values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	var s Summary
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	s.Min, s.Max = floats.Min(values), floats.Max(values)
	if len(values) > 1 && len(times) == len(values) {
		_, s.Trend = stat.LinearRegression(times, values, nil, false)
	}
	return s
}
