package diag

import (
	"math"
	"math/cmplx"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/dsp/fourier"
)

// PeakFinder is the external peak-search capability: given a 1D
// distribution, a smoothing sigma (in bins) and a minimum height relative
// to the tallest structure, return candidate peak positions, unordered.
type PeakFinder interface {
	Search(h *hbook.H1D, sigma, minRelHeight float64) []float64
}

// SpectrumAnalyzer is the default PeakFinder: Gaussian smoothing followed
// by a local-maximum scan above the relative-height threshold.
type SpectrumAnalyzer struct {
	maxPeaks int
}

func NewSpectrumAnalyzer(maxPeaks int) *SpectrumAnalyzer {
	return &SpectrumAnalyzer{maxPeaks: maxPeaks}
}

func (s *SpectrumAnalyzer) Search(h *hbook.H1D, sigma, minRelHeight float64) []float64 {
	bins := h.Binning.Bins
	values := make([]float64, len(bins))
	centers := make([]float64, len(bins))
	for i, bin := range bins {
		values[i] = bin.Dist.SumW()
		centers[i] = 0.5 * (bin.Range.Min + bin.Range.Max)
	}

	smoothed := gaussianSmooth(values, sigma)

	highest := 0.0
	for _, v := range smoothed {
		if v > highest {
			highest = v
		}
	}
	if highest <= 0 {
		return nil
	}
	threshold := minRelHeight * highest

	var peaks []float64
	for i := 1; i < len(smoothed)-1; i++ {
		if smoothed[i] < threshold {
			continue
		}
		// Local maximum; plateaus count once, at their left edge
		if smoothed[i] > smoothed[i-1] && smoothed[i] >= smoothed[i+1] {
			peaks = append(peaks, centers[i])
			if len(peaks) >= s.maxPeaks {
				break
			}
		}
	}
	return peaks
}

// gaussianSmooth convolves values with a normalized Gaussian kernel of the
// given sigma in bin units, truncated at four sigma.
func gaussianSmooth(values []float64, sigma float64) []float64 {
	if sigma <= 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	radius := int(math.Ceil(4 * sigma))
	kernel := make([]float64, 2*radius+1)
	norm := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
		norm += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= norm
	}

	out := make([]float64, len(values))
	for i := range values {
		sum := 0.0
		weight := 0.0
		for k, kv := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(values) {
				continue
			}
			sum += kv * values[j]
			weight += kv
		}
		if weight > 0 {
			out[i] = sum / weight
		}
	}
	return out
}

// WaveformFFT computes the magnitude spectrum of the average waveform: the
// per-time-bin mean of the waveform-vs-time distribution is transformed
// with a real FFT. The result has half the time bins, spanning [0,
// 1/(2*dt)] with dt the time bin width in microseconds, so frequencies are
// in MHz.
func WaveformFFT(waveform *hbook.H2D) *hbook.H1D {
	binning := waveform.Binning
	nx := binning.Nx
	xmin := binning.XRange.Min
	xwidth := (binning.XRange.Max - xmin) / float64(nx)

	sums := make([]float64, nx)
	weights := make([]float64, nx)
	for _, bin := range binning.Bins {
		w := bin.Dist.SumW()
		if w == 0 {
			continue
		}
		xmid := 0.5 * (bin.XRange.Min + bin.XRange.Max)
		ymid := 0.5 * (bin.YRange.Min + bin.YRange.Max)
		ix := int((xmid - xmin) / xwidth)
		if ix < 0 || ix >= nx {
			continue
		}
		sums[ix] += ymid * w
		weights[ix] += w
	}

	profile := make([]float64, nx)
	for i := range profile {
		if weights[i] > 0 {
			profile[i] = sums[i] / weights[i]
		}
	}

	fft := fourier.NewFFT(nx)
	coeffs := fft.Coefficients(nil, profile)

	fmax := 1.0 / (2 * xwidth)
	out := hbook.NewH1D(nx/2, 0, fmax)
	binWidth := fmax / float64(nx/2)
	for k := 0; k < nx/2; k++ {
		out.Fill((float64(k)+0.5)*binWidth, cmplx.Abs(coeffs[k]))
	}
	return out
}
