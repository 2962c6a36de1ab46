package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

// stubFinder reports a fixed peak list, ignoring the distribution.
type stubFinder struct {
	peaks []float64
}

func (s stubFinder) Search(h *hbook.H1D, sigma, minRelHeight float64) []float64 {
	return s.peaks
}

func TestPeakSpacing(t *testing.T) {
	filled := amplitudeHist(31)

	t.Run("interior differences are averaged", func(t *testing.T) {
		finder := stubFinder{peaks: []float64{0, 10, 25, 40, 1000}}
		result := PeakSpacing(filled, finder, 1.5, 0.001, 10, 20)

		require.True(t, result.OK)
		assert.Equal(t, 5, result.NPeaks)
		assert.Equal(t, 2, result.NDiffs)
		assert.InDelta(t, 15.0, result.Spacing, 1e-12)
	})

	t.Run("differences outside the window are dropped", func(t *testing.T) {
		finder := stubFinder{peaks: []float64{0, 100, 200, 300, 400}}
		result := PeakSpacing(filled, finder, 1.5, 0.001, 10, 20)

		assert.False(t, result.OK)
		assert.Equal(t, 0, result.NDiffs)
		assert.Equal(t, 0.0, result.Spacing)
	})

	t.Run("fewer than four peaks leaves no interior pair", func(t *testing.T) {
		finder := stubFinder{peaks: []float64{10, 25, 40}}
		result := PeakSpacing(filled, finder, 1.5, 0.001, 10, 20)

		assert.False(t, result.OK)
	})

	t.Run("empty distribution is not searched", func(t *testing.T) {
		finder := stubFinder{peaks: []float64{0, 10, 25, 40, 1000}}
		result := PeakSpacing(hbook.NewH1D(ampBins, ampMin, ampMax), finder, 1.5, 0.001, 10, 20)

		assert.False(t, result.OK)
		assert.Equal(t, 0, result.NPeaks)
	})

	t.Run("unsorted peaks are sorted first", func(t *testing.T) {
		finder := stubFinder{peaks: []float64{1000, 25, 0, 40, 10}}
		result := PeakSpacing(filled, finder, 1.5, 0.001, 10, 20)

		require.True(t, result.OK)
		assert.InDelta(t, 15.0, result.Spacing, 1e-12)
	})
}

func TestCalibrateAmplitude(t *testing.T) {
	// Photoelectron peaks 20 ADC apart, on bin centers of the 2-ADC binning
	h := hbook.NewH1D(ampBins, ampMin, ampMax)
	for _, center := range []float64{31, 51, 71, 91, 111} {
		for fill := 0; fill < 100; fill++ {
			h.Fill(center, 1)
		}
	}

	result := CalibrateAmplitude(h, NewSpectrumAnalyzer(100))
	require.True(t, result.OK)
	assert.Equal(t, 5, result.NPeaks)
	assert.InDelta(t, 20.0, result.Spacing, 2.0)
}

func TestCalibrateChargeNoPeaks(t *testing.T) {
	// A flat distribution has no photoelectron structure
	h := hbook.NewH1D(chargeBins, chargeMin, chargeMax)
	for fill := 0; fill < chargeBins; fill++ {
		h.Fill(chargeMin+(float64(fill)+0.5)*(chargeMax-chargeMin)/chargeBins, 1)
	}

	result := CalibrateCharge(h, NewSpectrumAnalyzer(100))
	assert.False(t, result.OK)
}
