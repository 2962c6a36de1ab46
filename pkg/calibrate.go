package diag

import (
	"sort"

	"go-hep.org/x/hep/hbook"
)

// Peak-search tuning and plausible photoelectron spacing windows for the
// two calibrated distributions.
const (
	ampSearchSigma  = 1.5
	ampSearchRelMin = 0.001
	ampSpacingMin   = 10.0
	ampSpacingMax   = 20.0

	chargeSearchSigma  = 2.5
	chargeSearchRelMin = 0.001
	chargeSpacingMin   = 1000.0
	chargeSpacingMax   = 1800.0
)

// CalibrationResult is the estimated distance between successive
// single-photoelectron peaks. OK is false when no peak spacing passed the
// plausibility window and no calibration is available.
type CalibrationResult struct {
	Spacing float64
	NPeaks  int
	NDiffs  int
	OK      bool
}

// PeakSpacing estimates the photoelectron spacing of a distribution from
// the candidate peaks found by the search capability: peaks are sorted
// ascending, the first and last are treated as edge artifacts and excluded,
// and the surviving consecutive differences inside [spacingMin, spacingMax]
// are averaged.
func PeakSpacing(h *hbook.H1D, finder PeakFinder, sigma, minRelHeight, spacingMin, spacingMax float64) CalibrationResult {
	if h.Entries() == 0 {
		return CalibrationResult{}
	}

	peaks := finder.Search(h, sigma, minRelHeight)
	sort.Float64s(peaks)

	result := CalibrationResult{NPeaks: len(peaks)}
	sum := 0.0
	for p := 1; p+1 <= len(peaks)-2; p++ {
		diff := peaks[p+1] - peaks[p]
		if diff < spacingMin || diff > spacingMax {
			continue
		}
		sum += diff
		result.NDiffs++
	}
	if result.NDiffs == 0 {
		return result
	}
	result.Spacing = sum / float64(result.NDiffs)
	result.OK = true
	return result
}

// CalibrateAmplitude estimates ADC per photoelectron from a pulse-amplitude
// distribution.
func CalibrateAmplitude(h *hbook.H1D, finder PeakFinder) CalibrationResult {
	return PeakSpacing(h, finder, ampSearchSigma, ampSearchRelMin, ampSpacingMin, ampSpacingMax)
}

// CalibrateCharge estimates charge per photoelectron from an
// integrated-charge distribution.
func CalibrateCharge(h *hbook.H1D, finder PeakFinder) CalibrationResult {
	return PeakSpacing(h, finder, chargeSearchSigma, chargeSearchRelMin, chargeSpacingMin, chargeSpacingMax)
}
