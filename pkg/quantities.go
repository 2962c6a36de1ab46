package diag

// Fixed SSP accumulator window lengths, in samples. m1 is the peak window,
// i1 the integration window, i2 the baseline (prerise) window.
const (
	m1Window = 10
	i1Window = 500
	i2Window = 500
)

// PulseAmplitude is the leading-edge amplitude in ADC counts, derived from
// the prerise (baseline) sum and the peak sum.
func PulseAmplitude(prerise, peakSum float64) float64 {
	return -prerise/i2Window*1.0 + peakSum/m1Window*1.0
}

// IntegratedCharge is the baseline-subtracted integrated sum in ADC*tick.
func IntegratedCharge(prerise, integratedSum float64) float64 {
	return integratedSum - prerise/i2Window*i1Window*1.0
}
