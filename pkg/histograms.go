package diag

import (
	"fmt"
	"sort"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// Per-channel binning, matching the SSP diagnostics conventions.
const (
	ampBins = 125
	ampMin  = -20.0
	ampMax  = 230.0

	chargeBins = 300
	chargeMin  = 0.0
	chargeMax  = 3e4

	adcBins = 2000
	adcMin  = 1200.0
	adcMax  = 5200.0
)

// ChannelHists is the per-channel histogram accumulator. Each of the four
// distribution kinds is created on first use for a channel and registered
// with the per-run namespace; Reset drops the whole set at run start, so no
// content leaks across runs.
type ChannelHists struct {
	sampleFreq float64 // MHz

	amplitudes map[int]*hbook.H1D
	charges    map[int]*hbook.H1D
	joints     map[int]*hbook.H2D
	waveforms  map[int]*hbook.H2D
}

func NewChannelHists(sampleFreq float64) *ChannelHists {
	c := &ChannelHists{sampleFreq: sampleFreq}
	c.Reset()
	return c
}

// Reset clears all four per-channel sets.
func (c *ChannelHists) Reset() {
	c.amplitudes = make(map[int]*hbook.H1D)
	c.charges = make(map[int]*hbook.H1D)
	c.joints = make(map[int]*hbook.H2D)
	c.waveforms = make(map[int]*hbook.H2D)
}

func (c *ChannelHists) RecordAmplitude(channel int, value float64, dir HistogramDir) {
	h, ok := c.amplitudes[channel]
	if !ok {
		h = hbook.NewH1D(ampBins, ampMin, ampMax)
		c.amplitudes[channel] = h
		dir.PutH1D(
			fmt.Sprintf("pulse_amplitude_channel_%03d", channel),
			fmt.Sprintf("Pulse Amplitude for OP Channel %03d;leading-edge amplitude [ADC]", channel),
			h,
		)
	}
	h.Fill(value, 1)
}

func (c *ChannelHists) RecordCharge(channel int, value float64, dir HistogramDir) {
	h, ok := c.charges[channel]
	if !ok {
		h = hbook.NewH1D(chargeBins, chargeMin, chargeMax)
		c.charges[channel] = h
		dir.PutH1D(
			fmt.Sprintf("integrated_charge_channel_%03d", channel),
			fmt.Sprintf("Integrated Charge on OP Channel %03d;integrated charge [ADC*tick]", channel),
			h,
		)
	}
	h.Fill(value, 1)
}

func (c *ChannelHists) RecordJoint(channel int, charge, amplitude float64, dir HistogramDir) {
	h, ok := c.joints[channel]
	if !ok {
		h = hbook.NewH2D(chargeBins, chargeMin, chargeMax, ampBins, ampMin, ampMax)
		c.joints[channel] = h
		dir.PutH2D(
			fmt.Sprintf("pulse_amplitude_vs_integrated_charge_channel_%03d", channel),
			fmt.Sprintf("Pulse Amplitude vs. Integrated Charge on OP Channel %03d;integrated charge [ADC*tick];leading-edge amplitude [ADC]", channel),
			h,
		)
	}
	h.Fill(charge, amplitude, 1)
}

// RecordWaveformSample adds one ADC sample of a waveform to the channel's
// waveform-vs-time distribution. The time axis spans the waveform's natural
// span, one bin per sample; nSamples fixes it on first use per run.
func (c *ChannelHists) RecordWaveformSample(channel, nSamples, tick int, adc float64, dir HistogramDir) {
	h, ok := c.waveforms[channel]
	if !ok {
		h = hbook.NewH2D(nSamples, 0, float64(nSamples)/c.sampleFreq, adcBins, adcMin, adcMax)
		c.waveforms[channel] = h
		dir.PutH2D(
			fmt.Sprintf("avgwaveform_channel_%03d", channel),
			fmt.Sprintf("Average Waveform for OP Channel %03d;t (us);amplitude (ADC)", channel),
			h,
		)
	}
	h.Fill(float64(tick)/c.sampleFreq, adc, 1)
}

// Channels lists the channels with an amplitude distribution this run, in
// ascending order.
func (c *ChannelHists) Channels() []int {
	channels := maps.Keys(c.amplitudes)
	sort.Ints(channels)
	return channels
}

func (c *ChannelHists) AmplitudeHist(channel int) (*hbook.H1D, bool) {
	h, ok := c.amplitudes[channel]
	return h, ok
}

func (c *ChannelHists) ChargeHist(channel int) (*hbook.H1D, bool) {
	h, ok := c.charges[channel]
	return h, ok
}

func (c *ChannelHists) WaveformHist(channel int) (*hbook.H2D, bool) {
	h, ok := c.waveforms[channel]
	return h, ok
}
