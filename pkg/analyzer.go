package diag

import (
	"fmt"
	"log/slog"
	"sort"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// Analyzer accumulates SSP diagnostics over a job: per-run per-channel
// distributions, a job-wide amplitude distribution, and the cumulative
// amplitude-vs-run summaries. It is driven synchronously by the host event
// loop; one event is fully processed before the next arrives, so there is
// no locking anywhere.
type Analyzer struct {
	cfg    Configuration
	reform *Reformatter
	store  HistogramStore
	finder PeakFinder
	logger *slog.Logger

	pulseAmplitude *hbook.H1D
	channelHists   *ChannelHists
	summary        *RunSummary

	firstTime    uint64
	lastTime     uint64
	triggerCount map[int]int64
}

func NewAnalyzer(cfg Configuration, reform *Reformatter, store HistogramStore, finder PeakFinder, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		cfg:          cfg,
		reform:       reform,
		store:        store,
		finder:       finder,
		logger:       logger,
		channelHists: NewChannelHists(reform.NOvAClockFrequency()),
		summary:      NewRunSummary(),
	}
}

func (a *Analyzer) BeginJob() {
	a.pulseAmplitude = hbook.NewH1D(125, -50, 200)
	a.store.Top().PutH1D("pulseamplitude", "Pulse Amplitude;leading-edge amplitude [ADC]", a.pulseAmplitude)

	a.firstTime = uint64(1) << 63
	a.lastTime = 0
	a.triggerCount = make(map[int]int64)
}

func (a *Analyzer) BeginRun(run int) {
	a.channelHists.Reset()
	a.logger.Debug(fmt.Sprintf("Begin run %d", run), "module", "analyzer")
}

// Analyze processes one event: waveforms into the per-channel
// waveform-vs-time distributions, then every trigger record of every SSP
// fragment. A missing fragment collection skips the event; an invalid one
// aborts it with an error for the host to act on.
func (a *Analyzer) Analyze(evt *Event) error {
	runDir := a.store.Run(evt.Run)

	a.logger.Debug(fmt.Sprintf("Starting analysis of event %d", evt.EventNumber), "module", "analyzer")

	frags, ok := evt.FragmentsByLabel(a.cfg.RawDataLabel, a.cfg.FragType)
	if !ok {
		a.logger.Warn(fmt.Sprintf("Raw SSP data not found in event %d", evt.EventNumber), "module", "analyzer")
		return nil
	}
	for _, frag := range frags {
		if !frag.Valid {
			err := &ErrInvalidFragments{Run: evt.Run, SubRun: evt.SubRun, Event: evt.EventNumber}
			a.logger.Error(err.Error(), "module", "analyzer")
			return err
		}
	}

	if waveforms, found := evt.WaveformsByLabel(a.cfg.InputModule, a.cfg.InputLabel); found {
		for _, wf := range waveforms {
			for tick, adc := range wf.Samples {
				a.channelHists.RecordWaveformSample(wf.Channel, len(wf.Samples), tick, float64(adc), runDir)
			}
		}
	}

	a.logger.Debug(fmt.Sprintf("Number of fragments = %d", len(frags)), "module", "analyzer")

	for _, frag := range frags {
		stats := WalkFragment(frag, a.reform, a.logger, func(rec TriggerRecord) {
			a.pulseAmplitude.Fill(rec.Amplitude, 1)
			a.channelHists.RecordAmplitude(rec.Channel, rec.Amplitude, runDir)
			a.channelHists.RecordCharge(rec.Channel, rec.Charge, runDir)
			a.channelHists.RecordJoint(rec.Channel, rec.Charge, rec.Amplitude, runDir)

			if rec.TimingAnomaly {
				return
			}
			if rec.FirstSample < a.firstTime {
				a.firstTime = rec.FirstSample
			}
			if rec.FirstSample > a.lastTime {
				a.lastTime = rec.FirstSample
			}
			a.triggerCount[rec.Channel]++
		})
		a.logger.Debug(fmt.Sprintf("Fragment %d: %d triggers processed, %d skipped, %d timing anomalies",
			frag.FragmentID, stats.Processed, stats.Skipped, stats.Anomalies), "module", "analyzer")
	}

	return nil
}

// EndRun reports the trigger rate, estimates the photoelectron calibration
// constants, derives the average-waveform FFTs, and folds this run's
// amplitude distributions into the run-spanning summaries.
func (a *Analyzer) EndRun(run int) {
	a.reportTriggerRate()

	runDir := a.store.Run(run)
	for _, channel := range a.channelHists.Channels() {
		a.calibrateChannel(channel)

		if waveform, ok := a.channelHists.WaveformHist(channel); ok {
			fft := WaveformFFT(waveform)
			runDir.PutH1D(
				fmt.Sprintf("waveformFFT_channel_%03d", channel),
				fmt.Sprintf("Average Waveform FFT for OP Channel %03d;f (MHz);power", channel),
				fft,
			)
		}

		if amplitudes, ok := a.channelHists.AmplitudeHist(channel); ok {
			a.summary.Extend(channel, run, amplitudes)
		}
	}
}

// EndJob copies every run-spanning summary into the top-level namespace of
// the histogram store.
func (a *Analyzer) EndJob() {
	a.summary.PersistTo(a.store.Top())
}

// TriggerCount reports how many well-timed triggers were seen per channel
// so far in the job.
func (a *Analyzer) TriggerCount() map[int]int64 {
	counts := make(map[int]int64, len(a.triggerCount))
	for channel, n := range a.triggerCount {
		counts[channel] = n
	}
	return counts
}

func (a *Analyzer) reportTriggerRate() {
	if a.lastTime <= a.firstTime {
		a.logger.Info("!! Diagnostic Rate Report: no valid triggers seen", "module", "analyzer")
		return
	}
	deltaT := a.lastTime - a.firstTime
	deltaTus := float64(deltaT) / a.reform.ClockFrequency()

	a.logger.Info("!! Diagnostic Rate Report.", "module", "analyzer")
	a.logger.Info(fmt.Sprintf("!! Time: %g minutes.", deltaTus/60.e6), "module", "analyzer")

	channels := maps.Keys(a.triggerCount)
	sort.Ints(channels)
	for _, channel := range channels {
		freq := float64(a.triggerCount[channel]) / deltaTus * 1000.
		a.logger.Info(fmt.Sprintf("!!    Channel %3d: %g kHz", channel, freq), "module", "analyzer")
	}
}

func (a *Analyzer) calibrateChannel(channel int) {
	amplitudes, ok := a.channelHists.AmplitudeHist(channel)
	if !ok || amplitudes.Entries() == 0 {
		return
	}

	adcPerPE := CalibrateAmplitude(amplitudes, a.finder)
	intPerPE := CalibrationResult{}
	if charges, found := a.channelHists.ChargeHist(channel); found {
		intPerPE = CalibrateCharge(charges, a.finder)
	}

	switch {
	case adcPerPE.OK && intPerPE.OK:
		a.logger.Info(fmt.Sprintf("OpDet Channel %d :\t LE %g ADC/PE\t IC %g charge/PE",
			channel, adcPerPE.Spacing, intPerPE.Spacing), "module", "calibration")
	case adcPerPE.OK:
		a.logger.Info(fmt.Sprintf("OpDet Channel %d :\t LE %g ADC/PE\t IC no calibration available",
			channel, adcPerPE.Spacing), "module", "calibration")
	case intPerPE.OK:
		a.logger.Info(fmt.Sprintf("OpDet Channel %d :\t LE no calibration available\t IC %g charge/PE",
			channel, intPerPE.Spacing), "module", "calibration")
	default:
		a.logger.Info(fmt.Sprintf("OpDet Channel %d :\t no calibration available", channel), "module", "calibration")
	}
}
