package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Configuration {
	return Configuration{
		FragType:     "PHOTON",
		RawDataLabel: "daq",
		InputModule:  "ssptooffline",
		InputLabel:   "offlinePhoton",
		Reformatter:  ReformatterConfig{ClockFrequency: 150.0, NOvAClockFrequency: 64.0, ChannelsPerModule: 12},
	}
}

func newTestAnalyzer(store HistogramStore) *Analyzer {
	cfg := testConfig()
	reform := NewReformatter(cfg.Reformatter, testLogger())
	return NewAnalyzer(cfg, reform, store, NewSpectrumAnalyzer(100), testLogger())
}

func testEvent(run, number int, frags []Fragment, waveforms []Waveform) *Event {
	cfg := testConfig()
	evt := &Event{
		Run:          run,
		EventNumber:  number,
		RawFragments: make(map[Tag][]Fragment),
		Waveforms:    make(map[Tag][]Waveform),
	}
	if frags != nil {
		evt.RawFragments[Tag{Producer: cfg.RawDataLabel, Instance: cfg.FragType}] = frags
	}
	if waveforms != nil {
		evt.Waveforms[Tag{Producer: cfg.InputModule, Instance: cfg.InputLabel}] = waveforms
	}
	return evt
}

func TestAnalyzer(t *testing.T) {
	t.Run("trigger records fill per-channel distributions", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		data := encodeTriggers(t,
			triggerSpec{channel: 1, timestamp: testTimestamp, peakSum: 1000, prerise: 500, intSum: 2000},
			triggerSpec{channel: 1, timestamp: testTimestamp + 150000000, peakSum: 1000, prerise: 500, intSum: 2000},
			triggerSpec{channel: 2, timestamp: testTimestamp + 300000000, peakSum: 1000, prerise: 500, intSum: 2000},
		)
		frag := Fragment{FragmentID: 0, Valid: true, Data: data}

		require.NoError(t, analyzer.Analyze(testEvent(1, 1, []Fragment{frag}, nil)))

		assert.Equal(t, map[int]int64{1: 2, 2: 1}, analyzer.TriggerCount())
		assert.Equal(t, int64(3), analyzer.pulseAmplitude.Entries())

		h, ok := analyzer.channelHists.AmplitudeHist(1)
		require.True(t, ok)
		assert.Equal(t, int64(2), h.Entries())
		h, ok = analyzer.channelHists.AmplitudeHist(2)
		require.True(t, ok)
		assert.Equal(t, int64(1), h.Entries())

		// Distributions registered under the run namespace
		runDir := store.runs[1]
		require.NotNil(t, runDir)
		assert.Contains(t, runDir.h1s, "pulse_amplitude_channel_001")
		assert.Contains(t, runDir.h1s, "integrated_charge_channel_002")
		assert.Contains(t, runDir.h2s, "pulse_amplitude_vs_integrated_charge_channel_001")

		// Job-wide distribution registered at the top level
		assert.Contains(t, store.top.h1s, "pulseamplitude")
	})

	t.Run("timing anomalies fill but are excluded from bookkeeping", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		data := encodeTriggers(t,
			triggerSpec{channel: 1, timestamp: 12345, peakSum: 1000, prerise: 500, intSum: 2000},
			triggerSpec{channel: 1, timestamp: testTimestamp, peakSum: 1000, prerise: 500, intSum: 2000},
		)
		frag := Fragment{Valid: true, Data: data}

		require.NoError(t, analyzer.Analyze(testEvent(1, 1, []Fragment{frag}, nil)))

		h, ok := analyzer.channelHists.AmplitudeHist(1)
		require.True(t, ok)
		assert.Equal(t, int64(2), h.Entries())
		assert.Equal(t, map[int]int64{1: 1}, analyzer.TriggerCount())
	})

	t.Run("missing fragment collection skips the event", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		require.NoError(t, analyzer.Analyze(testEvent(1, 1, nil, nil)))
		assert.Empty(t, analyzer.TriggerCount())
	})

	t.Run("invalid fragments abort the event", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		err := analyzer.Analyze(testEvent(1, 1, []Fragment{{Valid: false}}, nil))
		require.Error(t, err)
		assert.IsType(t, &ErrInvalidFragments{}, err)
		assert.Contains(t, err.Error(), "NOT VALID")
	})

	t.Run("waveforms fill the waveform distribution", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		samples := make([]uint16, 128)
		for i := range samples {
			samples[i] = 2000
		}
		wf := Waveform{Channel: 4, Timestamp: testTimestamp, Samples: samples}

		require.NoError(t, analyzer.Analyze(testEvent(1, 1, []Fragment{}, []Waveform{wf})))

		h, ok := analyzer.channelHists.WaveformHist(4)
		require.True(t, ok)
		assert.Equal(t, int64(128), h.Entries())
		assert.Contains(t, store.runs[1].h2s, "avgwaveform_channel_004")
	})

	t.Run("run boundary resets per-run distributions", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		data := encodeTrigger(t, triggerSpec{channel: 1, timestamp: testTimestamp, peakSum: 1000, prerise: 500, intSum: 2000})
		frag := Fragment{Valid: true, Data: data}
		require.NoError(t, analyzer.Analyze(testEvent(1, 1, []Fragment{frag}, nil)))
		analyzer.EndRun(1)

		analyzer.BeginRun(2)
		assert.Empty(t, analyzer.channelHists.Channels())
	})

	t.Run("end of run folds amplitudes into the summary", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()

		data := encodeTrigger(t, triggerSpec{channel: 1, timestamp: testTimestamp, peakSum: 1000, prerise: 500, intSum: 2000})
		frag := Fragment{Valid: true, Data: data}

		analyzer.BeginRun(3)
		require.NoError(t, analyzer.Analyze(testEvent(3, 1, []Fragment{frag}, nil)))
		analyzer.EndRun(3)

		analyzer.BeginRun(5)
		require.NoError(t, analyzer.Analyze(testEvent(5, 2, []Fragment{frag}, nil)))
		analyzer.EndRun(5)

		analyzer.EndJob()

		h, ok := store.top.h2s["PulseAmpDistVsRun_channel_001"]
		require.True(t, ok)
		assert.Equal(t, 3, h.Binning.Nx)
		assert.Equal(t, 1.0, cellWeight(h, 3.5, 99))
		assert.Equal(t, 1.0, cellWeight(h, 5.5, 99))

		first, last, ok := analyzer.summary.RunRange(1)
		require.True(t, ok)
		assert.Equal(t, 3, first)
		assert.Equal(t, 5, last)
	})

	t.Run("end of run writes the waveform FFT", func(t *testing.T) {
		store := newMemStore()
		analyzer := newTestAnalyzer(store)
		analyzer.BeginJob()
		analyzer.BeginRun(1)

		samples := make([]uint16, 128)
		for i := range samples {
			samples[i] = 2000
		}
		wf := Waveform{Channel: 1, Timestamp: testTimestamp, Samples: samples}
		data := encodeTrigger(t, triggerSpec{channel: 1, timestamp: testTimestamp, peakSum: 1000, prerise: 500, intSum: 2000})
		frag := Fragment{Valid: true, Data: data}

		require.NoError(t, analyzer.Analyze(testEvent(1, 1, []Fragment{frag}, []Waveform{wf})))
		analyzer.EndRun(1)

		assert.Contains(t, store.runs[1].h1s, "waveformFFT_channel_001")
	})
}
