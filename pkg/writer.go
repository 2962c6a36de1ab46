package diag

import (
	"fmt"
	"log/slog"
	"sort"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// WaveformWriter dumps the pre-decoded optical waveforms of every event to
// an HDF5 file: a Run group with run/event tables and an RD group with one
// int16 waveform array of shape (events, channels, samples). The array
// shape is fixed by the first event written.
type WaveformWriter struct {
	File         *hdf5.File
	Filename     string
	FirstEvt     bool
	RunGroup     *hdf5.Group
	RDGroup      *hdf5.Group
	EventTable   *hdf5.Dataset
	RunInfoTable *hdf5.Dataset
	Waveforms    *hdf5.Dataset

	compressionLevel int
	nChannels        int
	nSamples         int
	EvtCounter       int
	logger           *slog.Logger
}

func NewWaveformWriter(filename string, compressionLevel int, logger *slog.Logger) (*WaveformWriter, error) {
	writer := &WaveformWriter{
		Filename:         filename,
		FirstEvt:         true,
		compressionLevel: compressionLevel,
		logger:           logger,
	}
	logger.Info(fmt.Sprintf("Creating waveform file: %s", filename), "module", "writer")

	var err error
	writer.File, err = openFile(filename)
	if err != nil {
		return nil, err
	}
	writer.RunGroup, err = createGroup(writer.File, "Run")
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", "Run", err)
	}
	writer.RDGroup, err = createGroup(writer.File, "RD")
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", "RD", err)
	}
	writer.EventTable, err = createTable(writer.RunGroup, "events", EventInfoHDF5{}, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", "events", err)
	}
	writer.RunInfoTable, err = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", "runInfo", err)
	}
	return writer, nil
}

// WriteEvent appends one event's waveforms. Channels are written in
// ascending order; waveforms shorter than the first event's sample count
// are zero padded, longer ones truncated.
func (w *WaveformWriter) WriteEvent(evt *Event, waveforms []Waveform) error {
	if len(waveforms) == 0 {
		return nil
	}

	sorted := make([]Waveform, len(waveforms))
	copy(sorted, waveforms)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Channel < sorted[j].Channel
	})

	if w.FirstEvt {
		w.nChannels = len(sorted)
		w.nSamples = len(sorted[0].Samples)
		var err error
		w.Waveforms, err = create3dArray(w.RDGroup, "waveforms", w.nChannels, w.nSamples, w.compressionLevel)
		if err != nil {
			return fmt.Errorf("error creating waveform array: %w", err)
		}
		if err := writeEntryToTable(w.RunInfoTable, RunInfoHDF5{run_number: int32(evt.Run)}, 0); err != nil {
			return err
		}
		w.FirstEvt = false
	}

	var timestamp uint64
	data := make([]int16, w.nChannels*w.nSamples)
	for i, wf := range sorted {
		if i >= w.nChannels {
			w.logger.Warn(fmt.Sprintf("Event %d has %d waveforms, expected %d; extra channels dropped",
				evt.EventNumber, len(sorted), w.nChannels), "module", "writer")
			break
		}
		if wf.Timestamp > timestamp {
			timestamp = wf.Timestamp
		}
		n := min(len(wf.Samples), w.nSamples)
		for s := 0; s < n; s++ {
			data[i*w.nSamples+s] = int16(wf.Samples[s])
		}
	}

	if err := write3dArray(w.Waveforms, &data, w.EvtCounter, w.nChannels, w.nSamples); err != nil {
		return fmt.Errorf("error writing waveforms for event %d: %w", evt.EventNumber, err)
	}
	entry := EventInfoHDF5{evt_number: int32(evt.EventNumber), timestamp: timestamp}
	if err := writeEntryToTable(w.EventTable, entry, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event info for event %d: %w", evt.EventNumber, err)
	}
	w.EvtCounter++
	return nil
}

func (w *WaveformWriter) Close() {
	if w.Waveforms != nil {
		w.Waveforms.Close()
	}
	w.EventTable.Close()
	w.RunInfoTable.Close()
	w.RunGroup.Close()
	w.RDGroup.Close()
	w.File.Close()
}
