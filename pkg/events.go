package diag

// Tag selects a named collection in the event store: producer label plus
// instance label.
type Tag struct {
	Producer string
	Instance string
}

func (t Tag) String() string {
	return t.Producer + ":" + t.Instance
}

// Fragment is one readout unit's raw byte payload for one event. Data is
// the trigger-record data region, read-only to the analyzer. NTriggers of
// zero means the count is unknown and the walk stops on buffer end only.
type Fragment struct {
	FragmentID uint32
	NTriggers  uint32
	Valid      bool
	Data       []byte
}

// Waveform is one pre-decoded optical-detector waveform.
type Waveform struct {
	Channel   int
	Timestamp uint64
	Samples   []uint16
}

// Event holds the per-event collections delivered by the host framework.
type Event struct {
	Run          int
	SubRun       int
	EventNumber  int
	RawFragments map[Tag][]Fragment
	Waveforms    map[Tag][]Waveform
}

func (e *Event) FragmentsByLabel(producer, instance string) ([]Fragment, bool) {
	frags, ok := e.RawFragments[Tag{Producer: producer, Instance: instance}]
	return frags, ok
}

func (e *Event) WaveformsByLabel(producer, instance string) ([]Waveform, bool) {
	wfs, ok := e.Waveforms[Tag{Producer: producer, Instance: instance}]
	return wfs, ok
}
