package diag

import "fmt"

// ErrShortBuffer signals that a fragment's data region ended before a full
// trigger record could be read.
type ErrShortBuffer struct {
	NeededWords    int
	RemainingWords int
}

func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("insufficient bytes remaining: need %d words, have %d", e.NeededWords, e.RemainingWords)
}

// ErrUnknownChannel signals a trigger header whose module/channel bits do
// not resolve to an offline channel in the current channel map.
type ErrUnknownChannel struct {
	ElecID int
}

func (e *ErrUnknownChannel) Error() string {
	return fmt.Sprintf("no offline channel mapped for electronics id %d", e.ElecID)
}

// ErrInvalidFragments signals a fragment collection that is present in the
// event but flagged invalid by the readout. The event must be aborted.
type ErrInvalidFragments struct {
	Run    int
	SubRun int
	Event  int
}

func (e *ErrInvalidFragments) Error() string {
	return fmt.Sprintf("run %d, subrun %d, event %d: raw fragments NOT VALID", e.Run, e.SubRun, e.Event)
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}
