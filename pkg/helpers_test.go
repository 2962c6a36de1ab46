package diag

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDir collects registered histograms in memory.
type memDir struct {
	h1s map[string]*hbook.H1D
	h2s map[string]*hbook.H2D
}

func newMemDir() *memDir {
	return &memDir{
		h1s: make(map[string]*hbook.H1D),
		h2s: make(map[string]*hbook.H2D),
	}
}

func (d *memDir) PutH1D(name, title string, h *hbook.H1D) { d.h1s[name] = h }
func (d *memDir) PutH2D(name, title string, h *hbook.H2D) { d.h2s[name] = h }

// memStore implements HistogramStore with one memDir per namespace.
type memStore struct {
	top  *memDir
	runs map[int]*memDir
}

func newMemStore() *memStore {
	return &memStore{top: newMemDir(), runs: make(map[int]*memDir)}
}

func (s *memStore) Top() HistogramDir { return s.top }

func (s *memStore) Run(run int) HistogramDir {
	d, ok := s.runs[run]
	if !ok {
		d = newMemDir()
		s.runs[run] = d
	}
	return d
}

type triggerSpec struct {
	module    int
	channel   int
	timestamp uint64
	peakSum   int32
	prerise   uint32
	intSum    uint32
	nADC      int
}

// encodeTrigger serializes one trigger record (header plus ADC payload) the
// way an SSP writes it.
func encodeTrigger(t *testing.T, tr triggerSpec) []byte {
	t.Helper()

	hdr := TriggerHeader{
		Header: triggerSyncWord,
		Length: uint16(TriggerHeaderWords + tr.nADC/2),
		Group2: uint16(tr.module<<4 | tr.channel),
	}
	for iword := 0; iword < 4; iword++ {
		hdr.Timestamp[iword] = uint16(tr.timestamp >> (16 * iword))
	}
	peak := uint32(tr.peakSum) & 0x00FFFFFF
	hdr.PeakSumLow = uint16(peak & 0xFFFF)
	hdr.Group3 = uint16(peak >> 16)
	hdr.PreriseLow = uint16(tr.prerise & 0xFFFF)
	hdr.Group4 = uint16(tr.prerise>>16)&0x00FF | uint16(tr.intSum&0xFF)<<8
	hdr.IntSumHigh = uint16(tr.intSum >> 8)

	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &hdr))
	for sample := 0; sample < tr.nADC; sample++ {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, uint16(2000+sample)))
	}
	return buf.Bytes()
}

func encodeTriggers(t *testing.T, specs ...triggerSpec) []byte {
	t.Helper()

	var data []byte
	for _, tr := range specs {
		data = append(data, encodeTrigger(t, tr)...)
	}
	return data
}
