package diag

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHeader(t *testing.T, data []byte) TriggerHeader {
	t.Helper()

	var hdr TriggerHeader
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr))
	return hdr
}

func TestTriggerHeaderFields(t *testing.T) {
	t.Run("module and channel", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{module: 5, channel: 7}))
		assert.Equal(t, 5, hdr.ModuleID())
		assert.Equal(t, 7, hdr.ChannelID())
	})

	t.Run("timestamp low word first", func(t *testing.T) {
		ts := uint64(0x0123456789ABCDEF)
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{timestamp: ts}))
		assert.Equal(t, ts, hdr.GlobalFirstSample())
	})

	t.Run("positive peak sum", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{peakSum: 0x123456}))
		assert.Equal(t, 0x123456, hdr.PeakSum())
	})

	t.Run("negative peak sum sign extends from bit 23", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{peakSum: -5}))
		assert.Equal(t, -5, hdr.PeakSum())
	})

	t.Run("prerise straddles group4", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{prerise: 0xABCDEF}))
		assert.Equal(t, 0xABCDEF, hdr.PreriseSum())
	})

	t.Run("integrated sum straddles group4", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{intSum: 0x123456}))
		assert.Equal(t, 0x123456, hdr.IntegratedSum())
	})

	t.Run("nadc from declared length", func(t *testing.T) {
		hdr := decodeHeader(t, encodeTrigger(t, triggerSpec{nADC: 100}))
		assert.Equal(t, 100, hdr.NADC())

		hdr.Length = 10 // shorter than the header itself
		assert.Negative(t, hdr.NADC())
	})
}

func TestWordCursor(t *testing.T) {
	data := encodeTrigger(t, triggerSpec{nADC: 4})
	cursor := newWordCursor(data)

	require.Equal(t, TriggerHeaderWords+2, cursor.remainingWords())
	assert.False(t, cursor.done())

	var hdr TriggerHeader
	require.NoError(t, cursor.readHeader(&hdr))
	// readHeader does not advance
	assert.Equal(t, TriggerHeaderWords+2, cursor.remainingWords())

	require.NoError(t, cursor.skipWords(TriggerHeaderWords+2))
	assert.True(t, cursor.done())

	err := cursor.skipWords(1)
	assert.Error(t, err)
	assert.IsType(t, &ErrShortBuffer{}, err)

	err = cursor.readHeader(&hdr)
	assert.Error(t, err)
}
