package diag

import (
	"bytes"
	"encoding/binary"
)

// wordCursor walks a fragment's data region in 32-bit-word steps. The slice
// is never modified; every advance is bounds checked.
type wordCursor struct {
	data []byte
	pos  int // word offset from the start of data
}

func newWordCursor(data []byte) *wordCursor {
	return &wordCursor{data: data}
}

func (c *wordCursor) remainingWords() int {
	return len(c.data)/4 - c.pos
}

func (c *wordCursor) done() bool {
	return c.remainingWords() <= 0
}

// readHeader decodes a trigger header at the current position without
// advancing the cursor.
func (c *wordCursor) readHeader(hdr *TriggerHeader) error {
	if c.remainingWords() < TriggerHeaderWords {
		return &ErrShortBuffer{NeededWords: TriggerHeaderWords, RemainingWords: c.remainingWords()}
	}
	reader := bytes.NewReader(c.data[c.pos*4:])
	return binary.Read(reader, binary.LittleEndian, hdr)
}

// skipWords advances the cursor n words. Landing exactly on the end of the
// data region is fine; going past it is not.
func (c *wordCursor) skipWords(n int) error {
	if n > c.remainingWords() {
		return &ErrShortBuffer{NeededWords: n, RemainingWords: c.remainingWords()}
	}
	c.pos += n
	return nil
}
