package diag

// SSP trigger record header. One record per detected pulse, laid out at the
// front of the record as 12 little-endian 32-bit words. Group fields pack
// several quantities; the accessors below pull them apart.

const TriggerHeaderWords = 12

type TriggerHeader struct {
	Header       uint32    // sync pattern, 0xAAAAAAAA
	Length       uint16    // record length in 32-bit words, header inclusive
	Group1       uint16    // trigger type, status flags, header type
	TriggerID    uint16    // trigger ID
	Group2       uint16    // module ID, channel ID
	Timestamp    [4]uint16 // external timestamp, low word first
	PeakSumLow   uint16    // lower 16 bits of peak sum
	Group3       uint16    // peak offset, upper 8 bits of peak sum
	PreriseLow   uint16    // lower 16 bits of prerise sum
	Group4       uint16    // lower 8 bits of integrated sum, upper 8 bits of prerise
	IntSumHigh   uint16    // upper 16 bits of integrated sum
	Baseline     uint16
	CFDPoint     [4]uint16 // CFD timestamp interpolation points
	IntTimestamp [4]uint16 // internal timestamp, word 0 reserved
}

const triggerSyncWord uint32 = 0xAAAAAAAA

func (h *TriggerHeader) ModuleID() int {
	return int((h.Group2 & 0xFFF0) >> 4)
}

func (h *TriggerHeader) ChannelID() int {
	return int(h.Group2 & 0x000F)
}

func (h *TriggerHeader) TriggerType() int {
	return int((h.Group1 & 0xFFF0) >> 4)
}

// PeakSum is a 24-bit signed quantity, sign-extended from bit 23.
func (h *TriggerHeader) PeakSum() int {
	sum := uint32(h.Group3&0x00FF)<<16 | uint32(h.PeakSumLow)
	if sum&0x00800000 != 0 {
		sum |= 0xFF000000
	}
	return int(int32(sum))
}

func (h *TriggerHeader) PreriseSum() int {
	return int(uint32(h.Group4&0x00FF)<<16 | uint32(h.PreriseLow))
}

func (h *TriggerHeader) IntegratedSum() int {
	return int(uint32(h.IntSumHigh)<<8 | uint32(h.Group4&0xFF00)>>8)
}

// GlobalFirstSample assembles the 64-bit external timestamp of the first
// sample, in SSP clock ticks, low word first.
func (h *TriggerHeader) GlobalFirstSample() uint64 {
	var time uint64
	for iword := 0; iword < 4; iword++ {
		time += uint64(h.Timestamp[iword]) << (16 * iword)
	}
	return time
}

// NADC is the number of ADC samples in the record payload. A negative value
// means the declared length is smaller than the header and the record is
// corrupt.
func (h *TriggerHeader) NADC() int {
	return 2 * (int(h.Length) - TriggerHeaderWords)
}
