package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unsafe"

	diag "github.com/dune-daq/sspdiag/pkg"
)

// On-disk event framing: a fixed little-endian event header followed by
// framed blocks, one per SSP fragment or waveform collection entry. This
// stands in for the host framework's event store.

const eventMagic uint32 = 0xD1A6DA7A

const (
	blockTypeSSPFragment uint32 = 1
	blockTypeWaveform    uint32 = 2
)

type EventHeaderStruct struct {
	EventMagic  uint32
	EventSize   uint32 // bytes, header inclusive
	RunNumber   uint32
	SubRun      uint32
	EventNumber uint32
	NBlocks     uint32
}

type BlockHeaderStruct struct {
	BlockSize  uint32 // bytes, header inclusive
	BlockType  uint32
	FragmentID uint32
	NTriggers  uint32 // 0 means unknown, walk to the end of the data region
}

type WaveformHeaderStruct struct {
	Channel   uint32
	NSamples  uint32
	Timestamp uint64
}

type FileReader struct {
	File     *os.File
	EvtCount int

	cfg    diag.Configuration
	logger *slog.Logger
}

func NewFileReader(file *os.File, cfg diag.Configuration, logger *slog.Logger) *FileReader {
	return &FileReader{File: file, EvtCount: -1, cfg: cfg, logger: logger}
}

// NextEvent reads and assembles the next event, honoring the Skip and
// MaxEvents configuration. io.EOF signals the end of the job.
func (f *FileReader) NextEvent() (*diag.Event, error) {
	header, eventData, err := f.readEvent()
	if err != nil {
		return nil, err
	}
	f.EvtCount++
	if f.EvtCount >= f.cfg.MaxEvents {
		f.logger.Info("Max events reached", "module", "fileReader")
		return nil, io.EOF
	}
	if f.EvtCount < f.cfg.Skip {
		f.logger.Debug(fmt.Sprintf("Skipping event %d", header.EventNumber), "module", "fileReader")
		return f.NextEvent()
	}
	f.logger.Debug(fmt.Sprintf("Reading event %d of run %d", header.EventNumber, header.RunNumber), "module", "fileReader")
	return f.assembleEvent(header, eventData)
}

func (f *FileReader) readEvent() (EventHeaderStruct, []byte, error) {
	var header EventHeaderStruct
	headerSize := unsafe.Sizeof(header)
	headerBinary := make([]byte, headerSize)
	_, err := io.ReadFull(f.File, headerBinary)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return header, nil, io.EOF
		}
		return header, nil, err
	}

	headerReader := bytes.NewReader(headerBinary)
	binary.Read(headerReader, binary.LittleEndian, &header)

	if header.EventMagic != eventMagic {
		return header, nil, fmt.Errorf("bad event magic 0x%08X at event %d", header.EventMagic, f.EvtCount+1)
	}
	if header.EventSize < uint32(headerSize) {
		return header, nil, fmt.Errorf("event %d declares size %d smaller than its header", header.EventNumber, header.EventSize)
	}

	payloadSize := header.EventSize - uint32(headerSize)
	eventData := make([]byte, payloadSize)
	if _, err := io.ReadFull(f.File, eventData); err != nil {
		return header, nil, fmt.Errorf("truncated event %d: %w", header.EventNumber, err)
	}
	return header, eventData, nil
}

// assembleEvent walks the framed blocks of the event payload and sorts them
// into the tagged collections the analyzer retrieves by label. A block that
// cannot be framed marks its fragment invalid rather than failing the read.
func (f *FileReader) assembleEvent(header EventHeaderStruct, eventData []byte) (*diag.Event, error) {
	evt := &diag.Event{
		Run:          int(header.RunNumber),
		SubRun:       int(header.SubRun),
		EventNumber:  int(header.EventNumber),
		RawFragments: make(map[diag.Tag][]diag.Fragment),
		Waveforms:    make(map[diag.Tag][]diag.Waveform),
	}
	fragTag := diag.Tag{Producer: f.cfg.RawDataLabel, Instance: f.cfg.FragType}
	waveTag := diag.Tag{Producer: f.cfg.InputModule, Instance: f.cfg.InputLabel}

	var blockHeader BlockHeaderStruct
	blockHeaderSize := int(unsafe.Sizeof(blockHeader))

	position := 0
	for block := uint32(0); block < header.NBlocks; block++ {
		if position+blockHeaderSize > len(eventData) {
			f.logger.Warn(fmt.Sprintf("Event %d: truncated block header", header.EventNumber), "module", "fileReader")
			evt.RawFragments[fragTag] = append(evt.RawFragments[fragTag], diag.Fragment{Valid: false})
			break
		}
		blockReader := bytes.NewReader(eventData[position : position+blockHeaderSize])
		binary.Read(blockReader, binary.LittleEndian, &blockHeader)

		start := position + blockHeaderSize
		end := position + int(blockHeader.BlockSize)
		if int(blockHeader.BlockSize) < blockHeaderSize || end > len(eventData) {
			f.logger.Warn(fmt.Sprintf("Event %d: block %d overruns event payload", header.EventNumber, block), "module", "fileReader")
			evt.RawFragments[fragTag] = append(evt.RawFragments[fragTag], diag.Fragment{
				FragmentID: blockHeader.FragmentID,
				Valid:      false,
			})
			break
		}
		payload := eventData[start:end]

		switch blockHeader.BlockType {
		case blockTypeSSPFragment:
			evt.RawFragments[fragTag] = append(evt.RawFragments[fragTag], diag.Fragment{
				FragmentID: blockHeader.FragmentID,
				NTriggers:  blockHeader.NTriggers,
				Valid:      true,
				Data:       payload,
			})
		case blockTypeWaveform:
			wf, err := readWaveform(payload)
			if err != nil {
				f.logger.Warn(fmt.Sprintf("Event %d: bad waveform block %d: %v", header.EventNumber, block, err), "module", "fileReader")
			} else {
				evt.Waveforms[waveTag] = append(evt.Waveforms[waveTag], wf)
			}
		default:
			f.logger.Debug(fmt.Sprintf("Event %d: skipping block of unknown type %d", header.EventNumber, blockHeader.BlockType), "module", "fileReader")
		}

		// Next block
		position = end
	}
	return evt, nil
}

func readWaveform(payload []byte) (diag.Waveform, error) {
	var header WaveformHeaderStruct
	headerSize := int(unsafe.Sizeof(header))
	if len(payload) < headerSize {
		return diag.Waveform{}, fmt.Errorf("waveform block of %d bytes is too short", len(payload))
	}
	headerReader := bytes.NewReader(payload[:headerSize])
	binary.Read(headerReader, binary.LittleEndian, &header)

	if headerSize+int(header.NSamples)*2 > len(payload) {
		return diag.Waveform{}, fmt.Errorf("waveform declares %d samples, payload has %d bytes", header.NSamples, len(payload)-headerSize)
	}

	samples := make([]uint16, header.NSamples)
	sampleReader := bytes.NewReader(payload[headerSize:])
	if err := binary.Read(sampleReader, binary.LittleEndian, &samples); err != nil {
		return diag.Waveform{}, err
	}
	return diag.Waveform{
		Channel:   int(header.Channel),
		Timestamp: header.Timestamp,
		Samples:   samples,
	}, nil
}
