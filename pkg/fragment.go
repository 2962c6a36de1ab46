package diag

import (
	"fmt"
	"log/slog"
)

// Timestamps below this many ticks cannot be real first-sample times; the
// record still fills histograms but is excluded from rate bookkeeping.
const validTimestampMin uint64 = 10000000000000000 // 1e16

// TriggerRecord is the decoded outcome for one trigger record.
type TriggerRecord struct {
	Channel       int
	FirstSample   uint64
	Amplitude     float64
	Charge        float64
	TimingAnomaly bool
}

// WalkStats summarizes one fragment walk.
type WalkStats struct {
	Processed int // records handed to the callback
	Skipped   int // undecodable records advanced past
	Anomalies int // timing anomalies among the processed records
}

// WalkFragment iterates the trigger records embedded in the fragment's data
// region and hands each decoded record to handle. When the fragment
// declares a trigger count the walk stops after that many records even if
// buffer space remains; either way it stops at the end of the data region.
// A record whose header cannot be interpreted is skipped by its declared
// length; a record whose declared length cannot advance the cursor aborts
// the walk for this fragment only.
func WalkFragment(frag Fragment, reform *Reformatter, logger *slog.Logger, handle func(TriggerRecord)) WalkStats {
	cursor := newWordCursor(frag.Data)
	var stats WalkStats

	for iter := uint32(0); frag.NTriggers == 0 || iter < frag.NTriggers; iter++ {
		if cursor.done() {
			break
		}

		var hdr TriggerHeader
		if err := cursor.readHeader(&hdr); err != nil {
			logger.Warn(fmt.Sprintf("Fragment %d: truncated trigger header: %v", frag.FragmentID, err), "module", "walker")
			break
		}

		nADC := hdr.NADC()
		if nADC < 0 {
			logger.Warn(fmt.Sprintf("Fragment %d: corrupt trigger record, declared length %d words", frag.FragmentID, hdr.Length), "module", "walker")
			break
		}

		rec, err := decodeTrigger(&hdr, reform)
		if err != nil {
			stats.Skipped++
			logger.Debug(fmt.Sprintf("Fragment %d: skipping trigger record: %v", frag.FragmentID, err), "module", "walker")
		} else {
			if rec.TimingAnomaly {
				reform.DumpHeader(&hdr)
				logger.Info(fmt.Sprintf("Problem timestamp at %d", rec.FirstSample), "module", "walker")
				stats.Anomalies++
			}
			handle(rec)
			stats.Processed++
		}

		// Advance the cursor to the next header
		if err := cursor.skipWords(TriggerHeaderWords + nADC/2); err != nil {
			logger.Warn(fmt.Sprintf("Fragment %d: trigger record overruns data region: %v", frag.FragmentID, err), "module", "walker")
			break
		}
	}
	return stats
}

func decodeTrigger(hdr *TriggerHeader, reform *Reformatter) (TriggerRecord, error) {
	channel, err := reform.OpChannel(hdr)
	if err != nil {
		return TriggerRecord{}, err
	}

	firstSample := hdr.GlobalFirstSample()
	peakSum := float64(hdr.PeakSum())
	prerise := float64(hdr.PreriseSum())
	integratedSum := float64(hdr.IntegratedSum())

	return TriggerRecord{
		Channel:       channel,
		FirstSample:   firstSample,
		Amplitude:     PulseAmplitude(prerise, peakSum),
		Charge:        IntegratedCharge(prerise, integratedSum),
		TimingAnomaly: firstSample < validTimestampMin,
	}, nil
}
