package diag

import (
	"fmt"
	"log/slog"

	sqlx "github.com/jmoiron/sqlx"
)

// ReformatterConfig is the nested configuration block for the header
// interpretation collaborator.
type ReformatterConfig struct {
	ClockFrequency     float64 `json:"clock_frequency"`      // SSP clock, MHz
	NOvAClockFrequency float64 `json:"nova_clock_frequency"` // timestamp clock, MHz
	ChannelsPerModule  int     `json:"channels_per_module"`
}

// Reformatter interprets SSP trigger headers: it owns the electronics-id to
// offline-channel mapping and the detector clock frequencies. The channel
// map is loaded per run from the database; without one every electronics id
// maps to itself.
type Reformatter struct {
	cfg        ReformatterConfig
	channelMap map[int]int
	logger     *slog.Logger
}

func NewReformatter(cfg ReformatterConfig, logger *slog.Logger) *Reformatter {
	return &Reformatter{cfg: cfg, logger: logger}
}

// ClockFrequency is the SSP clock frequency in MHz, so that a tick
// difference divided by it is a time in microseconds.
func (r *Reformatter) ClockFrequency() float64 {
	return r.cfg.ClockFrequency
}

func (r *Reformatter) NOvAClockFrequency() float64 {
	return r.cfg.NOvAClockFrequency
}

// LoadChannelMap replaces the current channel map with the run-ranged
// mapping from the database.
func (r *Reformatter) LoadChannelMap(db *sqlx.DB, runNumber int) error {
	channelMap, err := getChannelMapFromDB(db, runNumber, r.logger)
	if err != nil {
		return fmt.Errorf("error getting channel map from database: %w", err)
	}
	r.channelMap = channelMap
	return nil
}

// OpChannel derives the offline optical channel for a trigger header. It
// fails when the module/channel bits do not resolve in the channel map; the
// caller must still advance past the record by its declared length.
func (r *Reformatter) OpChannel(hdr *TriggerHeader) (int, error) {
	elecID := hdr.ModuleID()*r.cfg.ChannelsPerModule + hdr.ChannelID()
	if r.channelMap == nil {
		return elecID, nil
	}
	channel, ok := r.channelMap[elecID]
	if !ok {
		return 0, &ErrUnknownChannel{ElecID: elecID}
	}
	return channel, nil
}

// DumpHeader logs a human-readable header for diagnostics.
func (r *Reformatter) DumpHeader(hdr *TriggerHeader) {
	r.logger.Debug("=== SSP trigger header ===", "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Sync word:      0x%08X", hdr.Header), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Length (words): %d", hdr.Length), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Trigger ID:     %d", hdr.TriggerID), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Trigger type:   %d", hdr.TriggerType()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Module/channel: %d/%d", hdr.ModuleID(), hdr.ChannelID()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("First sample:   %d", hdr.GlobalFirstSample()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Peak sum:       %d", hdr.PeakSum()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Prerise sum:    %d", hdr.PreriseSum()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Integrated sum: %d", hdr.IntegratedSum()), "module", "reformatter")
	r.logger.Debug(fmt.Sprintf("Baseline:       %d", hdr.Baseline), "module", "reformatter")
}
