package diag

import (
	"fmt"
	"sort"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// RunSummary builds, per channel, the pulse-amplitude distribution versus
// run number across the whole job. The X axis is one run per bin and grows
// on demand; the Y axis is the per-channel amplitude binning.
type RunSummary struct {
	hists    map[int]*hbook.H2D
	firstRun map[int]int
	lastRun  map[int]int
}

func NewRunSummary() *RunSummary {
	return &RunSummary{
		hists:    make(map[int]*hbook.H2D),
		firstRun: make(map[int]int),
		lastRun:  make(map[int]int),
	}
}

// Extend folds a run's per-channel amplitude distribution into the
// channel's summary. The first call for a channel creates a single-run-wide
// histogram; later calls grow the run axis when needed, migrating existing
// cell content bin by bin, then add the new content additively.
func (s *RunSummary) Extend(channel, run int, amplitudes *hbook.H1D) {
	h, ok := s.hists[channel]
	if !ok {
		h = hbook.NewH2D(1, float64(run), float64(run+1), ampBins, ampMin, ampMax)
		s.firstRun[channel] = run
		s.lastRun[channel] = run
	} else {
		first := min(run, s.firstRun[channel])
		last := max(run, s.lastRun[channel])
		if first != s.firstRun[channel] || last != s.lastRun[channel] {
			h = resizeRunRange(h, first, last)
			s.firstRun[channel] = first
			s.lastRun[channel] = last
		}
	}
	s.hists[channel] = h

	for _, bin := range amplitudes.Binning.Bins {
		w := bin.Dist.SumW()
		if w == 0 {
			continue
		}
		mid := 0.5 * (bin.Range.Min + bin.Range.Max)
		h.Fill(float64(run)+0.5, mid, w)
	}
}

// resizeRunRange allocates a summary histogram spanning [firstRun,
// lastRun+1) and migrates every non-empty cell of the old one. One run per
// X bin, so a run number maps directly onto its bin; content is carried
// over unchanged.
func resizeRunRange(old *hbook.H2D, firstRun, lastRun int) *hbook.H2D {
	h := hbook.NewH2D(lastRun-firstRun+1, float64(firstRun), float64(lastRun+1), ampBins, ampMin, ampMax)
	for _, bin := range old.Binning.Bins {
		w := bin.Dist.SumW()
		if w == 0 {
			continue
		}
		xmid := 0.5 * (bin.XRange.Min + bin.XRange.Max)
		ymid := 0.5 * (bin.YRange.Min + bin.YRange.Max)
		h.Fill(xmid, ymid, w)
	}
	return h
}

// Channels lists the channels with a summary, in ascending order.
func (s *RunSummary) Channels() []int {
	channels := maps.Keys(s.hists)
	sort.Ints(channels)
	return channels
}

func (s *RunSummary) Hist(channel int) (*hbook.H2D, bool) {
	h, ok := s.hists[channel]
	return h, ok
}

// RunRange reports the run span covered by a channel's summary, upper bound
// inclusive.
func (s *RunSummary) RunRange(channel int) (first, last int, ok bool) {
	if _, found := s.hists[channel]; !found {
		return 0, 0, false
	}
	return s.firstRun[channel], s.lastRun[channel], true
}

// PersistTo copies every summary into a freshly created histogram with
// identical binning, registered in the store's top-level namespace.
func (s *RunSummary) PersistTo(dir HistogramDir) {
	for _, channel := range s.Channels() {
		old := s.hists[channel]
		first := s.firstRun[channel]
		last := s.lastRun[channel]

		h := hbook.NewH2D(last-first+1, float64(first), float64(last+1), ampBins, ampMin, ampMax)
		for _, bin := range old.Binning.Bins {
			w := bin.Dist.SumW()
			if w == 0 {
				continue
			}
			xmid := 0.5 * (bin.XRange.Min + bin.XRange.Max)
			ymid := 0.5 * (bin.YRange.Min + bin.YRange.Max)
			h.Fill(xmid, ymid, w)
		}

		dir.PutH2D(
			fmt.Sprintf("PulseAmpDistVsRun_channel_%03d", channel),
			fmt.Sprintf("Pulse Amplitude Distribution vs Run Number for OP Channel %03d;run number;leading-edge amplitude [ADC]", channel),
			h,
		)
	}
}
