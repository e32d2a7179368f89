package parser

import "time"

// summaryPhase tracks whether only summary records have been seen so far.
type summaryPhase int

const (
	phaseLeading summaryPhase = iota
	phaseBody
)

// summaryTracker keeps the last of the summary records that open a log.
// Once any other record type appears, later summaries are ignored.
type summaryTracker struct {
	phase     summaryPhase
	found     bool
	text      string
	timestamp time.Time
}

func (s *summaryTracker) observe(rec Record) {
	if rec.Type != RecordSummary {
		s.phase = phaseBody
		return
	}
	if s.phase != phaseLeading {
		return
	}
	s.found = true
	s.text = rec.Summary
	s.timestamp = rec.Timestamp
}

// sidechainDepth counts open sidechain markers. It never goes below zero, so
// an unbalanced end marker cannot mis-tag later messages.
type sidechainDepth int

func (d *sidechainDepth) enter() { *d++ }

func (d *sidechainDepth) leave() {
	if *d > 0 {
		*d--
	}
}

func (d sidechainDepth) active() bool { return d > 0 }
