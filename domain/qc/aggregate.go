package qc

import (
	"goqc/domain/core"
)

// Aggregate combines an ordered sequence of results into one section
// verdict. Overall status is the most severe status present. A lone
// Monitor downgrades an otherwise clean section from pass to monitor but
// never escalates it to a failure on its own.
func Aggregate(section core.SectionID, protocol core.ProtocolID, results []Result) Verdict {
	overall := StatusPass
	for _, r := range results {
		if r.Status.WorseThan(overall) {
			overall = r.Status
		}
	}
	return Verdict{
		ID:       core.NewVerdictID(),
		Section:  section,
		Protocol: protocol,
		Results:  results,
		Overall:  overall,
		Created:  core.Now(),
	}
}

// WorstStatus returns the most severe status in the sequence, or pass
// for an empty sequence.
func WorstStatus(results []Result) Status {
	worst := StatusPass
	for _, r := range results {
		if r.Status.WorseThan(worst) {
			worst = r.Status
		}
	}
	return worst
}
