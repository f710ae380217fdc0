package model

import (
	"time"

	"github.com/nao1215/imgforensics/internal/forensics"
)

// Summary aggregates a batch of reports for quick review.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Total is the number of files submitted.
	Total int `json:"total"`

	// === Risk Counts ===

	// HighCount is the number of high risk verdicts.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium risk verdicts.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low risk verdicts.
	LowCount int `json:"low_count"`

	// EditedCount is the number of verdicts flagged as potentially edited.
	EditedCount int `json:"edited_count"`

	// FailedCount is the number of files that produced no verdict.
	FailedCount int `json:"failed_count"`

	// InconclusiveCount is the number of verdicts where every algorithm failed.
	InconclusiveCount int `json:"inconclusive_count"`

	// AlgorithmFailures counts failed results per algorithm.
	AlgorithmFailures map[forensics.AlgorithmID]int `json:"algorithm_failures,omitempty"`
}

// NewSummary counts reports by outcome. Nil entries count as failed.
func NewSummary(reports []*AnalysisReport) *Summary {
	s := &Summary{
		GeneratedAt:       time.Now(),
		Total:             len(reports),
		AlgorithmFailures: make(map[forensics.AlgorithmID]int),
	}

	for _, r := range reports {
		if r == nil || r.Failed() {
			s.FailedCount++
			continue
		}

		switch r.RiskLevel {
		case forensics.RiskHigh:
			s.HighCount++
		case forensics.RiskMedium:
			s.MediumCount++
		case forensics.RiskLow:
			s.LowCount++
		}
		if r.IsPotentiallyEdited {
			s.EditedCount++
		}
		if r.Verdict.AllFailed() {
			s.InconclusiveCount++
		}
		for id, res := range r.Verdict.AlgorithmDetails {
			if !res.Success {
				s.AlgorithmFailures[id]++
			}
		}
	}

	return s
}

// Analyzed returns the number of reports that produced a verdict.
func (s *Summary) Analyzed() int {
	return s.Total - s.FailedCount
}
