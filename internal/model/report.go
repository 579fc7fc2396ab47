package model

import "time"

// Report is the complete result of processing one transcript: the surviving
// segments, the generated steps with their grounding and validation outcomes,
// and aggregate diagnostics.
type Report struct {
	Source      string    `json:"source"` // Input file or identifier
	ProcessedAt time.Time `json:"processed_at"`

	Metadata TranscriptMetadata `json:"metadata"`
	Segments []TopicSegment     `json:"segments"`

	Steps       []Step             `json:"steps"`
	StepSources []StepSourceData   `json:"step_sources"`
	Validation  []ValidationResult `json:"validation"`

	Knowledge []KnowledgeSource `json:"knowledge,omitempty"`

	Stats ReportStats `json:"stats"`
}

// ReportStats aggregates counts surfaced for diagnostics.
type ReportStats struct {
	TotalSentences   int     `json:"total_sentences"`
	InitialSegments  int     `json:"initial_segments"`
	FilteredSegments int     `json:"filtered_segments"` // Segments surviving the quality gates
	QASegmentsRemove int     `json:"qa_segments_removed"`
	LowValueRemoved  int     `json:"low_value_removed"`
	GeneratedSteps   int     `json:"generated_steps"`
	ValidSteps       int     `json:"valid_steps"`
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgQuality       float64 `json:"avg_quality"`
}

// ConfidenceLabel maps a confidence score to a human-readable level.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return "Very High"
	case confidence >= 0.55:
		return "High"
	case confidence >= 0.35:
		return "Medium"
	case confidence >= 0.20:
		return "Low"
	default:
		return "Very Low"
	}
}

// ConfidenceIndicator maps a confidence score to a coarse quality bucket
// used by UI surfaces.
func ConfidenceIndicator(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.4:
		return "medium"
	default:
		return "low"
	}
}
