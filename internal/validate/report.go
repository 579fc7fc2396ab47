package validate

import "github.com/ppiankov/stepsmith/internal/model"

// Report aggregates validation outcomes across a document's steps.
type Report struct {
	TotalSteps     int     `json:"total_steps"`
	ValidSteps     int     `json:"valid_steps"`
	InvalidSteps   int     `json:"invalid_steps"`
	ValidationRate float64 `json:"validation_rate"`

	AvgQualityScore float64 `json:"avg_quality_score"`
	MinQualityScore float64 `json:"min_quality_score"`
	MaxQualityScore float64 `json:"max_quality_score"`
	AvgActionCount  float64 `json:"avg_action_count"`
	AvgConfidence   float64 `json:"avg_confidence"`

	HighQualitySteps   int `json:"high_quality_steps"`   // >= 0.8
	MediumQualitySteps int `json:"medium_quality_steps"` // 0.5 - 0.8
	LowQualitySteps    int `json:"low_quality_steps"`    // < 0.5

	IssuesByType map[string]int `json:"issues_by_type"`
	ErrorCount   int            `json:"errors"`
	WarningCount int            `json:"warnings"`
	InfoCount    int            `json:"info"`
}

// BuildReport summarizes a batch of validation results.
func BuildReport(results []model.ValidationResult) Report {
	report := Report{
		TotalSteps:   len(results),
		IssuesByType: make(map[string]int),
	}
	if len(results) == 0 {
		return report
	}

	report.MinQualityScore = results[0].QualityScore
	report.MaxQualityScore = results[0].QualityScore

	var qualitySum, actionSum, confidenceSum float64
	for _, r := range results {
		if r.IsValid {
			report.ValidSteps++
		}

		qualitySum += r.QualityScore
		actionSum += float64(r.ActionCount)
		confidenceSum += r.ConfidenceScore

		if r.QualityScore < report.MinQualityScore {
			report.MinQualityScore = r.QualityScore
		}
		if r.QualityScore > report.MaxQualityScore {
			report.MaxQualityScore = r.QualityScore
		}

		switch {
		case r.QualityScore >= 0.8:
			report.HighQualitySteps++
		case r.QualityScore >= 0.5:
			report.MediumQualitySteps++
		default:
			report.LowQualitySteps++
		}

		for _, issue := range r.Errors {
			report.IssuesByType[issue.IssueType]++
		}
		for _, issue := range r.Warnings {
			report.IssuesByType[issue.IssueType]++
		}
		for _, issue := range r.Info {
			report.IssuesByType[issue.IssueType]++
		}
		report.ErrorCount += len(r.Errors)
		report.WarningCount += len(r.Warnings)
		report.InfoCount += len(r.Info)
	}

	n := float64(len(results))
	report.InvalidSteps = report.TotalSteps - report.ValidSteps
	report.ValidationRate = float64(report.ValidSteps) / n
	report.AvgQualityScore = qualitySum / n
	report.AvgActionCount = actionSum / n
	report.AvgConfidence = confidenceSum / n

	return report
}
