package detect

import (
	"sort"

	"github.com/smartreview/detection/internal/domain"
)

// Consolidate deduplicates issues and orders them for reporting.
//
// Duplicates share a (file, line, type) key; the copy with the higher
// confidence wins regardless of which category reported it first. The result
// is sorted by severity descending, then confidence descending, then category
// ascending. The sort is stable, so issues that tie on all three keys keep
// their arrival order.
func Consolidate(issues []domain.Issue) []domain.Issue {
	unique := make(map[domain.DedupeKey]int, len(issues))
	merged := make([]domain.Issue, 0, len(issues))

	for _, issue := range issues {
		key := issue.Key()
		if idx, seen := unique[key]; seen {
			if issue.Confidence > merged[idx].Confidence {
				merged[idx] = issue
			}
			continue
		}
		unique[key] = len(merged)
		merged = append(merged, issue)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if c := domain.CompareSeverity(a.Severity, b.Severity); c != 0 {
			return c > 0
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Category < b.Category
	})

	return merged
}

// applyLimits enforces the optional severity floor and per-file cap on a
// consolidated issue list, preserving order. The cap keeps the first (highest
// priority) issues for each file.
func applyLimits(issues []domain.Issue, severityThreshold string, maxPerFile int) []domain.Issue {
	if severityThreshold == "" && maxPerFile <= 0 {
		return issues
	}

	minRank := 0
	if severityThreshold != "" {
		minRank = domain.SeverityRank(severityThreshold)
	}

	perFile := make(map[string]int)
	kept := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if minRank > 0 && domain.SeverityRank(issue.Severity) < minRank {
			continue
		}
		if maxPerFile > 0 && perFile[issue.File] >= maxPerFile {
			continue
		}
		perFile[issue.File]++
		kept = append(kept, issue)
	}
	return kept
}
