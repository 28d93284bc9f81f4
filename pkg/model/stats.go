package model

import (
	"sort"
	"time"
)

// Age distribution bucket labels, by whole-day age of a record.
const (
	AgeBucketUnder1Day = "< 1 day"
	AgeBucket1To7Days  = "1-7 days"
	AgeBucket7To30Days = "7-30 days"
	AgeBucketOver30    = "> 30 days"
)

// contentPreviewLen bounds the content carried in top-accessed entries.
const contentPreviewLen = 100

// defaultImportance is assumed for records that carry no importance.
const defaultImportance = 0.5

// TopAccessed is one entry of the most-accessed record ranking.
type TopAccessed struct {
	ID             MemoryID `json:"id"`
	ContentPreview string   `json:"content"`
	AccessCount    int      `json:"access_count"`
}

// Statistics is an aggregate snapshot over a set of memory records.
type Statistics struct {
	TotalMemories   int            `json:"total_memories"`
	ByType          map[string]int `json:"by_type"`
	AvgImportance   float64        `json:"avg_importance"`
	TopAccessed     []TopAccessed  `json:"top_accessed"`
	GrowthTrend     map[string]int `json:"growth_trend"`
	AgeDistribution map[string]int `json:"age_distribution"`
}

// QualityReport summarizes defect analysis over a set of records.
type QualityReport struct {
	TotalMemories   int            `json:"total_memories"`
	LowQualityCount int            `json:"low_quality_count"`
	LowQualityRatio float64        `json:"low_quality_ratio"`
	QualityCriteria map[string]int `json:"quality_criteria"`
}

func newAgeDistribution() map[string]int {
	return map[string]int{
		AgeBucketUnder1Day: 0,
		AgeBucket1To7Days:  0,
		AgeBucket7To30Days: 0,
		AgeBucketOver30:    0,
	}
}

// ComputeStatistics builds a snapshot from canonical records. Records
// without a creation time are counted in totals, type distribution and
// average importance, but excluded from the growth trend and the age
// distribution. Ties in the access ranking keep input order.
func ComputeStatistics(records []*MemoryRecord, now time.Time) *Statistics {
	stats := &Statistics{
		TotalMemories:   len(records),
		ByType:          map[string]int{},
		TopAccessed:     []TopAccessed{},
		GrowthTrend:     map[string]int{},
		AgeDistribution: newAgeDistribution(),
	}
	if len(records) == 0 {
		return stats
	}

	var totalImportance float64
	var accessed []TopAccessed

	for _, rec := range records {
		memType := rec.Type
		if memType == "" {
			memType = "unknown"
		}
		stats.ByType[memType]++

		if rec.Importance != nil {
			totalImportance += *rec.Importance
		} else {
			totalImportance += defaultImportance
		}

		if rec.AccessCount > 0 {
			// Previews truncate by characters, not bytes, so multibyte
			// content is never cut mid-rune.
			preview := rec.Content
			if runes := []rune(preview); len(runes) > contentPreviewLen {
				preview = string(runes[:contentPreviewLen])
			}
			accessed = append(accessed, TopAccessed{
				ID:             rec.ID,
				ContentPreview: preview,
				AccessCount:    rec.AccessCount,
			})
		}

		if rec.CreatedAt != nil {
			stats.GrowthTrend[rec.CreatedAt.Format("2006-01-02")]++

			age := int(now.Sub(*rec.CreatedAt).Hours() / 24)
			switch {
			case age < 1:
				stats.AgeDistribution[AgeBucketUnder1Day]++
			case age < 7:
				stats.AgeDistribution[AgeBucket1To7Days]++
			case age < 30:
				stats.AgeDistribution[AgeBucket7To30Days]++
			default:
				stats.AgeDistribution[AgeBucketOver30]++
			}
		}
	}

	stats.AvgImportance = totalImportance / float64(len(records))

	sort.SliceStable(accessed, func(i, j int) bool {
		return accessed[i].AccessCount > accessed[j].AccessCount
	})
	if len(accessed) > 10 {
		accessed = accessed[:10]
	}
	stats.TopAccessed = append(stats.TopAccessed, accessed...)

	return stats
}
