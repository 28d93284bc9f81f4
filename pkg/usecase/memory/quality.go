package memory

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/y-kuroda/mnemo/pkg/model"
)

// Quality defect criteria. The three checks are independent and
// non-exclusive; each increments its own counter every time it fires.
const (
	CriterionMissingMetadata = "missing_metadata"
	CriterionEmptyContent    = "empty_content"
	CriterionLowImportance   = "low_importance"
)

// minContentLen is the trimmed content length below which a record
// counts as empty.
const minContentLen = 5

// lowImportanceThreshold flags records whose importance is set below it.
const lowImportanceThreshold = 0.3

// AnalyzeQuality scores the identity-filtered record set against the
// defect criteria over a bounded scan, applying the cutoff filter the
// same way as Statistics. A record with multiple defects contributes
// exactly once to the low-quality count.
func (u *UseCase) AnalyzeQuality(ctx context.Context, ident model.Identity, cutoff *time.Time) (*model.QualityReport, error) {
	records, err := u.scanRecords(ctx, ident, cutoff)
	if err != nil {
		return nil, err
	}

	report := &model.QualityReport{
		TotalMemories:   len(records),
		QualityCriteria: map[string]int{},
	}
	if len(records) == 0 {
		return report, nil
	}

	report.QualityCriteria = map[string]int{
		CriterionMissingMetadata: 0,
		CriterionEmptyContent:    0,
		CriterionLowImportance:   0,
	}

	lowQuality := map[model.MemoryID]struct{}{}
	for _, rec := range records {
		if len(rec.Metadata) == 0 {
			report.QualityCriteria[CriterionMissingMetadata]++
			lowQuality[rec.ID] = struct{}{}
		}

		if len(strings.TrimSpace(rec.Content)) < minContentLen {
			report.QualityCriteria[CriterionEmptyContent]++
			lowQuality[rec.ID] = struct{}{}
		}

		if rec.Importance != nil && *rec.Importance < lowImportanceThreshold {
			report.QualityCriteria[CriterionLowImportance]++
			lowQuality[rec.ID] = struct{}{}
		}
	}

	report.LowQualityCount = len(lowQuality)
	ratio := float64(report.LowQualityCount) / float64(report.TotalMemories)
	report.LowQualityRatio = math.Round(ratio*10000) / 10000

	u.logger.Info("quality analysis complete",
		"low_quality", report.LowQualityCount, "total", report.TotalMemories)

	return report, nil
}
