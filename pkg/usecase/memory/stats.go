package memory

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

// Statistics returns an aggregate snapshot over the identity-filtered
// record set. Without a cutoff the store's native aggregate is
// authoritative. With a cutoff the snapshot is recomputed locally from
// a bounded scan of records created at or after the cutoff.
func (u *UseCase) Statistics(ctx context.Context, ident model.Identity, cutoff *time.Time) (*model.Statistics, error) {
	if cutoff == nil {
		stats, err := u.store.GetStatistics(ctx, ident)
		if err != nil {
			return nil, goerr.Wrap(model.ErrInternal, "store statistics failed",
				goerr.V("cause", model.TruncateMessage(err.Error())))
		}
		return stats, nil
	}

	records, err := u.scanRecords(ctx, ident, cutoff)
	if err != nil {
		return nil, err
	}

	return model.ComputeStatistics(records, u.now()), nil
}

// scanRecords reads up to scanLimit identity-filtered records and
// normalizes them. Entries that are not mappings are dropped; mappings
// without a usable id still count toward the aggregates. With a
// cutoff, records created before it are excluded; a record whose
// creation time is missing or unparseable counts as the earliest
// possible time, so a non-trivial cutoff excludes it.
func (u *UseCase) scanRecords(ctx context.Context, ident model.Identity, cutoff *time.Time) ([]*model.MemoryRecord, error) {
	result, err := u.store.GetAll(ctx, &repository.Query{
		Identity: ident,
		Limit:    scanLimit,
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrInternal, "store scan failed",
			goerr.V("cause", model.TruncateMessage(err.Error())))
	}

	var records []*model.MemoryRecord
	for i, entry := range result.Results {
		raw, ok := asRaw(entry)
		if !ok {
			u.logger.Warn("skipping malformed entry in scan", "index", i)
			continue
		}
		rec := normalizeFields(raw)

		if cutoff != nil {
			var created time.Time // zero time sorts before any real cutoff
			if rec.CreatedAt != nil {
				created = *rec.CreatedAt
			}
			if created.Before(*cutoff) {
				continue
			}
		}

		records = append(records, rec)
	}

	return records, nil
}
