package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/utils/metrics"
)

// Delete removes a single memory. Absent ids surface as not-found.
func (u *UseCase) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) error {
	// Existence check first, so a missing record reports not-found
	// rather than a generic deletion failure.
	if _, err := u.Get(ctx, id, ident); err != nil {
		return err
	}

	deleted, err := u.store.Delete(ctx, id, ident)
	if err != nil {
		u.metrics.Record(ctx, "delete", metrics.StatusFailed)
		return goerr.Wrap(model.ErrDeleteFailed, "store delete failed",
			goerr.V("memory_id", id), goerr.V("cause", model.TruncateMessage(err.Error())))
	}
	if !deleted {
		u.metrics.Record(ctx, "delete", metrics.StatusFailed)
		return goerr.Wrap(model.ErrDeleteFailed, "store reported no deletion",
			goerr.V("memory_id", id))
	}

	u.logger.Info("memory deleted", "memory_id", id)
	u.metrics.Record(ctx, "delete", metrics.StatusSuccess)
	return nil
}

// DeleteAll removes every record matching the identity filters and
// returns the number of deleted records. Filtering is handled entirely
// by the store.
func (u *UseCase) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	count, err := u.store.DeleteAll(ctx, ident)
	if err != nil {
		u.metrics.Record(ctx, "delete_all", metrics.StatusFailed)
		return 0, goerr.Wrap(model.ErrDeleteFailed, "store delete-all failed",
			goerr.V("cause", model.TruncateMessage(err.Error())))
	}

	u.logger.Info("memories deleted", "count", count)
	u.metrics.Record(ctx, "delete_all", metrics.StatusSuccess)
	return count, nil
}
