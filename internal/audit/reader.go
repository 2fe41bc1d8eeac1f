package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/volunqueer/volunqueer/internal/docstore"
)

type Reader struct {
	store docstore.Store
}

func NewReader(store docstore.Store) *Reader {
	return &Reader{store: store}
}

// ListByOrg returns an organization's entries, newest first.
func (r *Reader) ListByOrg(ctx context.Context, orgID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	docs, err := r.store.QueryGroup(ctx, docstore.AuditLog, "orgId", orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	out := docstore.DecodeAll[Entry](docs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
