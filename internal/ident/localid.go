package ident

import (
	"context"
	"fmt"
)

// NextLocalID returns max(local_id)+1 among the scope's siblings, or 1 for an empty scope.
// It reads immediately before the caller's insert; uniqueness under concurrent writers is
// enforced by the store's (scope, local_id) constraint.
func NextLocalID(ctx context.Context, src LocalIDSource, scope Scope) (int64, error) {
	maxID, err := src.MaxLocalID(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("max local id %s: %w", scope, err)
	}
	if maxID < 0 {
		maxID = 0
	}
	return maxID + 1, nil
}
