package domain

import (
	"fmt"

	apperrors "github.com/louisbranch/worldline.studio/internal/platform/errors"
)

var (
	// ErrWorldlineIDEmpty indicates a missing worldline id.
	ErrWorldlineIDEmpty = apperrors.New(apperrors.CodeWorldlineIDEmpty, "worldline id is required")
	// ErrWorldlineNotFound indicates an unknown worldline id.
	ErrWorldlineNotFound = apperrors.New(apperrors.CodeWorldlineNotFound, "worldline is not found")
	// ErrSnapshotCacheKeyMissing indicates a snapshot entry without a cache key.
	ErrSnapshotCacheKeyMissing = apperrors.New(apperrors.CodeSnapshotCacheKeyMissing, "snapshot entry requires a cache key")
	// ErrCacheKeyFieldMissing indicates a blank required cache key field.
	ErrCacheKeyFieldMissing = apperrors.New(apperrors.CodeCacheKeyFieldMissing, "cache key field is required")
)

// NotFoundError builds a not-found error carrying the offending id.
func NotFoundError(id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeWorldlineNotFound,
		fmt.Sprintf("worldline %q is not found", id),
		map[string]string{"worldline_id": id},
	)
}
