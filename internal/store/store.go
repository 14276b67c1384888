// internal/store/store.go
package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"pathfinder-workers/internal/common/errors"
)

// queryError classifies a failed read. Deadline expiry is reported as a
// timeout so the caller's retry policy treats it separately.
func queryError(queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}

func searchError(queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewSearchTimeoutError(queryType)
	}
	return errors.NewSearchQueryFailedError(queryType, err)
}

// malformedError reports a stored document that cannot be decoded. It is not
// retryable.
func malformedError(kind, id string, err error) error {
	return errors.NewInvalidInputError(fmt.Sprintf("malformed %s document %s: %v", kind, id, err))
}
