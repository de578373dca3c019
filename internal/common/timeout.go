package common

import (
	"context"
	"errors"
	"fmt"
)

// WrapTimeout marks err as ErrTimeout when it was caused by a context
// deadline or cancellation. Other errors are returned unchanged.
func WrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
