package adapters

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Closer is anything released at shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// CloseAll closes every adapter, in reverse order, and reports all failures.
func CloseAll(ctx context.Context, closers ...Closer) error {
	var result *multierror.Error
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}
		if err := closers[i].Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
