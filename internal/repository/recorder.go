package repo

import (
	"context"
	"encoding/json"

	"github.com/hashicorp/go-multierror"

	"boardduel/internal/usecase/relay"
)

// MultiRecorder fans every record out to all recorders and reports the
// combined failures.
type MultiRecorder []relay.Recorder

func (m MultiRecorder) AppendMove(ctx context.Context, code string, move json.RawMessage) error {
	var result *multierror.Error
	for _, r := range m {
		if err := r.AppendMove(ctx, code, move); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (m MultiRecorder) Finish(ctx context.Context, rec relay.MatchRecord) error {
	var result *multierror.Error
	for _, r := range m {
		if err := r.Finish(ctx, rec); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
