package cli

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/justsurfingit/hireboard/internal/pagination"
)

// settlePoll bounds how long settle sleeps between checks when no event
// arrives, e.g. a debounced search that committed without fetching.
const settlePoll = 25 * time.Millisecond

var errControllerClosed = errors.New("controller closed")

// settle waits until the controller has no fetch in flight and no search
// waiting on the debounce, logging events as they arrive, and returns the
// resulting snapshot.
func settle[T any](ctx context.Context, ctrl *pagination.Controller[T], events <-chan pagination.Event[T], logger *log.Logger) (pagination.Snapshot[T], error) {
	for {
		if !ctrl.Loading() && !ctrl.SearchPending() {
			drain(events, logger)
			return ctrl.Snapshot(), nil
		}
		select {
		case <-ctx.Done():
			return pagination.Snapshot[T]{}, ctx.Err()
		case e, ok := <-events:
			if !ok {
				return pagination.Snapshot[T]{}, errControllerClosed
			}
			logEvent(logger, e)
		case <-time.After(settlePoll):
		}
	}
}

func drain[T any](events <-chan pagination.Event[T], logger *log.Logger) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			logEvent(logger, e)
		default:
			return
		}
	}
}

func logEvent[T any](logger *log.Logger, e pagination.Event[T]) {
	p := e.Snapshot.PageParams
	logger.Debug("controller event", "type", e.Type, "seq", e.Seq, "page", p.Page, "pages", p.TotalPages, "rows", len(e.Snapshot.Data))
}
