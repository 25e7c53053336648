package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext derives a context that is canceled when any of the
// given files is modified (written, created, removed, or renamed).
//
// The returned cancel function releases the watcher. On error, both the
// context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, filepath ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	for _, f := range filepath {
		if err := watcher.Add(f); err != nil {
			watcher.Close()
			cancel(err)
			return nil, nil, err
		}
	}

	go func() {
		defer watcher.Close()

		select {
		case <-cctx.Done():
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			cancel(fmt.Errorf("%s is updated (%s)", ev.Name, ev.Op))
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
