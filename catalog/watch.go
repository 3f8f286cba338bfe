package catalog

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/s3db-io/s3db/log"
)

// WatchDir reloads the catalog whenever the backing directory changes out
// of band, for the diskstore backend (memstore/remote S3 have no
// filesystem to watch). Returns a stop function; reload errors are logged,
// not returned, since a watch loop has no synchronous caller to report to.
func (s *Store) WatchDir(ctx context.Context, dir string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				watcher.Close()
				return
			case <-done:
				watcher.Close()
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := s.Init(ctx); err != nil {
						log.Global().WithField("error", err).Warn("catalog reload after external change failed")
					}
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Global().WithField("error", werr).Warn("catalog watcher error")
			}
		}
	}()

	return func() { close(done) }, nil
}
