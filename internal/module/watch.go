package module

import (
	"github.com/fsnotify/fsnotify"

	"github.com/cwbudde/ecmago/internal/context"
)

// Watch evicts a Context's cached module record whenever the file it was
// loaded from changes on disk, so the next load_module call for it
// re-resolves and re-evaluates instead of serving a stale cache entry.
// Grounded on the retrieval pack's own directory-watch shape
// (theRebelliousNerd-codenerd's MangleWatcher): an fsnotify.Watcher driven
// by a dedicated goroutine selecting over Events/Errors plus a stop channel,
// rather than polling.
type Watch struct {
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// Watch starts watching dir, evicting ctx.Modules[specifier] whenever a
// write, remove or rename event fires for the path specifier was last
// resolved to. Only specifiers this Cache has already loaded are tracked;
// files never imported are watched but produce no eviction.
func (c *Cache) Watch(ctx *context.Context, dir string) (*Watch, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	wt := &Watch{watcher: w, stop: make(chan struct{}), done: make(chan struct{})}
	go wt.run(c, ctx)
	return wt, nil
}

func (wt *Watch) run(c *Cache, ctx *context.Context) {
	defer close(wt.done)
	for {
		select {
		case <-wt.stop:
			return
		case ev, ok := <-wt.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c.mu.Lock()
			specifier, tracked := c.pathSpecifier[ev.Name]
			if tracked {
				delete(c.pathSpecifier, ev.Name)
			}
			c.mu.Unlock()
			if tracked {
				delete(ctx.Modules, specifier)
			}
		case _, ok := <-wt.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watch goroutine and releases the underlying fsnotify
// watcher. Call it once: a second call panics when it closes the
// already-closed stop channel.
func (wt *Watch) Close() error {
	close(wt.stop)
	<-wt.done
	return wt.watcher.Close()
}
