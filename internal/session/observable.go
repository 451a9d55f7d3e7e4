package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observable is a Store fronted by an in-memory cell holding the latest
// persisted Session. Reads are served from the cell; writes go through the
// Store and are then broadcast to every subscriber.
type Observable struct {
	store Store
	dir   string // set when backed by a disk store; enables Watch
	log   *zap.Logger

	writeMu sync.Mutex // serializes Save/Clear

	mu      sync.RWMutex
	current Session
	subs    map[uuid.UUID]chan Session
}

// Open returns an Observable backed by the session file in dir.
func Open(dir string, log *zap.Logger) (*Observable, error) {
	store, err := NewDiskStore(dir)
	if err != nil {
		return nil, err
	}
	o, err := NewObservable(store, log)
	if err != nil {
		return nil, err
	}
	o.dir = dir
	return o, nil
}

// NewObservable loads the current session from store and caches it.
func NewObservable(store Store, log *zap.Logger) (*Observable, error) {
	s, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Observable{
		store:   store,
		log:     log,
		current: s,
		subs:    make(map[uuid.UUID]chan Session),
	}, nil
}

// Current returns the latest cached session without touching storage.
func (o *Observable) Current() Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Subscribe returns a channel that first yields the current session and then
// every subsequent change. Slow readers only see the newest value. The
// channel is closed when ctx is done.
func (o *Observable) Subscribe(ctx context.Context) <-chan Session {
	ch := make(chan Session, 1)
	id := uuid.New()

	o.mu.Lock()
	ch <- o.current
	o.subs[id] = ch
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, id)
		close(ch)
		o.mu.Unlock()
	}()
	return ch
}

// Save persists s and notifies subscribers. Storage errors are returned
// unchanged and leave the cached session untouched.
func (o *Observable) Save(s Session) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	if err := o.store.Save(s); err != nil {
		return err
	}
	o.publish(s)
	return nil
}

// Clear resets the session to the logged-out default.
func (o *Observable) Clear() error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	if err := o.store.Clear(); err != nil {
		return err
	}
	o.publish(Session{})
	return nil
}

// Watch follows the session file for writes made by other processes and
// republishes them. It blocks until ctx is done.
func (o *Observable) Watch(ctx context.Context) error {
	if o.dir == "" {
		return errors.New("session store is not file-backed")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// The file is replaced by rename, so watch the directory.
	if err := watcher.Add(o.dir); err != nil {
		return fmt.Errorf("watching %s: %w", o.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			o.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log.Warn("session watcher error", zap.Error(err))
		}
	}
}

// reload re-reads storage and publishes only when the value changed, so our
// own writes are not broadcast twice.
func (o *Observable) reload() {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	s, err := o.store.Load()
	if err != nil {
		o.log.Warn("reloading session", zap.Error(err))
		return
	}
	if s == o.Current() {
		return
	}
	o.log.Debug("session changed on disk", zap.Bool("is_login", s.IsLogin))
	o.publish(s)
}

func (o *Observable) publish(s Session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.current = s
	for _, ch := range o.subs {
		offer(ch, s)
	}
}

// offer replaces whatever is buffered in ch with s.
func offer(ch chan Session, s Session) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
