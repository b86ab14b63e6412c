package logengine

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nxadm/tail"

	"github.com/fleetdeck/fleetdeck/internal/metrics"
)

// Subscription is a live handle to a Follower's line stream (C7).
type Subscription struct {
	Lines    <-chan string
	Overflow func() int64
	Close    func()
}

type subscriber struct {
	ch        chan string
	substring string
	overflow  atomic.Int64
}

// follower tails one active log file and fans its lines out to every
// subscriber currently attached to it.
type follower struct {
	path string
	tail *tail.Tail

	mu      sync.Mutex
	subs    map[int64]*subscriber
	nextID  int64
	closeFn sync.Once
}

var (
	followersMu sync.Mutex
	followers   = map[string]*follower{}
)

// Follow implements C7: subscribe to new lines appended to path from this
// point forward, optionally filtered by substring. queueSize bounds the
// per-subscriber backlog; a full queue drops the line and increments the
// subscription's overflow counter rather than blocking the follower.
func Follow(path, substring string, queueSize int) (*Subscription, error) {
	if queueSize <= 0 {
		queueSize = 256
	}

	followersMu.Lock()
	f, ok := followers[path]
	if !ok {
		var err error
		f, err = newFollower(path)
		if err != nil {
			followersMu.Unlock()
			return nil, err
		}
		followers[path] = f
	}
	followersMu.Unlock()

	sub := &subscriber{
		ch:        make(chan string, queueSize),
		substring: substring,
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()
	metrics.FollowerSubscribers.WithLabelValues(path).Inc()

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			f.removeSubscriber(id)
		})
	}

	return &Subscription{
		Lines:    sub.ch,
		Overflow: func() int64 { return sub.overflow.Load() },
		Close:    closeFn,
	}, nil
}

func newFollower(path string) (*follower, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", path, err)
	}
	t, err := tail.TailFile(path, tail.Config{
		// Start from the size observed now instead of seeking to the end
		// once the tail goroutine runs, so lines appended right after Follow
		// returns are not skipped.
		Location:  &tail.SeekInfo{Offset: info.Size(), Whence: io.SeekStart},
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", path, err)
	}

	f := &follower{
		path: path,
		tail: t,
		subs: make(map[int64]*subscriber),
	}
	go f.run()
	metrics.ActiveFollowers.Inc()
	return f, nil
}

func (f *follower) run() {
	for line := range f.tail.Lines {
		if line.Err != nil {
			continue
		}
		f.dispatch(line.Text)
	}
}

func (f *follower) dispatch(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.substring != "" && !strings.Contains(text, sub.substring) {
			continue
		}
		select {
		case sub.ch <- text:
		default:
			sub.overflow.Add(1)
			metrics.SubscriberOverflowTotal.WithLabelValues(f.path).Inc()
		}
	}
}

func (f *follower) removeSubscriber(id int64) {
	f.mu.Lock()
	delete(f.subs, id)
	empty := len(f.subs) == 0
	f.mu.Unlock()
	metrics.FollowerSubscribers.WithLabelValues(f.path).Dec()

	if !empty {
		return
	}

	f.closeFn.Do(func() {
		followersMu.Lock()
		if followers[f.path] == f {
			delete(followers, f.path)
		}
		followersMu.Unlock()
		_ = f.tail.Stop()
		metrics.ActiveFollowers.Dec()
	})
}
