package feed

import (
	"context"
	"sync"

	"github.com/Dosada05/tournament-scoreboard/models"
)

// Sink accepts match changes. Broker and NATSRelay implement it, and so does any
// repositories.ChangePublisher.
type Sink interface {
	Publish(change models.MatchChange)
}

// Tee publishes every change to each sink in order; nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	var kept tee
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return kept
}

type tee []Sink

func (t tee) Publish(change models.MatchChange) {
	for _, s := range t {
		s.Publish(change)
	}
}

// Broker fans every published change out to all subscribers in publish order.
// Publish never blocks: each subscription buffers without bound, so a slow consumer
// cannot stall the store that publishes.
type Broker struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

func (b *Broker) Publish(change models.MatchChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		sub.push(change)
	}
}

// Subscribe returns a subscription receiving every change published after the call.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		out:  make(chan models.MatchChange),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	sub.C = sub.out
	sub.unsubscribe = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.pump()
	return sub
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type Subscription struct {
	// C закрывается после Close.
	C <-chan models.MatchChange

	out         chan models.MatchChange
	mu          sync.Mutex
	queue       []models.MatchChange
	wake        chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func (s *Subscription) push(change models.MatchChange) {
	s.mu.Lock()
	s.queue = append(s.queue, change)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = models.MatchChange{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}

// Close detaches the subscription and drops undelivered changes.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
}

// Forward pumps a broker subscription into sink until ctx is done.
func Forward(ctx context.Context, sub *Subscription, sink Sink) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			sink.Publish(change)
		}
	}
}
