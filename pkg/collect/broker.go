package collect

import "sync/atomic"

// Broker fans messages out to subscribers without ever blocking on a slow
// one. Subscribe and Unsubscribe block until Start is running.
type Broker[T any] struct {
	stopC      chan struct{}
	broadcastC chan T
	subC       chan chan T
	unsubC     chan chan T
	isStopped  atomic.Bool
}

func NewBroker[T any]() *Broker[T] {
	b := &Broker[T]{
		stopC:      make(chan struct{}),
		broadcastC: make(chan T, 1),
		subC:       make(chan chan T),
		unsubC:     make(chan chan T),
	}
	return b
}

func (b *Broker[T]) Start() {
	subs := map[chan T]bool{}
	for {
		select {
		case <-b.stopC:
			for c := range subs {
				close(c)
			}
			return
		case newC := <-b.subC:
			subs[newC] = true
		case oldC := <-b.unsubC:
			if subs[oldC] {
				delete(subs, oldC)
				close(oldC)
			}
		case msg := <-b.broadcastC:
			for subbedC := range subs {
				// non-blocking broadcast
				select {
				case subbedC <- msg:
				default:
				}
			}
		}
	}
}

func (b *Broker[T]) Stop() {
	if b.isStopped.CompareAndSwap(false, true) {
		close(b.stopC)
	}
}

// Subscribe returns nil once the broker is stopped.
func (b *Broker[T]) Subscribe() chan T {
	newC := make(chan T, 5)
	select {
	case b.subC <- newC:
		return newC
	case <-b.stopC:
		return nil
	}
}

func (b *Broker[T]) Unsubscribe(oldC chan T) {
	select {
	case b.unsubC <- oldC:
	case <-b.stopC:
	}
}

func (b *Broker[T]) Broadcast(msg T) {
	select {
	case b.broadcastC <- msg:
	case <-b.stopC:
	}
}
