package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/engine"
)

// DefaultInboxCapacity is the per-channel queue size when unset.
const DefaultInboxCapacity = 256

// call is one decoded inbound message waiting for a worker.
type call struct {
	info     CallInfo
	response *engine.ResponseHandle
	run      func(ctx context.Context) []byte
}

// inbox keeps a channel's calls in arrival order. The platform thread is
// the only producer and the pump goroutine the only consumer.
//
// enqueued and dequeued mirror the queue cursors with sync/atomic. The
// producer only writes a slot the consumer has counted as free, and the
// consumer only reads a slot the producer has counted as full, which gives
// the race detector the happens-before edges lfq's ordering provides.
type inbox struct {
	q        lfq.SPSC[call]
	capacity uint64
	enqueued atomic.Uint64
	dequeued atomic.Uint64
	ready    chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newInbox(capacity int) *inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	n := roundPow2(capacity)
	b := &inbox{
		capacity: uint64(n),
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	b.q.Init(n)
	return b
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// push enqueues c, backing off while the pump drains a full queue.
// It reports false if the inbox closed first.
func (b *inbox) push(c call) bool {
	var bo iox.Backoff
	for {
		select {
		case <-b.done:
			return false
		default:
		}
		if b.enqueued.Load()-b.dequeued.Load() < b.capacity {
			if err := b.q.Enqueue(&c); err == nil {
				b.enqueued.Add(1)
				break
			}
		}
		bo.Wait()
	}
	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

// pump hands calls to dispatch in arrival order until the inbox closes.
func (b *inbox) pump(name string, dispatch func(call) error) {
	for {
		if b.dequeued.Load() < b.enqueued.Load() {
			if c, err := b.q.Dequeue(); err == nil {
				b.dequeued.Add(1)
				if err := dispatch(c); err != nil {
					Logger().Debug("inbox pump stopped", zap.String("channel", name), zap.Error(err))
					return
				}
				continue
			}
		}
		select {
		case <-b.ready:
		case <-b.done:
			return
		}
	}
}

func (b *inbox) close() {
	b.once.Do(func() { close(b.done) })
}
