package otel

// Goroutine safety:
// The drain goroutine is the sole reader of l.ch and the sole writer to
// l.w. The ring buffer (fixed at construction) has its own mu for
// concurrent Push/Last/Stats. Emit never blocks: a full channel drops the
// event and bumps the counter.

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// writerChanSize is the capacity of the async write channel.
// At ~200 bytes/event, 4096 events buffers ~800KB.
const writerChanSize = 4096

// Logger serializes events as JSONL via an async background writer.
// Goroutine-safe. All emitted events flow through a buffered channel to a
// drain goroutine that writes to w and pushes to the ring buffer.
type Logger struct {
	sessionID string
	ch        chan Event
	w         io.Writer
	ring      *RingBuffer   // optional, fixed at construction
	dropped   atomic.Uint64 // events dropped: full channel, encode failure, write error
	closed    atomic.Bool   // prevents send-on-closed-channel panic after Close
	done      chan struct{} // closed when the drain goroutine exits
	closeOnce sync.Once
}

// NewLogger creates a Logger writing JSONL to w asynchronously, mirroring
// each event into ring (nil to disable). Call Close to flush and stop.
func NewLogger(w io.Writer, ring *RingBuffer) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		sessionID: fmt.Sprintf("%x", sid[:]),
		ch:        make(chan Event, writerChanSize),
		w:         w,
		ring:      ring,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger creates a Logger that discards output. Callers should
// still Close it to stop the drain goroutine.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard, nil)
}

func (l *Logger) drain() {
	defer close(l.done)
	for ev := range l.ch {
		data, err := json.Marshal(ev)
		if err != nil {
			l.dropped.Add(1)
			continue
		}
		data = append(data, '\n')
		if _, err := l.w.Write(data); err != nil {
			l.dropped.Add(1)
		}
		if l.ring != nil {
			l.ring.Push(ev)
		}
	}
}

// Emit queues an event for the JSONL log (and ring buffer if attached).
// Sets Time (if zero) and SessionID. Goroutine-safe and non-blocking.
//
// Safe to call concurrently with Close: if Close races between the
// closed-flag check and the channel send, the resulting panic is recovered
// and the event counts as dropped.
func (l *Logger) Emit(e Event) {
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	select {
	case l.ch <- e:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. Nil err is safe.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: errStr})
}

// Dropped returns the number of events dropped since creation.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes pending events, stops the drain goroutine, and reports any
// dropped events to stderr. Emit calls racing with Close are dropped, not
// panicked.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "smartbrief: %d events dropped during session %s\n", d, l.sessionID)
		}
	})
}
