package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/cuemby/stowsched/pkg/log"
	"github.com/rs/zerolog"
)

// queueEntry is one named deferred closure.
type queueEntry struct {
	name  string
	at    time.Time
	fn    func()
	index int
}

type entryHeap []*queueEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) {
	e := x.(*queueEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimedQueue drains named deferred closures in monotonic firing-time
// order through a single background goroutine, re-arming by name
// instead of maintaining one ticker per entry (spec.md §4.1).
type TimedQueue struct {
	mu      sync.Mutex
	entries entryHeap
	byName  map[string]*queueEntry
	wake    chan struct{}
	stopCh  chan struct{}
	logger  zerolog.Logger
}

// NewTimedQueue returns an empty, unstarted TimedQueue.
func NewTimedQueue() *TimedQueue {
	return &TimedQueue{
		byName: make(map[string]*queueEntry),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		logger: log.WithComponent("timedqueue"),
	}
}

// AddTaskAt schedules fn to run at (or soon after) at, under name. A
// pending entry with the same name is replaced rather than duplicated.
func (q *TimedQueue) AddTaskAt(name string, at time.Time, fn func()) {
	q.mu.Lock()
	if existing, ok := q.byName[name]; ok {
		heap.Remove(&q.entries, existing.index)
	}
	e := &queueEntry{name: name, at: at, fn: fn}
	heap.Push(&q.entries, e)
	q.byName[name] = e
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// AddTaskIn schedules fn to run after delay, under name.
func (q *TimedQueue) AddTaskIn(name string, delay time.Duration, fn func()) {
	q.AddTaskAt(name, time.Now().Add(delay), fn)
}

// Cancel removes name's pending entry, if any.
func (q *TimedQueue) Cancel(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if existing, ok := q.byName[name]; ok {
		heap.Remove(&q.entries, existing.index)
		delete(q.byName, name)
	}
}

// Start launches the background executor goroutine.
func (q *TimedQueue) Start() {
	go q.run()
}

// Stop halts the background executor. Pending entries are discarded.
func (q *TimedQueue) Stop() {
	close(q.stopCh)
}

func (q *TimedQueue) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		q.mu.Lock()
		var wait time.Duration
		if len(q.entries) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(q.entries[0].at)
			if wait < 0 {
				wait = 0
			}
		}
		q.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-q.stopCh:
			return
		case <-q.wake:
			continue
		case <-timer.C:
			q.drainDue()
		}
	}
}

// drainDue pops and runs every entry whose firing time has passed,
// strictly sequentially, before returning control to run's scheduling
// loop.
func (q *TimedQueue) drainDue() {
	now := time.Now()
	for {
		q.mu.Lock()
		if len(q.entries) == 0 || q.entries[0].at.After(now) {
			q.mu.Unlock()
			return
		}
		e := heap.Pop(&q.entries).(*queueEntry)
		delete(q.byName, e.name)
		q.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					q.logger.Error().Interface("panic", r).Str("task", e.name).Msg("task panicked, not re-scheduled by timedqueue itself")
				}
			}()
			e.fn()
		}()
	}
}
