// task/eventstream.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/soaringlab/glidetask/log"
)

// EventType enumerates the events the engine publishes.
type EventType int

const (
	EnterTransitionEvent EventType = iota
	ExitTransitionEvent
	ActiveAdvancedEvent
	RequestArmEvent
	TaskStartEvent
	TaskFinishEvent
	NumEventTypes
)

func (t EventType) String() string {
	return [...]string{"EnterTransition", "ExitTransition", "ActiveAdvanced",
		"RequestArm", "TaskStart", "TaskFinish", "NumEventTypes"}[t]
}

// Event is one engine event as seen by stream subscribers. Point data is
// copied out so consumers on other goroutines never alias engine state.
type Event struct {
	Type     EventType
	Waypoint string
	Index    int
	Time     float64 // UTC seconds of day of the causing fix
}

func (e Event) String() string {
	return fmt.Sprintf("%s wp=%q index=%d t=%.0f", e.Type, e.Waypoint, e.Index, e.Time)
}

// EventStream provides a basic pub/sub event interface that allows the
// engine to post events and other parts of the system (the display
// thread, loggers, audio alerts) to subscribe and receive them. It is
// the one concurrency-aware piece of this package; the engine itself is
// single-writer.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]interface{}
	lastPost      time.Time
	warnedLong    bool
	done          chan struct{}
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset is offset in the EventStream stream array up to which the
	// subscriber has consumed events so far.
	offset      int
	source      string
	lastGet     time.Time
	warnedNoGet bool
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.offset),
		slog.String("source", e.source),
		slog.Time("last_get", e.lastGet))
}

func NewEventStream(lg *log.Logger) *EventStream {
	es := &EventStream{
		subscriptions: make(map[*EventsSubscription]interface{}),
		lastPost:      time.Now(),
		done:          make(chan struct{}),
		lg:            lg,
	}
	go es.monitor()
	return es
}

// Subscribe registers a new subscriber to the stream and returns a
// subscription handle that can then be passed to other EventStream
// methods.
func (e *EventStream) Subscribe() *EventsSubscription {
	// Record the subscriber's callsite, so that we can more easily debug
	// subscribers that aren't consuming events.
	_, fn, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", fn, line)

	sub := &EventsSubscription{
		stream:  e,
		offset:  len(e.events),
		source:  source,
		lastGet: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscriptions[sub] = nil
	return sub
}

func (e *EventStream) monitor() {
	tick := time.Tick(5 * time.Second)

	for {
		<-tick

		select {
		case <-e.done:
			return
		default:
		}

		e.mu.Lock()

		e.compact()

		if len(e.events) > 1000 && !e.warnedLong {
			// It's likely that one of the subscribers is out to lunch if
			// the stream has grown this long.
			e.lg.Warn("Long EventStream", slog.Int("length", len(e.events)),
				log.AnyPointerSlice("subscriptions", slices.Collect(maps.Keys(e.subscriptions))))
			e.warnedLong = true
		}

		// Check if any of the subscribers haven't been consuming events,
		// though only if events are being posted to the stream so we
		// don't complain when nothing is happening.
		if time.Since(e.lastPost) < 5*time.Second {
			for sub := range e.subscriptions {
				if d := time.Since(sub.lastGet); d > 10*time.Second && !sub.warnedNoGet {
					e.lg.Warn("Subscriber has not called Get() recently",
						slog.Duration("duration", d), slog.Any("subscriber", sub))
					sub.warnedNoGet = true
				}
			}
		}

		e.mu.Unlock()
	}
}

// Unsubscribe removes a subscriber from the subscriber list
func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to unsubscribe invalid subscription: %+v", e)
	}
	delete(e.stream.subscriptions, e)
	e.stream = nil
}

// Post adds an event to the event stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.lastPost = time.Now()
		e.events = append(e.events, event)
	}
}

// Get returns all of the events from the stream since the last time Get
// was called for this subscription.  Note that events before a
// subscription was created are never reported for it.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to get with unregistered subscription: %+v", e)
		return nil
	}

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)
	e.lastGet = time.Now()
	e.warnedNoGet = false

	return events
}

func (e *EventStream) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case e.done <- struct{}{}:
	default:
	}

	close(e.done)
	clear(e.subscriptions)
}

// compact reclaims storage for events that all subscribers have seen; it
// is called periodically so that EventStream memory usage doesn't grow
// without bound.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		if sub.offset < minOffset {
			minOffset = sub.offset
		}
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false // reset this after a successful compact.
	}
}

// implements slog.LogValuer
func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := []slog.Attr{slog.Int("len", len(e.events)), slog.Int("cap", cap(e.events))}
	if len(e.events) > 0 {
		items = append(items, slog.Any("last_element", e.events[len(e.events)-1]))
	}
	items = append(items, log.AnyPointerSlice("subscriptions", slices.Collect(maps.Keys(e.subscriptions))))
	return slog.GroupValue(items...)
}

///////////////////////////////////////////////////////////////////////////

// StreamTaskEvents adapts an EventStream to the TaskEvents callback
// interface so engine events can be consumed asynchronously.
type StreamTaskEvents struct {
	Stream *EventStream

	// Clock supplies the event timestamps; the engine's last fix time is
	// the natural source.
	Clock func() float64
}

func (s *StreamTaskEvents) post(t EventType, p *TaskPoint, index int) {
	ev := Event{Type: t, Index: index, Time: TimeUndefined}
	if p != nil {
		ev.Waypoint = p.Waypoint.Name
	}
	if s.Clock != nil {
		ev.Time = s.Clock()
	}
	s.Stream.Post(ev)
}

func (s *StreamTaskEvents) EnterTransition(p *TaskPoint)       { s.post(EnterTransitionEvent, p, -1) }
func (s *StreamTaskEvents) ExitTransition(p *TaskPoint)        { s.post(ExitTransitionEvent, p, -1) }
func (s *StreamTaskEvents) ActiveAdvanced(p *TaskPoint, i int) { s.post(ActiveAdvancedEvent, p, i) }
func (s *StreamTaskEvents) RequestArm(p *TaskPoint)            { s.post(RequestArmEvent, p, -1) }
func (s *StreamTaskEvents) TaskStart()                         { s.post(TaskStartEvent, nil, -1) }
func (s *StreamTaskEvents) TaskFinish()                        { s.post(TaskFinishEvent, nil, -1) }
