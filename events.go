package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types recorded for later inspection.
const (
	EvtMatchStart = "match_start"
	EvtMatchEnd   = "match_end"
	EvtGoal       = "goal"
	EvtLoopStart  = "loop_start"
	EvtLoopStop   = "loop_stop"
	EvtJoin       = "player_join"
	EvtLeave      = "player_leave"
)

// gameEvent is a single trackable event.
type gameEvent struct {
	Type     string
	PlayerID int64
	Data     string
	At       time.Time
}

// EventRecorder persists events through a buffered channel and a background
// writer so the simulation loop never blocks on the database. A full buffer
// drops the event.
type EventRecorder struct {
	db     *DB
	log    zerolog.Logger
	events chan gameEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewEventRecorder starts the background writer.
func NewEventRecorder(db *DB, log zerolog.Logger) *EventRecorder {
	r := &EventRecorder{
		db:     db,
		log:    log,
		events: make(chan gameEvent, 1024),
		stop:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Track enqueues an event without blocking.
func (r *EventRecorder) Track(evtType string, playerID int64, data string) {
	select {
	case r.events <- gameEvent{Type: evtType, PlayerID: playerID, Data: data, At: time.Now().UTC()}:
	default:
	}
}

// Close drains pending events and stops the writer.
func (r *EventRecorder) Close() {
	close(r.stop)
	r.wg.Wait()
}

func (r *EventRecorder) writer() {
	defer r.wg.Done()
	for {
		select {
		case e := <-r.events:
			r.persist(e)
		case <-r.stop:
			for {
				select {
				case e := <-r.events:
					r.persist(e)
				default:
					return
				}
			}
		}
	}
}

func (r *EventRecorder) persist(e gameEvent) {
	if r.db == nil {
		return
	}
	if err := r.db.AddEvent(e.Type, e.PlayerID, e.Data); err != nil {
		r.log.Warn().Err(err).Str("type", e.Type).Msg("event write failed")
	}
}
