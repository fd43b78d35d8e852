package geolocation

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/loonie/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultReportMaxAge is how long a pushed report answers later Acquire calls.
const DefaultReportMaxAge = time.Minute

type report struct {
	coords     domain.Coordinates
	deniedWith string
	at         time.Time
}

// Relay hands coordinates reported by the local UI to waiting detections.
// The UI owns the permission prompt; it pushes either a position or a denial.
type Relay struct {
	mu      sync.Mutex
	last    *report
	notify  chan struct{}
	waiting int

	maxAge time.Duration
	clock  clockwork.Clock
	log    zerolog.Logger
}

// NewRelay creates an empty relay. A nil clock uses wall time.
func NewRelay(maxAge time.Duration, clock clockwork.Clock, log zerolog.Logger) *Relay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxAge <= 0 {
		maxAge = DefaultReportMaxAge
	}
	return &Relay{
		notify: make(chan struct{}),
		maxAge: maxAge,
		clock:  clock,
		log:    log.With().Str("component", "coordinate_relay").Logger(),
	}
}

// Push records a position and wakes every waiting Acquire.
func (r *Relay) Push(coords domain.Coordinates) {
	r.publish(&report{coords: coords})
	r.log.Debug().Float64("lat", coords.Lat).Float64("lng", coords.Lng).Msg("Coordinates reported")
}

// Deny records that the user refused or the device could not get a fix.
func (r *Relay) Deny(reason string) {
	if reason == "" {
		reason = "denied"
	}
	r.publish(&report{deniedWith: reason})
	r.log.Debug().Str("reason", reason).Msg("Coordinates denied")
}

func (r *Relay) publish(rep *report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep.at = r.clock.Now()
	r.last = rep
	close(r.notify)
	r.notify = make(chan struct{})
}

// Waiting returns how many Acquire calls are blocked on a report.
func (r *Relay) Waiting() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// Acquire returns a report younger than maxAge, or waits for the next one.
// Denials and ctx expiry are reported as *domain.PermissionError.
func (r *Relay) Acquire(ctx context.Context) (domain.Coordinates, error) {
	r.mu.Lock()
	if rep := r.fresh(); rep != nil {
		r.mu.Unlock()
		return rep.result()
	}
	ch := r.notify
	r.waiting++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.waiting--
		r.mu.Unlock()
	}()

	select {
	case <-ch:
		r.mu.Lock()
		rep := r.last
		r.mu.Unlock()
		return rep.result()
	case <-ctx.Done():
		return domain.Coordinates{}, &domain.PermissionError{Reason: "timeout", Err: ctx.Err()}
	}
}

// fresh returns the last report if it is recent enough. Caller holds mu.
func (r *Relay) fresh() *report {
	if r.last == nil || r.clock.Since(r.last.at) >= r.maxAge {
		return nil
	}
	return r.last
}

func (rep *report) result() (domain.Coordinates, error) {
	if rep.deniedWith != "" {
		return domain.Coordinates{}, &domain.PermissionError{Reason: rep.deniedWith}
	}
	return rep.coords, nil
}
