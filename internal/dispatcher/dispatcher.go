package dispatcher

import (
	"fmt"
	"sync"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/logging"
	"go-logbot/internal/metrics"
)

// RouteLookup is satisfied by *routing.Store.
type RouteLookup interface {
	Get(guildID string) (string, bool)
}

// Channel is a resolved destination.
type Channel struct {
	ID      string
	GuildID string
	Name    string
}

// Platform resolves destinations and posts rendered records.
type Platform interface {
	ResolveChannel(channelID string) (*Channel, bool)
	Deliver(ch *Channel, rec *audit.Record) error
}

type Stage string

const (
	StageResolve Stage = "resolve"
	StageDeliver Stage = "deliver"
)

// DeliveryFailure describes a record that could not be posted. It never
// leaves the dispatcher.
type DeliveryFailure struct {
	GuildID   string
	ChannelID string
	Kind      audit.Kind
	Stage     Stage
	Err       error
}

func (f *DeliveryFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failed for %s in guild %s (channel %s)", f.Stage, f.Kind, f.GuildID, f.ChannelID)
	}
	return fmt.Sprintf("%s failed for %s in guild %s (channel %s): %v", f.Stage, f.Kind, f.GuildID, f.ChannelID, f.Err)
}

func (f *DeliveryFailure) Unwrap() error { return f.Err }

// laneDepth bounds the records waiting on one guild before Reserve blocks.
const laneDepth = 256

// Dispatcher delivers records to each guild's log channel. Every guild has
// one worker, so deliveries within a guild are attempted in reservation order
// and a slow guild never holds up another.
type Dispatcher struct {
	routes   RouteLookup
	platform Platform
	counters *metrics.DispatchCounters

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

type lane struct {
	mu     sync.Mutex
	queue  chan chan *audit.Record
	closed bool
}

// Ticket is a reserved position in a guild's delivery order. Submit must be
// called exactly once; submitting nil gives the position up.
type Ticket struct {
	slot chan *audit.Record
}

func (t Ticket) Submit(rec *audit.Record) {
	if t.slot != nil {
		t.slot <- rec
	}
}

func NewDispatcher(routes RouteLookup, platform Platform, counters *metrics.DispatchCounters) *Dispatcher {
	if counters == nil {
		counters = metrics.NewDispatchCounters()
	}
	return &Dispatcher{
		routes:   routes,
		platform: platform,
		counters: counters,
		lanes:    make(map[string]*lane),
	}
}

func (d *Dispatcher) Counters() *metrics.DispatchCounters {
	return d.counters
}

// Dispatch posts rec to the guild's configured log channel. Records for the
// same guild are attempted in call order. Failures are logged and counted only.
func (d *Dispatcher) Dispatch(guildID string, rec *audit.Record) {
	if rec == nil || guildID == "" {
		return
	}
	d.Reserve(guildID).Submit(rec)
}

// Reserve takes the next position in guildID's delivery order. The record
// may be submitted later from any goroutine; the worker waits for it.
func (d *Dispatcher) Reserve(guildID string) Ticket {
	l := d.lane(guildID)
	if l == nil {
		return Ticket{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Ticket{}
	}
	slot := make(chan *audit.Record, 1)
	l.queue <- slot
	return Ticket{slot: slot}
}

// Close stops accepting records and waits for queued ones to be attempted.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	lanes := make([]*lane, 0, len(d.lanes))
	for _, l := range d.lanes {
		lanes = append(lanes, l)
	}
	d.mu.Unlock()

	for _, l := range lanes {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	}
	d.wg.Wait()
}

func (d *Dispatcher) run(guildID string, l *lane) {
	defer d.wg.Done()
	for slot := range l.queue {
		rec := <-slot
		if rec == nil {
			continue
		}
		if failure := d.attempt(guildID, rec); failure != nil {
			d.counters.Failed()
			logging.Debug("Dropped %s", failure)
		}
	}
}

func (d *Dispatcher) attempt(guildID string, rec *audit.Record) *DeliveryFailure {
	channelID, ok := d.routes.Get(guildID)
	if !ok {
		d.counters.Unrouted()
		return nil
	}

	ch, ok := d.platform.ResolveChannel(channelID)
	if !ok {
		return &DeliveryFailure{GuildID: guildID, ChannelID: channelID, Kind: rec.Kind, Stage: StageResolve}
	}
	// A hand-edited route may point outside the guild.
	if ch.GuildID != "" && ch.GuildID != guildID {
		return &DeliveryFailure{
			GuildID:   guildID,
			ChannelID: channelID,
			Kind:      rec.Kind,
			Stage:     StageResolve,
			Err:       fmt.Errorf("channel belongs to guild %s", ch.GuildID),
		}
	}

	start := time.Now()
	if err := d.platform.Deliver(ch, rec); err != nil {
		return &DeliveryFailure{GuildID: guildID, ChannelID: channelID, Kind: rec.Kind, Stage: StageDeliver, Err: err}
	}
	d.counters.Delivered(time.Since(start))
	return nil
}

// lane returns the guild's lane, starting its worker on first use. It
// returns nil once the dispatcher is closed.
func (d *Dispatcher) lane(guildID string) *lane {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}

	l, ok := d.lanes[guildID]
	if !ok {
		l = &lane{queue: make(chan chan *audit.Record, laneDepth)}
		d.lanes[guildID] = l
		d.wg.Add(1)
		go d.run(guildID, l)
	}
	return l
}
