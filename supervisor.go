package pima

import (
	"context"
	"log"
	"sync"
	"time"
)

// State is a Supervisor lifecycle state.
type State int

const (
	Starting State = iota
	Connected
	LoggedIn
	Degraded
	Recovering
	Terminated
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Connected:
		return "connected"
	case LoggedIn:
		return "logged_in"
	case Degraded:
		return "degraded"
	case Recovering:
		return "recovering"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Dialer opens a fresh Transport to the panel. The Supervisor calls this
// at startup and again on every recovery rebuild.
type Dialer func() (Transport, error)

// Supervisor is the long-running poller: it maintains the login session,
// serializes every interaction with the Transport behind commandLock,
// rebuilds the Transport and Engine on protocol error, and fans out
// status changes to registered sinks.
type Supervisor struct {
	dial     Dialer
	capacity ZoneCapacity
	code     string

	// commandLock serializes every interaction with the Transport: poll,
	// login, arm, and recovery. It is held across the full duration of an
	// engine call, never just around the lock bookkeeping.
	commandLock sync.Mutex
	transport   Transport
	engine      *Engine

	// statusLock guards cached below. It is only ever held for the
	// copy-in / compare / read critical section, never around I/O.
	statusLock sync.Mutex
	cached     *StatusRecord

	state   State
	sinks   []func(*StatusRecord)
	sinksMu sync.Mutex

	log *log.Logger
}

// NewSupervisor constructs a Supervisor. dial is called to (re)build the
// Transport; code is the panel login code; capacity is the configured
// zone count.
func NewSupervisor(dial Dialer, capacity ZoneCapacity, code string, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{dial: dial, capacity: capacity, code: code, state: Starting, log: logger}
}

// OnStatusChange registers a sink invoked whenever the published status
// record changes. Sinks are invoked synchronously from whichever goroutine
// publishes (the poll loop, or a caller of Arm); callers needing async
// delivery (the MQTT bridge) must not block here.
func (s *Supervisor) OnStatusChange(fn func(*StatusRecord)) {
	s.sinksMu.Lock()
	defer s.sinksMu.Unlock()
	s.sinks = append(s.sinks, fn)
}

// CurrentStatus returns the last published status record, or nil if none
// has been published yet.
func (s *Supervisor) CurrentStatus() *StatusRecord {
	s.statusLock.Lock()
	defer s.statusLock.Unlock()
	return s.cached
}

// State reports the Supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	s.statusLock.Lock()
	defer s.statusLock.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.statusLock.Lock()
	s.state = st
	s.statusLock.Unlock()
}

// publish updates the cached status and notifies sinks only if the new
// record differs structurally from the last published one.
func (s *Supervisor) publish(rec *StatusRecord) {
	s.statusLock.Lock()
	changed := !s.cached.Equal(rec)
	if changed {
		s.cached = rec
	}
	s.statusLock.Unlock()

	if changed {
		s.sinksMu.Lock()
		sinks := append([]func(*StatusRecord){}, s.sinks...)
		s.sinksMu.Unlock()
		for _, sink := range sinks {
			sink(rec)
		}
	}
}

// rebuild tears down the current Transport (if any) and dials a fresh one
// plus a new Engine bound to it. Must be called with commandLock held.
func (s *Supervisor) rebuild() error {
	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
	t, err := s.dial()
	if err != nil {
		return err
	}
	s.transport = t
	s.engine = NewEngine(t, s.capacity)
	return nil
}

// loginUntilSuccess repeatedly calls Login until the panel reports a
// logged-in status. Must be called with commandLock held.
func (s *Supervisor) loginUntilSuccess() (*StatusRecord, error) {
	for {
		rec, err := s.engine.Login(s.code)
		if err != nil {
			return nil, err
		}
		if rec.LoggedIn {
			return rec, nil
		}
	}
}

// Run starts the supervisor loop: establishes the session, then polls
// once per second until ctx is cancelled. It returns only on
// unrecoverable failure or context cancellation.
func (s *Supervisor) Run(ctx context.Context) error {
	s.setState(Starting)

	s.commandLock.Lock()
	err := s.rebuild()
	s.commandLock.Unlock()
	if err != nil {
		s.setState(Terminated)
		return err
	}
	s.setState(Connected)

	s.commandLock.Lock()
	rec, err := s.engine.GetStatus()
	if err == nil && !rec.LoggedIn {
		rec, err = s.loginUntilSuccess()
	}
	s.commandLock.Unlock()
	if err != nil {
		s.setState(Terminated)
		return err
	}
	s.setState(LoggedIn)
	s.publish(rec)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.commandLock.Lock()
			if s.transport != nil {
				s.transport.Close()
			}
			s.commandLock.Unlock()
			s.setState(Terminated)
			return ctx.Err()
		case <-ticker.C:
			if err := s.poll(); err != nil {
				s.log.Printf("pima: supervisor poll error: %v", err)
				s.setState(Degraded)
				if rebuildErr := s.recover(); rebuildErr != nil {
					s.log.Printf("pima: supervisor recovery failed, requesting restart: %v", rebuildErr)
					s.setState(Terminated)
					return rebuildErr
				}
				s.setState(LoggedIn)
			}
		}
	}
}

// poll performs one command-lock-guarded get_status, re-logging in as
// needed, and publishes the result.
func (s *Supervisor) poll() error {
	s.commandLock.Lock()
	defer s.commandLock.Unlock()

	rec, err := s.engine.GetStatus()
	if err != nil {
		return err
	}
	if !rec.LoggedIn {
		rec, err = s.loginUntilSuccess()
		if err != nil {
			return err
		}
	}
	s.publish(rec)
	return nil
}

// recover tears down and rebuilds the Transport + Engine, then
// re-establishes the login session. Called with commandLock free; it
// acquires it itself.
func (s *Supervisor) recover() error {
	s.setState(Recovering)
	s.commandLock.Lock()
	defer s.commandLock.Unlock()

	if err := s.rebuild(); err != nil {
		return err
	}
	rec, err := s.engine.GetStatus()
	if err != nil {
		return err
	}
	if !rec.LoggedIn {
		rec, err = s.loginUntilSuccess()
		if err != nil {
			return err
		}
	}
	s.publish(rec)
	return nil
}

// Arm acquires the command lock, executes the arm command, publishes and
// returns the resulting status. Because it holds commandLock across
// send+status-read, the next background poll cannot interleave.
func (s *Supervisor) Arm(mode ArmMode, partitions []int) (*StatusRecord, error) {
	s.commandLock.Lock()
	defer s.commandLock.Unlock()

	rec, err := s.engine.Arm(mode, partitions)
	if err != nil {
		return nil, err
	}
	s.publish(rec)
	return rec, nil
}
