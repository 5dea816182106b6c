package model

import "sync"

// PlayerState is the controller's position in its idle/identifying/running cycle.
type PlayerState string

const (
	StateIdle        PlayerState = "idle"
	StateIdentifying PlayerState = "identifying"
	StateRunning     PlayerState = "running"
)

// Session holds the minimal playback state. Only the player controller writes
// it; the snapshot builder and HTTP handlers read it through View.
type Session struct {
	mu           sync.RWMutex
	state        PlayerState
	discType     DiscType
	disc         Disc
	currentTrack int
	volume       int
}

// SessionView is a consistent copy of a Session taken under its lock.
type SessionView struct {
	State        PlayerState
	DiscType     DiscType
	Disc         Disc
	CurrentTrack int
	Volume       int
}

// NewSession returns an idle session with the given starting volume.
func NewSession(volume int) *Session {
	return &Session{state: StateIdle, volume: volume}
}

// View returns a copy of the current state.
func (s *Session) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionView{
		State:        s.state,
		DiscType:     s.discType,
		Disc:         s.disc,
		CurrentTrack: s.currentTrack,
		Volume:       s.volume,
	}
}

// Running reports whether a playback session is active.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateRunning
}

// State returns the controller state.
func (s *Session) State() PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Volume returns the last known volume.
func (s *Session) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// SetState moves the session to state without touching the disc.
func (s *Session) SetState(state PlayerState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Begin records a freshly identified disc and marks the session running.
func (s *Session) Begin(disc Disc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disc = disc
	s.discType = disc.Type()
	s.currentTrack = 0
	s.state = StateRunning
}

// Reset returns to idle, keeping the last identified disc and the volume.
func (s *Session) Reset(disc Disc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disc = disc
	s.discType = disc.Type()
	s.currentTrack = 0
	s.state = StateIdle
}

// SetCurrentTrack records the track index reported by the player.
func (s *Session) SetCurrentTrack(index int) {
	s.mu.Lock()
	s.currentTrack = index
	s.mu.Unlock()
}

// SetVolume records the volume reported by the player.
func (s *Session) SetVolume(volume int) {
	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()
}
