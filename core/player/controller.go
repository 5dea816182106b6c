package player

import (
	"context"
	"time"

	"RaspCD/logger"
	"RaspCD/model"
)

// Identifier produces the disc currently in the drive.
type Identifier interface {
	Identify(ctx context.Context) (model.Disc, error)
}

// Controller drives the player process and owns the writes to Session.
type Controller struct {
	session *model.Session
	reader  Identifier
	control Control
	timeout time.Duration
	started []func(model.Disc)
}

// NewController wires a controller. timeout bounds each control-channel call.
func NewController(session *model.Session, reader Identifier, control Control, timeout time.Duration) *Controller {
	return &Controller{session: session, reader: reader, control: control, timeout: timeout}
}

// OnStart registers fn to run after playback of a disc begins.
func (c *Controller) OnStart(fn func(model.Disc)) {
	c.started = append(c.started, fn)
}

// Session returns the session the controller writes.
func (c *Controller) Session() *model.Session {
	return c.session
}

// RefreshIfIdle identifies the disc when no session is active and starts
// playback if it is an audio CD.
func (c *Controller) RefreshIfIdle(ctx context.Context) {
	if c.session.Running() {
		return
	}

	c.session.SetState(model.StateIdentifying)
	d, err := c.reader.Identify(ctx)
	if err != nil {
		logger.Info("waiting for CD", logger.ErrorField(err))
	}

	if !d.IsAudio() {
		if d.NumTracks() == 1 {
			logger.Info("single-track media is not an audio CD, ignoring", logger.String("discId", d.ID))
		}
		c.session.Reset(d)
		return
	}

	if err := c.control.Start(ctx, d, c.session.Volume()); err != nil {
		logger.Error("failed to start playback", logger.ErrorField(err))
		c.session.Reset(d)
		return
	}
	c.session.Begin(d)
	logger.Info("playback started", logger.String("discId", d.ID), logger.Int("tracks", d.NumTracks()))

	for _, fn := range c.started {
		fn(d)
	}
}

// Query reads a property from the player. ok is false when no session is
// running, the process is unreachable or the value is unavailable.
func (c *Controller) Query(ctx context.Context, prop Property) (any, bool) {
	if !c.session.Running() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.control.Get(ctx, prop)
	if err != nil {
		logger.Debug("player query failed", logger.String("property", string(prop)), logger.ErrorField(err))
		return nil, false
	}
	return v, true
}

// Poll refreshes the session from the player and reports whether the session
// is still running. A player that stopped moves the session back to idle.
func (c *Controller) Poll(ctx context.Context) bool {
	if !c.session.Running() {
		return false
	}

	alive := func() bool {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.control.Alive(ctx)
	}()
	if !alive {
		logger.Info("player stopped, session ended")
		c.end(ctx)
		return false
	}

	if v, ok := c.Query(ctx, PropChapter); ok {
		if track, ok := AsInt(v); ok {
			c.session.SetCurrentTrack(track)
		}
	}
	if v, ok := c.Query(ctx, PropVolume); ok {
		if vol, ok := AsInt(v); ok {
			c.session.SetVolume(vol)
		}
	}
	return true
}

// SetVolume clamps vol to 0..100 and applies it.
func (c *Controller) SetVolume(ctx context.Context, vol int) error {
	if vol < 0 {
		vol = 0
	}
	if vol > 100 {
		vol = 100
	}
	if err := c.set(ctx, PropVolume, vol); err != nil {
		return err
	}
	c.session.SetVolume(vol)
	return nil
}

// TogglePause flips the pause property.
func (c *Controller) TogglePause(ctx context.Context) error {
	v, ok := c.Query(ctx, PropPause)
	if !ok {
		return ErrNotRunning
	}
	paused, _ := AsBool(v)
	return c.set(ctx, PropPause, !paused)
}

// Step moves delta tracks.
func (c *Controller) Step(ctx context.Context, delta int) error {
	if !c.session.Running() {
		return ErrNotRunning
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.control.Step(ctx, delta)
}

// Stop ends the session and stops the player.
func (c *Controller) Stop(ctx context.Context) {
	if c.session.Running() {
		c.end(ctx)
	}
}

func (c *Controller) set(ctx context.Context, prop Property, value any) error {
	if !c.session.Running() {
		return ErrNotRunning
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.control.Set(ctx, prop, value)
}

func (c *Controller) end(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*c.timeout)
	defer cancel()
	if err := c.control.Stop(ctx); err != nil {
		logger.Warn("failed to stop player", logger.ErrorField(err))
	}
	c.session.Reset(c.session.View().Disc)
}
