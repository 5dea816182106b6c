package player

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"RaspCD/logger"
	"RaspCD/model"

	"github.com/fhs/gompd/v2/mpd"
)

// MPD controls a running MPD through its protocol. The disc is queued as one
// cdda:// entry per track, so chapter and playlist-pos are both the queue
// position and time-pos is rebuilt as absolute disc time.
type MPD struct {
	addr     string
	password string
	timeout  time.Duration

	mu     sync.Mutex
	client *mpd.Client
	// stuck is non-nil while an abandoned call still owns a connection; it
	// is closed once that call returns.
	stuck  chan struct{}
	disc   model.Disc
}

// NewMPD creates an MPD control channel; the connection is opened lazily.
// timeout bounds every call, dial included.
func NewMPD(addr, password string, timeout time.Duration) *MPD {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &MPD{addr: addr, password: password, timeout: timeout}
}

func (m *MPD) dial() (*mpd.Client, error) {
	if m.password != "" {
		return mpd.DialAuthenticated("tcp", m.addr, m.password)
	}
	return mpd.Dial("tcp", m.addr)
}

type mpdResult struct {
	client *mpd.Client
	err    error
}

// withClient runs fn on a live connection, dropping it on error so the next
// call redials. gompd has no deadlines, so the call runs in its own goroutine
// which owns the connection until it returns. When ctx or the timeout expires
// first the connection is abandoned; no new call is made until the abandoned
// one returns and closes it.
func (m *MPD) withClient(ctx context.Context, fn func(c *mpd.Client) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stuck != nil {
		select {
		case <-m.stuck:
			m.stuck = nil
		default:
			return fmt.Errorf("%w: MPD at %s has not answered a previous request", ErrNotRunning, m.addr)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan mpdResult, 1)
	go func(c *mpd.Client) {
		if c == nil {
			var err error
			if c, err = m.dial(); err != nil {
				if c != nil {
					c.Close()
				}
				done <- mpdResult{err: fmt.Errorf("%w: connect to MPD at %s: %v", ErrNotRunning, m.addr, err)}
				return
			}
		}
		done <- mpdResult{client: c, err: fn(c)}
	}(m.client)
	m.client = nil

	select {
	case r := <-done:
		if r.err != nil {
			if r.client != nil {
				r.client.Close()
			}
			return r.err
		}
		m.client = r.client
		return nil
	case <-ctx.Done():
		stuck := make(chan struct{})
		m.stuck = stuck
		go func() {
			if r := <-done; r.client != nil {
				r.client.Close()
			}
			close(stuck)
		}()
		return fmt.Errorf("%w: MPD at %s did not answer: %v", ErrNotRunning, m.addr, ctx.Err())
	}
}

// Start replaces the queue with the disc's tracks and plays from the first.
func (m *MPD) Start(ctx context.Context, disc model.Disc, volume int) error {
	err := m.withClient(ctx, func(c *mpd.Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		for i := 1; i <= disc.NumTracks(); i++ {
			if err := c.Add(fmt.Sprintf("cdda:///%d", i)); err != nil {
				return fmt.Errorf("queue track %d: %w", i, err)
			}
		}
		if err := c.SetVolume(volume); err != nil {
			logger.Warn("MPD has no mixer, volume unchanged", logger.ErrorField(err))
		}
		return c.Play(0)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.disc = disc
	m.mu.Unlock()
	logger.Info("mpd playback started", logger.String("addr", m.addr), logger.Int("tracks", disc.NumTracks()))
	return nil
}

func (m *MPD) status(ctx context.Context) (mpd.Attrs, error) {
	var st mpd.Attrs
	err := m.withClient(ctx, func(c *mpd.Client) error {
		var err error
		st, err = c.Status()
		return err
	})
	if err != nil {
		// st may still be written by an abandoned call
		return nil, err
	}
	return st, nil
}

// Get maps a property onto the MPD status attributes.
func (m *MPD) Get(ctx context.Context, prop Property) (any, error) {
	st, err := m.status(ctx)
	if err != nil {
		return nil, err
	}

	switch prop {
	case PropPause:
		return st["state"] == "pause", nil
	case PropChapter, PropPlaylistPos:
		song, err := strconv.Atoi(st["song"])
		if err != nil {
			return nil, unavailable(prop)
		}
		return float64(song), nil
	case PropTimePos:
		song, err := strconv.Atoi(st["song"])
		if err != nil {
			return nil, unavailable(prop)
		}
		elapsed, err := strconv.ParseFloat(st["elapsed"], 64)
		if err != nil {
			return nil, unavailable(prop)
		}
		m.mu.Lock()
		before := m.disc.ElapsedBefore(song)
		m.mu.Unlock()
		return float64(before)/1000 + elapsed, nil
	case PropVolume:
		vol, err := strconv.Atoi(st["volume"])
		if err != nil || vol < 0 {
			return nil, unavailable(prop)
		}
		return float64(vol), nil
	default:
		return nil, unavailable(prop)
	}
}

// Set writes pause, volume or the current track.
func (m *MPD) Set(ctx context.Context, prop Property, value any) error {
	switch prop {
	case PropPause:
		paused, ok := AsBool(value)
		if !ok {
			return fmt.Errorf("pause wants a bool, got %T", value)
		}
		return m.withClient(ctx, func(c *mpd.Client) error { return c.Pause(paused) })
	case PropVolume:
		vol, ok := AsInt(value)
		if !ok {
			return fmt.Errorf("volume wants a number, got %T", value)
		}
		return m.withClient(ctx, func(c *mpd.Client) error { return c.SetVolume(vol) })
	case PropChapter, PropPlaylistPos:
		pos, ok := AsInt(value)
		if !ok {
			return fmt.Errorf("%s wants a number, got %T", prop, value)
		}
		return m.withClient(ctx, func(c *mpd.Client) error { return c.Play(pos) })
	default:
		return unavailable(prop)
	}
}

// Step skips tracks with next/previous.
func (m *MPD) Step(ctx context.Context, delta int) error {
	return m.withClient(ctx, func(c *mpd.Client) error {
		for ; delta > 0; delta-- {
			if err := c.Next(); err != nil {
				return err
			}
		}
		for ; delta < 0; delta++ {
			if err := c.Previous(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Alive is true while MPD answers and is not stopped.
func (m *MPD) Alive(ctx context.Context) bool {
	st, err := m.status(ctx)
	return err == nil && st["state"] != "stop"
}

// Stop halts playback and empties the queue.
func (m *MPD) Stop(ctx context.Context) error {
	err := m.withClient(ctx, func(c *mpd.Client) error {
		if err := c.Stop(); err != nil {
			return err
		}
		return c.Clear()
	})
	m.mu.Lock()
	m.disc = model.Disc{}
	m.mu.Unlock()
	return err
}

// Close drops the MPD connection.
func (m *MPD) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}
