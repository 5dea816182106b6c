package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"RaspCD/logger"
	"RaspCD/model"

	"github.com/dexterlb/mpvipc"
)

// MPV controls an mpv process through its JSON IPC socket. Requests are
// serialised and each one is bounded by the channel timeout.
type MPV struct {
	path    string
	socket  string
	device  string
	timeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{}
	conn   *mpvipc.Connection
}

// NewMPV creates an mpv control channel. Nothing is spawned until Start.
func NewMPV(path, socket, device string, timeout time.Duration) *MPV {
	return &MPV{path: path, socket: socket, device: device, timeout: timeout}
}

// Start spawns mpv on the cdda:// stream of the configured drive and connects
// to its IPC socket.
func (m *MPV) Start(ctx context.Context, disc model.Disc, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownLocked()
	_ = os.Remove(m.socket)

	cmd := exec.Command(m.path,
		"--no-video",
		"--no-terminal",
		"--idle=no",
		"--input-ipc-server="+m.socket,
		"--cdrom-device="+m.device,
		"--volume="+strconv.Itoa(volume),
		"cdda://",
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.path, err)
	}
	exited := make(chan struct{})
	go func() {
		err := cmd.Wait()
		logger.Info("mpv exited", logger.Int("pid", cmd.Process.Pid), logger.Any("err", err))
		close(exited)
	}()
	m.cmd, m.exited = cmd, exited

	conn, err := m.dial(ctx, exited)
	if err != nil {
		m.shutdownLocked()
		return err
	}
	m.conn = conn
	logger.Info("mpv started",
		logger.Int("pid", cmd.Process.Pid),
		logger.String("socket", m.socket),
		logger.Int("tracks", disc.NumTracks()))
	return nil
}

// dial waits for mpv to create its socket.
func (m *MPV) dial(ctx context.Context, exited <-chan struct{}) (*mpvipc.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*m.timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		conn := mpvipc.NewConnection(m.socket)
		err := conn.Open()
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to mpv socket %s: %w", m.socket, err)
		case <-exited:
			return nil, fmt.Errorf("mpv exited before opening %s: %w", m.socket, ErrNotRunning)
		case <-ticker.C:
		}
	}
}

type mpvResult struct {
	data any
	err  error
}

// request sends one IPC command. mpvipc calls have no deadline, so a request
// that outlives the timeout drops the connection and the channel reports
// ErrNotRunning until the next Start.
func (m *MPV) request(ctx context.Context, args ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.processExited() {
		return nil, ErrNotRunning
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn := m.conn
	done := make(chan mpvResult, 1)
	go func() {
		data, err := conn.Call(args...)
		done <- mpvResult{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.data, nil
		}
		if m.processExited() {
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, r.err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, r.err)
	case <-ctx.Done():
		conn.Close()
		m.conn = nil
		return nil, fmt.Errorf("%w: mpv did not answer %v: %v", ErrNotRunning, args[0], ctx.Err())
	}
}

// Get reads a property.
func (m *MPV) Get(ctx context.Context, prop Property) (any, error) {
	v, err := m.request(ctx, "get_property", string(prop))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, unavailable(prop)
	}
	return v, nil
}

// Set writes a property.
func (m *MPV) Set(ctx context.Context, prop Property, value any) error {
	_, err := m.request(ctx, "set_property", string(prop), value)
	return err
}

// Step moves between chapters, which mpv maps to CD tracks.
func (m *MPV) Step(ctx context.Context, delta int) error {
	_, err := m.request(ctx, "add", string(PropChapter), delta)
	return err
}

// Alive is the process state combined with a control-channel heartbeat.
func (m *MPV) Alive(ctx context.Context) bool {
	_, err := m.request(ctx, "get_property", "pid")
	return err == nil
}

// Stop asks mpv to quit and kills it if it does not exit in time.
func (m *MPV) Stop(ctx context.Context) error {
	_, _ = m.request(ctx, "quit")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownLocked()
	return nil
}

func (m *MPV) processExited() bool {
	if m.exited == nil {
		return true
	}
	select {
	case <-m.exited:
		return true
	default:
		return false
	}
}

func (m *MPV) shutdownLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.cmd == nil {
		return
	}
	select {
	case <-m.exited:
	case <-time.After(m.timeout):
		if err := m.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Warn("failed to kill mpv", logger.ErrorField(err))
		}
		<-m.exited
	}
	m.cmd, m.exited = nil, nil
}
