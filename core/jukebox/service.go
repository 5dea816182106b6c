package jukebox

import (
	"context"
	"time"

	"RaspCD/core/events"
	"RaspCD/core/hotplug"
	"RaspCD/core/hub"
	"RaspCD/core/info"
	"RaspCD/core/player"
	"RaspCD/logger"
	"RaspCD/model"
)

// Emitter broadcasts an event to connected clients.
type Emitter interface {
	Emit(t hub.MessageType, data any) error
}

// Drive reads the optical drive without a metadata lookup.
type Drive interface {
	IsInserted(ctx context.Context) bool
	DiscID(ctx context.Context) (string, error)
}

// Options tunes the control loop.
type Options struct {
	PollInterval time.Duration
	SettleDelay  time.Duration
	// Rescan is used instead of hot-plug events when no udev monitor is
	// available. Zero disables rescanning.
	Rescan time.Duration
	// Drive, when set, lets a rescan skip the drive until its disc changes.
	Drive Drive
}

// Service runs the identify → play → poll cycle and feeds the notifier.
type Service struct {
	ctrl    *player.Controller
	builder *info.Builder
	queue   *events.Queue
	emitter Emitter
	source  hotplug.Source
	opts    Options

	// seen is the disc id the last rescan cycle ran for.
	seen string
}

// New wires the control loop. source may be nil, in which case only the
// initial cycle and Rescan drive identification.
func New(ctrl *player.Controller, builder *info.Builder, queue *events.Queue, emitter Emitter, source hotplug.Source, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	return &Service{
		ctrl:    ctrl,
		builder: builder,
		queue:   queue,
		emitter: emitter,
		source:  source,
		opts:    opts,
	}
}

// Run is the control loop. It identifies whatever is in the drive at start
// and again after each qualifying hot-plug event, then returns when ctx is
// done, stopping any active playback.
func (s *Service) Run(ctx context.Context) error {
	defer s.ctrl.Stop(context.Background())

	s.Cycle(ctx)

	var devices <-chan hotplug.Event
	if s.source != nil {
		ch, err := s.source.Events(ctx)
		if err != nil {
			logger.Warn("hot-plug monitor unavailable", logger.ErrorField(err), logger.Duration("rescan", s.opts.Rescan))
		} else {
			devices = ch
		}
	}

	var rescan <-chan time.Time
	if devices == nil && s.opts.Rescan > 0 {
		ticker := time.NewTicker(s.opts.Rescan)
		defer ticker.Stop()
		rescan = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-devices:
			if !ok {
				devices = nil
				continue
			}
			if !ev.Triggers() {
				continue
			}
			logger.Debug("block device event", logger.String("action", ev.Action), logger.String("devnode", ev.Devnode), logger.Bool("cdrom", ev.CDROM))
			// 等待光驱就绪
			if !sleep(ctx, s.opts.SettleDelay) {
				return nil
			}
			s.Cycle(ctx)

		case <-rescan:
			s.rescan(ctx)
		}
	}
}

// rescan runs a cycle only when the drive holds a disc other than the one
// last seen, or when a seen disc was removed. Without a Drive every rescan
// cycles.
func (s *Service) rescan(ctx context.Context) {
	if s.opts.Drive == nil {
		s.Cycle(ctx)
		return
	}

	if !s.opts.Drive.IsInserted(ctx) {
		if s.seen != "" {
			s.seen = ""
			s.Cycle(ctx)
		}
		return
	}

	id, err := s.opts.Drive.DiscID(ctx)
	if err != nil {
		// the fallback tool sees a disc the TOC read does not
		s.seen = ""
		s.Cycle(ctx)
		return
	}
	if id == s.seen {
		return
	}
	s.seen = id
	s.Cycle(ctx)
}

// Cycle runs one identification and, if playback started, polls the player
// until the session ends. A snapshot is pushed after identification, on every
// poll and once more when the session is over.
func (s *Service) Cycle(ctx context.Context) {
	s.ctrl.RefreshIfIdle(ctx)
	s.publish(ctx, model.FullInfo)
	if !s.ctrl.Session().Running() {
		return
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for s.ctrl.Poll(ctx) {
		s.publish(ctx, model.DefaultInfo)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	s.publish(ctx, model.DefaultInfo)
}

func (s *Service) publish(ctx context.Context, req model.InfoRequest) {
	s.queue.Push(s.builder.Snapshot(ctx, req))
}

// Notify drains the queue into the emitter until ctx is done.
func (s *Service) Notify(ctx context.Context) error {
	for {
		snap, ok := s.queue.Pop(ctx)
		if !ok {
			return nil
		}
		if err := s.emitter.Emit(hub.MsgTypeMediaPlayerInfo, snap); err != nil {
			logger.Warn("failed to emit snapshot", logger.ErrorField(err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
