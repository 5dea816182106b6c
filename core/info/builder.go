package info

import (
	"context"

	"RaspCD/core/player"
	"RaspCD/logger"
	"RaspCD/model"
)

// Querier reads player properties; ok is false when no value is available.
type Querier interface {
	Query(ctx context.Context, prop player.Property) (any, bool)
}

// Library lists known discs.
type Library interface {
	List(ctx context.Context, limit int) ([]model.LibraryEntry, error)
}

// LibraryLimit caps the library included in a snapshot.
const LibraryLimit = 50

// Builder assembles snapshots from the session and live player queries.
type Builder struct {
	session *model.Session
	player  Querier
	library Library
}

// NewBuilder creates a Builder. library may be nil.
func NewBuilder(session *model.Session, player Querier, library Library) *Builder {
	return &Builder{session: session, player: player, library: library}
}

// Snapshot builds a snapshot carrying the requested fields. With no session
// running only the last known volume and the waiting status are set.
func (b *Builder) Snapshot(ctx context.Context, req model.InfoRequest) model.Snapshot {
	view := b.session.View()
	if view.State != model.StateRunning {
		return model.Waiting(view.Volume)
	}

	var snap model.Snapshot
	track := view.CurrentTrack
	if v, ok := b.player.Query(ctx, player.PropChapter); ok {
		if t, ok := player.AsInt(v); ok {
			track = t
		}
	}

	if req.Status {
		snap.Status = model.StatusPlaying
		if v, ok := b.player.Query(ctx, player.PropPause); ok {
			if paused, _ := player.AsBool(v); paused {
				snap.Status = model.StatusPaused
			}
		}
		snap.DiscType = view.DiscType
	}

	if req.Track {
		snap.CurrentTrack = &track
		if track >= 0 && track < view.Disc.NumTracks() {
			t := view.Disc.Tracks[track]
			snap.Title, snap.Artist, snap.Album = t.Title, t.Artist, t.Album
			duration := t.Duration
			snap.Duration = &duration
		}
		if v, ok := b.player.Query(ctx, player.PropTimePos); ok {
			if secs, ok := player.AsFloat(v); ok {
				elapsed := ElapsedInTrack(view.Disc, track, secs)
				snap.Elapsed = &elapsed
			}
		}
	}

	if req.Volume {
		vol := view.Volume
		if v, ok := b.player.Query(ctx, player.PropVolume); ok {
			if n, ok := player.AsInt(v); ok {
				vol = n
			}
		}
		snap.Volume = &vol
	}

	if req.TrackList {
		snap.TrackList = append([]model.Track(nil), view.Disc.Tracks...)
	}

	if req.Library && b.library != nil {
		entries, err := b.library.List(ctx, LibraryLimit)
		if err != nil {
			logger.Warn("failed to list library", logger.ErrorField(err))
		} else {
			snap.Library = entries
		}
	}

	return snap
}

// ElapsedInTrack converts the player's absolute disc time (seconds) into
// milliseconds into track k by subtracting the durations of tracks 0..k-1.
func ElapsedInTrack(d model.Disc, k int, absoluteSeconds float64) int64 {
	elapsed := int64(absoluteSeconds*1000) - d.ElapsedBefore(k)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
