package jukebox

import (
	"context"
	"time"

	"RaspCD/logger"
	"RaspCD/model"
)

const hookTimeout = 15 * time.Second

// PlayRecorder stores a disc in the library.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, d model.Disc) error
}

// CoverFetcher downloads cover art for a release.
type CoverFetcher interface {
	FetchCover(ctx context.Context, releaseID string) ([]byte, string, error)
}

// CoverStore persists cover art.
type CoverStore interface {
	Has(ctx context.Context, releaseID string) bool
	Put(ctx context.Context, releaseID string, data []byte, contentType string) error
}

// RecordPlays returns a start hook that records each played disc. Discs that
// were only read from the TOC have no id worth keeping and are skipped.
func RecordPlays(repo PlayRecorder) func(model.Disc) {
	return func(d model.Disc) {
		if d.ID == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()
			if err := repo.RecordPlay(ctx, d); err != nil {
				logger.Warn("failed to record play", logger.String("discId", d.ID), logger.ErrorField(err))
			}
		}()
	}
}

// MirrorCovers returns a start hook that copies the release's front cover
// into store the first time the release is played.
func MirrorCovers(fetcher CoverFetcher, store CoverStore) func(model.Disc) {
	return func(d model.Disc) {
		if d.ReleaseID == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()
			if err := mirrorCover(ctx, fetcher, store, d.ReleaseID); err != nil {
				logger.Info("cover art not stored", logger.String("releaseId", d.ReleaseID), logger.ErrorField(err))
			}
		}()
	}
}

func mirrorCover(ctx context.Context, fetcher CoverFetcher, store CoverStore, releaseID string) error {
	if store.Has(ctx, releaseID) {
		return nil
	}
	data, contentType, err := fetcher.FetchCover(ctx, releaseID)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, releaseID, data, contentType); err != nil {
		return err
	}
	logger.Info("cover art stored", logger.String("releaseId", releaseID), logger.Int("bytes", len(data)))
	return nil
}
