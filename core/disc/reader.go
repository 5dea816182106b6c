package disc

import (
	"context"
	"errors"
	"fmt"

	"RaspCD/core/musicbrainz"
	"RaspCD/logger"
	"RaspCD/model"
)

// errAmbiguous marks a lookup response that is neither a disc nor a stub.
var errAmbiguous = errors.New("response is neither a disc nor a cd stub")

// Lookup resolves a disc id against a metadata service.
type Lookup interface {
	LookupDiscID(ctx context.Context, discID string) (*musicbrainz.DiscIDResult, error)
}

// Cache stores previously resolved discs by id.
type Cache interface {
	GetDisc(ctx context.Context, discID string) (model.Disc, bool)
	SetDisc(ctx context.Context, d model.Disc)
}

type nopCache struct{}

func (nopCache) GetDisc(context.Context, string) (model.Disc, bool) { return model.Disc{}, false }
func (nopCache) SetDisc(context.Context, model.Disc)                {}

// Reader identifies the disc in a drive.
type Reader struct {
	device  string
	lookup  Lookup
	tool    Tool
	cache   Cache
	readTOC func(device string) (TOC, error)
}

// NewReader creates a Reader for device. cache may be nil.
func NewReader(device string, lookup Lookup, tool Tool, cache Cache) *Reader {
	if cache == nil {
		cache = nopCache{}
	}
	return &Reader{
		device:  device,
		lookup:  lookup,
		tool:    tool,
		cache:   cache,
		readTOC: ReadTOC,
	}
}

// IsInserted reports whether a disc is readable, either through the native
// TOC or, failing that, through the fallback tool.
func (r *Reader) IsInserted(ctx context.Context) bool {
	if _, err := r.readTOC(r.device); err == nil {
		return true
	}
	if r.tool == nil {
		return false
	}
	_, err := r.tool.Run(ctx)
	return err == nil
}

// DiscID reads the TOC and returns the disc id without any lookup.
func (r *Reader) DiscID(ctx context.Context) (string, error) {
	toc, err := r.readTOC(r.device)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeviceAbsent, err)
	}
	return toc.DiscID(), nil
}

// Identify reads the TOC, looks the disc up and derives track durations. It
// never fails hard: on any error the returned Disc is empty and the error
// wraps ErrDeviceAbsent, ErrServiceUnavailable or ErrMalformedResponse.
func (r *Reader) Identify(ctx context.Context) (model.Disc, error) {
	toc, err := r.readTOC(r.device)
	if err != nil {
		logger.Info("no readable disc", logger.String("device", r.device), logger.ErrorField(err))
		return model.Disc{}, fmt.Errorf("%w: %v", ErrDeviceAbsent, err)
	}

	id := toc.DiscID()
	if cached, ok := r.cache.GetDisc(ctx, id); ok {
		logger.Debug("disc served from cache", logger.String("discId", id))
		return cached, nil
	}

	d, err := r.fromLookup(ctx, id, toc)
	if errors.Is(err, ErrServiceUnavailable) {
		logger.Warn("disc not found or database unavailable, using cd-discid",
			logger.String("discId", id), logger.ErrorField(err))
		d, err = r.fromTool(ctx, id)
	}
	if err != nil {
		logger.Warn("disc identification failed", logger.String("discId", id), logger.ErrorField(err))
		return model.Disc{}, err
	}

	if d.Source == model.SourceMusicBrainz || d.Source == model.SourceCDStub {
		r.cache.SetDisc(ctx, d)
	}
	logger.Info("disc identified",
		logger.String("discId", id),
		logger.String("source", string(d.Source)),
		logger.Int("tracks", d.NumTracks()),
		logger.String("album", d.Album))
	return d, nil
}

// fromLookup builds a disc from the metadata service. Lookup failures and
// ambiguous responses both wrap ErrServiceUnavailable so Identify takes the
// single fallback path.
func (r *Reader) fromLookup(ctx context.Context, id string, toc TOC) (model.Disc, error) {
	if r.lookup == nil {
		return model.Disc{}, fmt.Errorf("%w: no lookup configured", ErrServiceUnavailable)
	}
	res, err := r.lookup.LookupDiscID(ctx, id)
	if err != nil {
		return model.Disc{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	switch {
	case res.IsDisc():
		durations, ok := model.DurationsFromOffsets(res.OffsetCount, res.LeadOutOffsets())
		if !ok {
			return model.Disc{}, fmt.Errorf("%w: musicbrainz offsets %v", ErrMalformedResponse, res.Offsets)
		}
		return discFromRelease(id, res, durations), nil

	case res.IsStub():
		durations, ok := model.DurationsFromOffsets(toc.NumTracks(), toc.LeadOutOffsets())
		if !ok {
			return model.Disc{}, fmt.Errorf("%w: toc offsets %v", ErrMalformedResponse, toc.Offsets)
		}
		return discFromStub(id, res, durations), nil

	default:
		return model.Disc{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, errAmbiguous)
	}
}

// fromTool recovers track boundaries from the cd-discid output.
func (r *Reader) fromTool(ctx context.Context, id string) (model.Disc, error) {
	if r.tool == nil {
		return model.Disc{}, fmt.Errorf("%w: no fallback tool configured", ErrMalformedResponse)
	}
	out, err := r.tool.Run(ctx)
	if err != nil {
		return model.Disc{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	n, offsets, err := ParseDiscIDOutput(out)
	if err != nil {
		return model.Disc{}, err
	}
	durations, ok := model.DurationsFromOffsets(n, offsets)
	if !ok {
		return model.Disc{}, fmt.Errorf("%w: cd-discid offsets %v for %d tracks", ErrMalformedResponse, offsets, n)
	}
	return model.Disc{ID: id, Source: model.SourceCDDiscID, Tracks: plainTracks(durations)}, nil
}

func plainTracks(durations []int64) []model.Track {
	tracks := make([]model.Track, len(durations))
	for i, d := range durations {
		tracks[i] = model.Track{Index: i, Duration: d}
	}
	return tracks
}

func discFromRelease(id string, res *musicbrainz.DiscIDResult, durations []int64) model.Disc {
	d := model.Disc{ID: id, Source: model.SourceMusicBrainz, Tracks: plainTracks(durations)}

	release, medium, ok := res.MatchRelease()
	if !ok {
		return d
	}
	d.ReleaseID = release.ID
	d.Album = release.Title
	d.Artist = musicbrainz.Credits(release.ArtistCredit)

	for i := range d.Tracks {
		d.Tracks[i].Album = d.Album
		d.Tracks[i].Artist = d.Artist
		if i >= len(medium.Tracks) {
			continue
		}
		mt := medium.Tracks[i]
		d.Tracks[i].Title = mt.Title
		if mt.Title == "" {
			d.Tracks[i].Title = mt.Recording.Title
		}
		if credit := musicbrainz.Credits(mt.ArtistCredit); credit != "" {
			d.Tracks[i].Artist = credit
		}
	}
	return d
}

func discFromStub(id string, res *musicbrainz.DiscIDResult, durations []int64) model.Disc {
	d := model.Disc{
		ID:     id,
		Artist: res.Artist,
		Album:  res.Title,
		Source: model.SourceCDStub,
		Tracks: plainTracks(durations),
	}
	for i := range d.Tracks {
		d.Tracks[i].Album = res.Title
		d.Tracks[i].Artist = res.Artist
		if i < len(res.Tracks) {
			d.Tracks[i].Title = res.Tracks[i].Title
			if res.Tracks[i].Artist != "" {
				d.Tracks[i].Artist = res.Tracks[i].Artist
			}
		}
	}
	return d
}
