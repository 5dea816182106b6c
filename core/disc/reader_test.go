package disc

import (
	"context"
	"errors"
	"math"
	"testing"

	"RaspCD/core/musicbrainz"
	"RaspCD/model"
)

type fakeLookup struct {
	res   *musicbrainz.DiscIDResult
	err   error
	calls int
}

func (f *fakeLookup) LookupDiscID(ctx context.Context, discID string) (*musicbrainz.DiscIDResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeTool struct {
	out   string
	err   error
	calls int
}

func (f *fakeTool) Run(ctx context.Context) (string, error) {
	f.calls++
	return f.out, f.err
}

type memCache struct {
	discs map[string]model.Disc
}

func (c *memCache) GetDisc(ctx context.Context, id string) (model.Disc, bool) {
	d, ok := c.discs[id]
	return d, ok
}

func (c *memCache) SetDisc(ctx context.Context, d model.Disc) {
	c.discs[d.ID] = d
}

var threeTrackTOC = TOC{First: 1, Last: 3, Offsets: []int{150, 3150, 7150}, LeadOut: 10150}

func newTestReader(lookup Lookup, tool Tool, cache Cache, toc TOC, tocErr error) *Reader {
	r := NewReader("/dev/test", lookup, tool, cache)
	r.readTOC = func(string) (TOC, error) { return toc, tocErr }
	return r
}

func matchedRelease(id string) *musicbrainz.DiscIDResult {
	return &musicbrainz.DiscIDResult{
		ID:          id,
		OffsetCount: 3,
		Offsets:     []int{150, 3150, 7150},
		Sectors:     10150,
		Releases: []musicbrainz.Release{{
			ID:           "rel-1",
			Title:        "Kind of Blue",
			ArtistCredit: []musicbrainz.ArtistCredit{{Name: "Miles Davis"}},
			Media: []musicbrainz.Medium{{
				Discs: []musicbrainz.MediumDisc{{ID: id}},
				Tracks: []musicbrainz.Track{
					{Position: 1, Title: "So What"},
					{Position: 2, Title: "Freddie Freeloader"},
					{Position: 3, Title: "Blue in Green"},
				},
			}},
		}},
	}
}

func TestIdentifyDeviceAbsent(t *testing.T) {
	lookup := &fakeLookup{}
	r := newTestReader(lookup, &fakeTool{}, nil, TOC{}, errors.New("no medium"))

	d, err := r.Identify(context.Background())
	if !errors.Is(err, ErrDeviceAbsent) {
		t.Fatalf("err = %v, want ErrDeviceAbsent", err)
	}
	if !d.Empty() {
		t.Errorf("disc = %+v, want empty", d)
	}
	if lookup.calls != 0 {
		t.Errorf("lookup called %d times", lookup.calls)
	}
}

func TestIdentifyFromMusicBrainz(t *testing.T) {
	id := threeTrackTOC.DiscID()
	tool := &fakeTool{}
	cache := &memCache{discs: map[string]model.Disc{}}
	r := newTestReader(&fakeLookup{res: matchedRelease(id)}, tool, cache, threeTrackTOC, nil)

	d, err := r.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if d.Source != model.SourceMusicBrainz || d.ReleaseID != "rel-1" {
		t.Errorf("disc = %+v", d)
	}
	wantDurations := []int64{40000, 53333, 40000}
	for i, tr := range d.Tracks {
		if tr.Duration != wantDurations[i] {
			t.Errorf("track %d duration = %d, want %d", i, tr.Duration, wantDurations[i])
		}
		if tr.Artist != "Miles Davis" || tr.Album != "Kind of Blue" {
			t.Errorf("track %d = %+v", i, tr)
		}
	}
	if d.Tracks[1].Title != "Freddie Freeloader" {
		t.Errorf("title = %q", d.Tracks[1].Title)
	}
	if tool.calls != 0 {
		t.Errorf("fallback tool ran for a matched disc")
	}
	if _, ok := cache.discs[id]; !ok {
		t.Errorf("matched disc was not cached")
	}
}

func TestIdentifyCDStubUsesTOC(t *testing.T) {
	stub := &musicbrainz.DiscIDResult{
		ID:     threeTrackTOC.DiscID(),
		Title:  "Demo Tape",
		Artist: "Garage Band",
		Tracks: []musicbrainz.StubTrack{{Title: "One"}, {Title: "Two"}, {Title: "Three"}},
	}
	r := newTestReader(&fakeLookup{res: stub}, &fakeTool{}, nil, threeTrackTOC, nil)

	d, err := r.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if d.Source != model.SourceCDStub || d.NumTracks() != 3 {
		t.Fatalf("disc = %+v", d)
	}
	if d.Tracks[2].Title != "Three" || d.Tracks[0].Duration != 40000 {
		t.Errorf("track = %+v", d.Tracks)
	}
}

func TestIdentifyFallback(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
	}{
		{name: "service unavailable", lookup: &fakeLookup{err: musicbrainz.ErrNotFound}},
		{name: "ambiguous response", lookup: &fakeLookup{res: &musicbrainz.DiscIDResult{ID: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &fakeTool{out: "3 0 3000 7000 10000\n"}
			cache := &memCache{discs: map[string]model.Disc{}}
			r := newTestReader(tt.lookup, tool, cache, threeTrackTOC, nil)

			d, err := r.Identify(context.Background())
			if err != nil {
				t.Fatalf("Identify: %v", err)
			}
			if tool.calls != 1 {
				t.Errorf("tool calls = %d, want 1", tool.calls)
			}
			if d.Source != model.SourceCDDiscID {
				t.Errorf("source = %q", d.Source)
			}
			got := d.TrackLengths()
			if len(got) != 3 || got[0] != 40000 || got[1] != 53333 || got[2] != 40000 {
				t.Errorf("durations = %v", got)
			}
			if len(cache.discs) != 0 {
				t.Errorf("fallback result should not be cached")
			}
		})
	}
}

func TestIdentifyFallbackFailure(t *testing.T) {
	tests := []struct {
		name string
		tool *fakeTool
	}{
		{name: "tool error", tool: &fakeTool{err: errors.New("exit status 1")}},
		{name: "short output", tool: &fakeTool{out: "3 0 3000 7000"}},
		{name: "garbage", tool: &fakeTool{out: "no disc"}},
		{name: "long output", tool: &fakeTool{out: "1 150 300 450"}},
		{name: "overflowing count", tool: &fakeTool{out: "9223372036854775807 150 300"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(&fakeLookup{err: errors.New("timeout")}, tt.tool, nil, threeTrackTOC, nil)
			d, err := r.Identify(context.Background())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
			if !d.Empty() {
				t.Errorf("disc = %+v, want empty", d)
			}
		})
	}
}

func TestIdentifyMalformedMusicBrainzOffsets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(res *musicbrainz.DiscIDResult)
	}{
		{name: "decreasing", mutate: func(res *musicbrainz.DiscIDResult) { res.Offsets = []int{150, 100, 7150} }},
		{name: "count mismatch", mutate: func(res *musicbrainz.DiscIDResult) { res.OffsetCount = 2 }},
		{name: "overflowing count", mutate: func(res *musicbrainz.DiscIDResult) {
			res.OffsetCount = math.MaxInt
			res.Offsets = []int{150}
			res.Sectors = 300
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := matchedRelease(threeTrackTOC.DiscID())
			tt.mutate(res)
			tool := &fakeTool{out: "3 0 3000 7000 10000"}
			r := newTestReader(&fakeLookup{res: res}, tool, nil, threeTrackTOC, nil)

			d, err := r.Identify(context.Background())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
			if !d.Empty() || tool.calls != 0 {
				t.Errorf("disc = %+v, tool calls = %d", d, tool.calls)
			}
		})
	}
}

func TestIdentifyCacheHit(t *testing.T) {
	id := threeTrackTOC.DiscID()
	cached := model.Disc{ID: id, Album: "Cached", Source: model.SourceMusicBrainz, Tracks: []model.Track{{Duration: 1}, {Duration: 2}}}
	lookup := &fakeLookup{}
	r := newTestReader(lookup, &fakeTool{}, &memCache{discs: map[string]model.Disc{id: cached}}, threeTrackTOC, nil)

	d, err := r.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if d.Album != "Cached" || lookup.calls != 0 {
		t.Errorf("disc = %+v, lookup calls = %d", d, lookup.calls)
	}
}

func TestIsInserted(t *testing.T) {
	absent := errors.New("no medium")
	tests := []struct {
		name   string
		tocErr error
		tool   *fakeTool
		want   bool
	}{
		{name: "toc readable", tool: &fakeTool{err: errors.New("not installed")}, want: true},
		{name: "tool sees disc", tocErr: absent, tool: &fakeTool{out: "1 150 300"}, want: true},
		{name: "nothing", tocErr: absent, tool: &fakeTool{err: errors.New("no disc")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(nil, tt.tool, nil, threeTrackTOC, tt.tocErr)
			if got := r.IsInserted(context.Background()); got != tt.want {
				t.Errorf("IsInserted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscIDSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{}
	r := newTestReader(lookup, &fakeTool{}, nil, threeTrackTOC, nil)
	id, err := r.DiscID(context.Background())
	if err != nil || id != threeTrackTOC.DiscID() {
		t.Fatalf("DiscID = %q, %v", id, err)
	}
	if lookup.calls != 0 {
		t.Errorf("lookup calls = %d, want 0", lookup.calls)
	}

	r = newTestReader(lookup, &fakeTool{}, nil, TOC{}, errors.New("tray open"))
	if _, err := r.DiscID(context.Background()); !errors.Is(err, ErrDeviceAbsent) {
		t.Errorf("err = %v, want ErrDeviceAbsent", err)
	}
}
