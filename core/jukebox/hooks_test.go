package jukebox

import (
	"context"
	"errors"
	"testing"
	"time"

	"RaspCD/model"
)

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) FetchCover(ctx context.Context, releaseID string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("img-" + releaseID), "image/jpeg", nil
}

type memCovers struct {
	data map[string][]byte
}

func (m *memCovers) Has(ctx context.Context, releaseID string) bool {
	_, ok := m.data[releaseID]
	return ok
}

func (m *memCovers) Put(ctx context.Context, releaseID string, data []byte, contentType string) error {
	m.data[releaseID] = data
	return nil
}

func TestMirrorCover(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &memCovers{data: map[string][]byte{}}
	ctx := context.Background()

	if err := mirrorCover(ctx, fetcher, store, "rel"); err != nil {
		t.Fatalf("mirrorCover: %v", err)
	}
	if string(store.data["rel"]) != "img-rel" {
		t.Errorf("stored %q", store.data["rel"])
	}

	// already stored, no second download
	if err := mirrorCover(ctx, fetcher, store, "rel"); err != nil {
		t.Fatalf("mirrorCover: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}

	fetcher.err = errors.New("404")
	if err := mirrorCover(ctx, fetcher, store, "other"); err == nil {
		t.Error("expected the fetch error")
	}
}

type recorder struct {
	got chan model.Disc
}

func (r recorder) RecordPlay(ctx context.Context, d model.Disc) error {
	r.got <- d
	return nil
}

func TestRecordPlays(t *testing.T) {
	r := recorder{got: make(chan model.Disc, 1)}
	hook := RecordPlays(r)

	hook(model.Disc{Tracks: []model.Track{{}, {}}})
	select {
	case d := <-r.got:
		t.Fatalf("recorded a disc without id: %+v", d)
	case <-time.After(20 * time.Millisecond):
	}

	hook(model.Disc{ID: "abc", Tracks: []model.Track{{}, {}}})
	select {
	case d := <-r.got:
		if d.ID != "abc" {
			t.Errorf("recorded %q", d.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disc not recorded")
	}
}
