package musicbrainz

import "strings"

// ArtistCredit is one name in an artist credit list.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

// Credits joins an artist credit list into a display string.
func Credits(credits []ArtistCredit) string {
	var b strings.Builder
	for _, c := range credits {
		b.WriteString(c.Name)
		b.WriteString(c.JoinPhrase)
	}
	return b.String()
}

// MediumDisc references a disc id attached to a medium.
type MediumDisc struct {
	ID      string `json:"id"`
	Sectors int    `json:"sectors"`
}

// Track 曲目
type Track struct {
	Position     int            `json:"position"`
	Title        string         `json:"title"`
	Length       int64          `json:"length"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Recording    struct {
		Title string `json:"title"`
	} `json:"recording"`
}

// Medium is one disc of a release.
type Medium struct {
	Position   int          `json:"position"`
	Format     string       `json:"format"`
	TrackCount int          `json:"track-count"`
	Discs      []MediumDisc `json:"discs"`
	Tracks     []Track      `json:"tracks"`
}

// Release 发行版本
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Medium       `json:"media"`
}

// StubTrack is a track of a user-submitted CD stub.
type StubTrack struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Length int64  `json:"length"`
}

// DiscIDResult is the ws/2 discid response. A matched disc fills the disc
// fields and Releases; a CD stub fills Title, Artist and Tracks instead.
type DiscIDResult struct {
	ID          string    `json:"id"`
	OffsetCount int       `json:"offset-count"`
	Offsets     []int     `json:"offsets"`
	Sectors     int       `json:"sectors"`
	Releases    []Release `json:"releases"`

	Title      string      `json:"title"`
	Artist     string      `json:"artist"`
	TrackCount int         `json:"track-count"`
	Tracks     []StubTrack `json:"tracks"`
}

// IsDisc reports whether the response describes a matched disc.
func (r *DiscIDResult) IsDisc() bool {
	return r.OffsetCount > 0 && len(r.Offsets) > 0 && r.Sectors > 0
}

// IsStub reports whether the response is a CD stub.
func (r *DiscIDResult) IsStub() bool {
	return !r.IsDisc() && len(r.Tracks) > 0
}

// LeadOutOffsets returns the track offsets followed by the lead-out sector.
func (r *DiscIDResult) LeadOutOffsets() []int {
	offsets := make([]int, 0, len(r.Offsets)+1)
	offsets = append(offsets, r.Offsets...)
	return append(offsets, r.Sectors)
}

// MatchRelease finds the first release carrying the disc and the medium it is
// on. ok is false when no medium lists the disc id.
func (r *DiscIDResult) MatchRelease() (release *Release, medium *Medium, ok bool) {
	for i := range r.Releases {
		rel := &r.Releases[i]
		for j := range rel.Media {
			m := &rel.Media[j]
			for _, d := range m.Discs {
				if d.ID == r.ID {
					return rel, m, true
				}
			}
		}
	}
	return nil, nil, false
}
