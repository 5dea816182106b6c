package model

// SectorsPerSecond is the fixed audio-CD addressing rate.
const SectorsPerSecond = 75

// MaxTracks is the Red Book track limit.
const MaxTracks = 99

// DiscType classifies inserted media.
type DiscType string

const (
	DiscTypeNone  DiscType = ""
	DiscTypeAudio DiscType = "audio_cd"
	DiscTypeMP3   DiscType = "mp3_cd"
)

// TrackSource records where a Disc's track boundaries came from.
type TrackSource string

const (
	SourceMusicBrainz TrackSource = "musicbrainz"
	SourceCDStub      TrackSource = "cdstub"
	SourceCDDiscID    TrackSource = "cd-discid"
	SourceTOC         TrackSource = "toc"
)

// Track is one entry of a Disc's track list. Immutable once built.
type Track struct {
	Index    int    `json:"index"`
	Duration int64  `json:"duration"` // milliseconds
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Disc is the result of one identification. A new Disc replaces the previous
// one wholesale; it is never mutated after construction.
type Disc struct {
	ID        string      `json:"id,omitempty"`
	ReleaseID string      `json:"releaseId,omitempty"`
	Artist    string      `json:"artist,omitempty"`
	Album     string      `json:"album,omitempty"`
	Source    TrackSource `json:"source,omitempty"`
	Tracks    []Track     `json:"tracks"`
}

// NumTracks returns the track count.
func (d Disc) NumTracks() int {
	return len(d.Tracks)
}

// TrackLengths returns the per-track durations in milliseconds.
func (d Disc) TrackLengths() []int64 {
	lengths := make([]int64, len(d.Tracks))
	for i, t := range d.Tracks {
		lengths[i] = t.Duration
	}
	return lengths
}

// Empty reports whether the disc has no tracks.
func (d Disc) Empty() bool {
	return len(d.Tracks) == 0
}

// Type classifies the disc. Single-track media is a data disc and is never
// treated as playable audio.
func (d Disc) Type() DiscType {
	switch {
	case len(d.Tracks) > 1:
		return DiscTypeAudio
	case len(d.Tracks) == 1:
		return DiscTypeMP3
	default:
		return DiscTypeNone
	}
}

// IsAudio reports whether the disc qualifies for audio playback.
func (d Disc) IsAudio() bool {
	return d.Type() == DiscTypeAudio
}

// ElapsedBefore returns the summed duration of tracks 0..k-1 in milliseconds.
func (d Disc) ElapsedBefore(k int) int64 {
	if k > len(d.Tracks) {
		k = len(d.Tracks)
	}
	var total int64
	for i := 0; i < k; i++ {
		total += d.Tracks[i].Duration
	}
	return total
}

// DurationsFromOffsets converts n+1 sector offsets (the last one being the
// lead-out) into n track durations in milliseconds. ok is false unless there
// are exactly n+1 strictly increasing offsets for 1..MaxTracks tracks.
func DurationsFromOffsets(n int, offsets []int) (durations []int64, ok bool) {
	if n <= 0 || n > MaxTracks || n != len(offsets)-1 {
		return nil, false
	}
	durations = make([]int64, n)
	for i := 0; i < n; i++ {
		diff := offsets[i+1] - offsets[i]
		if diff <= 0 {
			return nil, false
		}
		durations[i] = int64(diff) * 1000 / SectorsPerSecond
	}
	return durations, true
}
