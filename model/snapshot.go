package model

// Status is the coarse player status shown to clients.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusWaiting Status = "waiting"
)

// InfoRequest selects which fields a Snapshot carries.
type InfoRequest struct {
	Status    bool
	Track     bool
	Volume    bool
	TrackList bool
	Library   bool
}

// DefaultInfo is the cheap status-only request used by the polling loop.
var DefaultInfo = InfoRequest{Status: true, Track: true, Volume: true}

// FullInfo requests every field.
var FullInfo = InfoRequest{Status: true, Track: true, Volume: true, TrackList: true, Library: true}

// Snapshot is a point-in-time read of the session, serialized to clients as a
// flat mapping. Nil fields were not requested or not available.
type Snapshot struct {
	Status       Status         `json:"status,omitempty"`
	CurrentTrack *int           `json:"currentTrack,omitempty"`
	Title        string         `json:"title,omitempty"`
	Artist       string         `json:"artist,omitempty"`
	Album        string         `json:"album,omitempty"`
	Elapsed      *int64         `json:"elapsed,omitempty"` // milliseconds into the current track
	Duration     *int64         `json:"duration,omitempty"`
	Volume       *int           `json:"volume,omitempty"`
	DiscType     DiscType       `json:"discType,omitempty"`
	TrackList    []Track        `json:"trackList,omitempty"`
	Library      []LibraryEntry `json:"library,omitempty"`
}

// Waiting builds the snapshot used when no session is active.
func Waiting(volume int) Snapshot {
	return Snapshot{Status: StatusWaiting, Volume: &volume}
}
