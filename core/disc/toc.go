package disc

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"
)

// pregapSectors is added to LBA addresses to obtain the absolute offsets used
// by MusicBrainz and cd-discid.
const pregapSectors = 150

// dataSessionGap is the lead-out plus lead-in that separates the audio
// session of an enhanced CD from its trailing data session.
const dataSessionGap = 11400

// mbEncoding is base64 with the URL-unsafe characters swapped the way
// MusicBrainz disc ids spell them.
var mbEncoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._").WithPadding('-')

// TOC is a disc's table of contents. Offsets holds the absolute start sector
// of tracks First..Last; LeadOut is the absolute sector after the last track.
type TOC struct {
	First   int
	Last    int
	Offsets []int
	LeadOut int
}

// NumTracks returns the number of tracks described.
func (t TOC) NumTracks() int {
	return len(t.Offsets)
}

// LeadOutOffsets returns the track offsets followed by the lead-out.
func (t TOC) LeadOutOffsets() []int {
	offsets := make([]int, 0, len(t.Offsets)+1)
	offsets = append(offsets, t.Offsets...)
	return append(offsets, t.LeadOut)
}

// Valid reports whether the TOC is internally consistent.
func (t TOC) Valid() bool {
	if t.First < 1 || t.Last < t.First || t.Last > 99 {
		return false
	}
	if len(t.Offsets) != t.Last-t.First+1 {
		return false
	}
	prev := 0
	for _, o := range t.LeadOutOffsets() {
		if o <= prev {
			return false
		}
		prev = o
	}
	return true
}

// AudioSession drops trailing data tracks and moves the lead-out back to the
// end of the audio session, which is how MusicBrainz identifies enhanced CDs.
// data[i] flags the track at Offsets[i]. A TOC without audio before its data
// tracks is returned unchanged.
func (t TOC) AudioSession(data []bool) TOC {
	if len(data) != len(t.Offsets) {
		return t
	}
	last := len(t.Offsets)
	for last > 0 && data[last-1] {
		last--
	}
	if last == 0 || last == len(t.Offsets) {
		return t
	}
	t.LeadOut = t.Offsets[last] - dataSessionGap
	t.Offsets = append([]int(nil), t.Offsets[:last]...)
	t.Last = t.First + last - 1
	return t
}

// DiscID computes the MusicBrainz disc identifier: SHA-1 over the hex-encoded
// first/last track numbers, lead-out and 99 offset slots.
func (t TOC) DiscID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02X", t.First)
	fmt.Fprintf(&b, "%02X", t.Last)
	fmt.Fprintf(&b, "%08X", t.LeadOut)
	for track := 1; track <= 99; track++ {
		offset := 0
		if i := track - t.First; track >= t.First && i < len(t.Offsets) {
			offset = t.Offsets[i]
		}
		fmt.Fprintf(&b, "%08X", offset)
	}
	sum := sha1.Sum([]byte(b.String()))
	return mbEncoding.EncodeToString(sum[:])
}
