package disc

import "errors"

// Identification failure kinds. Identify wraps one of these so callers can tell
// degradation causes apart with errors.Is; the returned Disc is empty in every case.
var (
	// ErrDeviceAbsent: no drive, no disc, or the TOC could not be read.
	ErrDeviceAbsent = errors.New("disc: device absent")
	// ErrServiceUnavailable: the metadata lookup failed or was inconclusive.
	ErrServiceUnavailable = errors.New("disc: metadata service unavailable")
	// ErrMalformedResponse: offsets from the service or the fallback tool did
	// not yield a usable track list.
	ErrMalformedResponse = errors.New("disc: malformed response")
)
