package disc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Tool runs the external disc identification command.
type Tool interface {
	Run(ctx context.Context) (string, error)
}

// CDDiscID invokes `cd-discid --musicbrainz <device>`. A positive Timeout
// kills the command when it runs longer.
type CDDiscID struct {
	Path    string
	Device  string
	Timeout time.Duration
}

// Run returns the command's stdout; a non-zero exit is an error.
func (c CDDiscID) Run(ctx context.Context) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Path, "--musicbrainz", c.Device)
	cmd.WaitDelay = time.Second
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", c.Path, err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// ParseDiscIDOutput parses `trackCount offset1 … offsetN leadOut`. The
// returned offsets include the lead-out.
func ParseDiscIDOutput(output string) (numTracks int, offsets []int, err error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("%w: empty cd-discid output", ErrMalformedResponse)
	}

	numTracks, err = strconv.Atoi(fields[0])
	if err != nil || numTracks < 0 {
		return 0, nil, fmt.Errorf("%w: bad track count %q", ErrMalformedResponse, fields[0])
	}

	offsets = make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		o, err := strconv.Atoi(f)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: bad offset %q", ErrMalformedResponse, f)
		}
		offsets = append(offsets, o)
	}
	return numTracks, offsets, nil
}
