package disc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestParseDiscIDOutput(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantTracks  int
		wantOffsets []int
		wantErr     bool
	}{
		{
			name:        "musicbrainz format",
			output:      "3 150 3150 7150 10150\n",
			wantTracks:  3,
			wantOffsets: []int{150, 3150, 7150, 10150},
		},
		{
			name:        "extra whitespace",
			output:      "  2\t150   20000 40000 ",
			wantTracks:  2,
			wantOffsets: []int{150, 20000, 40000},
		},
		{name: "empty", output: "", wantErr: true},
		{name: "bad count", output: "x 150 300", wantErr: true},
		{name: "negative count", output: "-1 150", wantErr: true},
		{name: "bad offset", output: "2 150 abc 600", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, offsets, err := ParseDiscIDOutput(tt.output)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("err = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.wantTracks {
				t.Errorf("tracks = %d, want %d", n, tt.wantTracks)
			}
			if !reflect.DeepEqual(offsets, tt.wantOffsets) {
				t.Errorf("offsets = %v, want %v", offsets, tt.wantOffsets)
			}
		})
	}
}

func TestCDDiscIDTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "cd-discid")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	tool := CDDiscID{Path: script, Device: "/dev/null", Timeout: 100 * time.Millisecond}
	start := time.Now()
	if _, err := tool.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded for a hung command")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run returned after %v, want about 100ms", elapsed)
	}
}

func TestCDDiscIDOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "cd-discid")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"2 150 300 450\"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	out, err := CDDiscID{Path: script, Device: "/dev/null", Timeout: time.Second}.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "2 150 300 450\n" {
		t.Errorf("output = %q", out)
	}
}
