//go:build linux

package disc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linux/cdrom.h
const (
	cdromReadTOCHeader = 0x5305
	cdromReadTOCEntry  = 0x5306
	cdromDriveStatus   = 0x5326
	cdromLBA           = 0x01
	cdromLeadOut       = 0xAA
	cdromDataTrack     = 0x04
	cdsNoDisc          = 1
	cdsTrayOpen        = 2
	cdsDriveNotReady   = 3
	cdsDiscOK          = 4
)

type tocHeader struct {
	first uint8
	last  uint8
}

type tocEntry struct {
	track    uint8
	adrCtrl  uint8
	format   uint8
	_        uint8
	lba      int32
	dataMode uint8
	_        [3]uint8
}

// ReadTOC reads the table of contents from an optical drive through the
// CDROM ioctls.
func ReadTOC(device string) (TOC, error) {
	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return TOC{}, fmt.Errorf("open %s: %w", device, err)
	}
	defer unix.Close(fd)

	status, err := unix.IoctlRetInt(fd, cdromDriveStatus)
	if err != nil {
		return TOC{}, fmt.Errorf("drive status %s: %w", device, err)
	}
	switch status {
	case cdsDiscOK:
	case cdsNoDisc:
		return TOC{}, fmt.Errorf("%s: no disc", device)
	case cdsTrayOpen:
		return TOC{}, fmt.Errorf("%s: tray open", device)
	case cdsDriveNotReady:
		return TOC{}, fmt.Errorf("%s: drive not ready", device)
	default:
		return TOC{}, fmt.Errorf("%s: drive status %d", device, status)
	}

	var hdr tocHeader
	if err := ioctl(fd, cdromReadTOCHeader, unsafe.Pointer(&hdr)); err != nil {
		return TOC{}, fmt.Errorf("read toc header: %w", err)
	}

	toc := TOC{First: int(hdr.first), Last: int(hdr.last)}
	var data []bool
	for track := toc.First; track <= toc.Last; track++ {
		entry, err := readEntry(fd, uint8(track))
		if err != nil {
			return TOC{}, fmt.Errorf("read toc entry %d: %w", track, err)
		}
		toc.Offsets = append(toc.Offsets, int(entry.lba)+pregapSectors)
		data = append(data, entry.control()&cdromDataTrack != 0)
	}
	leadOut, err := readEntry(fd, cdromLeadOut)
	if err != nil {
		return TOC{}, fmt.Errorf("read lead-out: %w", err)
	}
	toc.LeadOut = int(leadOut.lba) + pregapSectors
	toc = toc.AudioSession(data)

	if !toc.Valid() {
		return TOC{}, fmt.Errorf("%s: inconsistent toc", device)
	}
	return toc, nil
}

// control is the upper nibble of the adr/ctrl bitfield byte.
func (e tocEntry) control() uint8 {
	return e.adrCtrl >> 4
}

func readEntry(fd int, track uint8) (tocEntry, error) {
	entry := tocEntry{track: track, format: cdromLBA}
	if err := ioctl(fd, cdromReadTOCEntry, unsafe.Pointer(&entry)); err != nil {
		return tocEntry{}, err
	}
	return entry, nil
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
