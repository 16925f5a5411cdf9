// Package bif reads and writes BIF (Base Index Frames) preview archives,
// the binary format Plex and Roku clients consume for scrub previews.
//
// Layout (all integers little-endian):
//
//	0x00  8-byte magic 89 42 49 46 0D 0A 1A 0A
//	0x08  uint32 version (0)
//	0x0C  uint32 frame count
//	0x10  uint32 frame interval in milliseconds
//	0x14  44 bytes reserved (zero), header is 64 bytes total
//	0x40  index table: (uint32 timestamp, uint32 offset) per frame,
//	      ascending timestamp order, followed by a sentinel entry with
//	      timestamp 0xFFFFFFFF and offset pointing at end of file
//	      concatenated frame images follow
package bif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Magic identifies a BIF archive.
var Magic = [8]byte{0x89, 0x42, 0x49, 0x46, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	// Version is the only format version in the wild.
	Version = 0
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 64
	// SentinelTimestamp terminates the index table.
	SentinelTimestamp = 0xFFFFFFFF

	entrySize = 8
)

// EncodeError reports a failure to assemble an archive.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("bif encode failed for %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Frame is one preview image with its timestamp in interval units.
type Frame struct {
	Timestamp uint32
	Data      []byte
}

// Archive is a decoded BIF file.
type Archive struct {
	IntervalMS uint32
	Frames     []Frame
}

// Encode writes an archive containing the given frames, assumed to already
// be in ascending timestamp order, with the interval stated in milliseconds.
func Encode(w io.Writer, frames []Frame, intervalMS uint32) error {
	header := make([]byte, HeaderSize)
	copy(header, Magic[:])
	binary.LittleEndian.PutUint32(header[8:], Version)
	binary.LittleEndian.PutUint32(header[12:], uint32(len(frames)))
	binary.LittleEndian.PutUint32(header[16:], intervalMS)
	if _, err := w.Write(header); err != nil {
		return err
	}

	tableSize := entrySize + entrySize*len(frames)
	offset := uint32(HeaderSize + tableSize)

	table := make([]byte, tableSize)
	pos := 0
	for _, f := range frames {
		binary.LittleEndian.PutUint32(table[pos:], f.Timestamp)
		binary.LittleEndian.PutUint32(table[pos+4:], offset)
		offset += uint32(len(f.Data))
		pos += entrySize
	}
	binary.LittleEndian.PutUint32(table[pos:], SentinelTimestamp)
	binary.LittleEndian.PutUint32(table[pos+4:], offset)
	if _, err := w.Write(table); err != nil {
		return err
	}

	for _, f := range frames {
		if _, err := w.Write(f.Data); err != nil {
			return err
		}
	}
	return nil
}

// EncodeDir assembles the JPEG frames under frameDir into a BIF archive at
// outPath. Filenames are zero-padded timestamps, so lexicographic order is
// chronological; frame k is assigned timestamp k in interval units. On any
// failure the partially written file is left for the caller to discard.
func EncodeDir(outPath, frameDir string, intervalMS uint32) error {
	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return &EncodeError{Path: outPath, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	frames := make([]Frame, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(frameDir, name))
		if err != nil {
			return &EncodeError{Path: outPath, Err: err}
		}
		frames = append(frames, Frame{Timestamp: uint32(i), Data: data})
	}

	f, err := os.Create(outPath)
	if err != nil {
		return &EncodeError{Path: outPath, Err: err}
	}
	if err := Encode(f, frames, intervalMS); err != nil {
		f.Close()
		return &EncodeError{Path: outPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &EncodeError{Path: outPath, Err: err}
	}
	return nil
}

// Decode reads a complete BIF archive and validates its structure.
func Decode(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderSize+entrySize {
		return nil, fmt.Errorf("bif: truncated archive (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:8], Magic[:]) {
		return nil, fmt.Errorf("bif: bad magic")
	}
	if v := binary.LittleEndian.Uint32(data[8:]); v != Version {
		return nil, fmt.Errorf("bif: unsupported version %d", v)
	}

	count := binary.LittleEndian.Uint32(data[12:])
	arc := &Archive{IntervalMS: binary.LittleEndian.Uint32(data[16:])}

	tableEnd := HeaderSize + entrySize*int(count)
	if len(data) < tableEnd+entrySize {
		return nil, fmt.Errorf("bif: index table extends past end of file")
	}

	offsets := make([]uint32, 0, count+1)
	for i := 0; i < int(count); i++ {
		pos := HeaderSize + i*entrySize
		arc.Frames = append(arc.Frames, Frame{
			Timestamp: binary.LittleEndian.Uint32(data[pos:]),
		})
		offsets = append(offsets, binary.LittleEndian.Uint32(data[pos+4:]))
	}

	if ts := binary.LittleEndian.Uint32(data[tableEnd:]); ts != SentinelTimestamp {
		return nil, fmt.Errorf("bif: missing sentinel entry")
	}
	end := binary.LittleEndian.Uint32(data[tableEnd+4:])
	if int(end) != len(data) {
		return nil, fmt.Errorf("bif: sentinel offset %d does not match file size %d", end, len(data))
	}
	offsets = append(offsets, end)

	for i := range arc.Frames {
		// Offsets are strictly increasing: a zero-length payload is malformed.
		if offsets[i+1] <= offsets[i] || int(offsets[i+1]) > len(data) {
			return nil, fmt.Errorf("bif: frame offsets not strictly increasing")
		}
		arc.Frames[i].Data = data[offsets[i]:offsets[i+1]]
	}
	return arc, nil
}
