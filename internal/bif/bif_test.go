package bif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 3, 17} {
		t.Run(fmt.Sprintf("%d frames", n), func(t *testing.T) {
			frames := make([]Frame, n)
			for i := range frames {
				frames[i] = Frame{
					Timestamp: uint32(i),
					Data:      bytes.Repeat([]byte{byte(i + 1)}, 10+i*3),
				}
			}

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, frames, 5000))

			arc, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, uint32(5000), arc.IntervalMS)
			require.Len(t, arc.Frames, n)
			for i, f := range arc.Frames {
				assert.Equal(t, frames[i].Timestamp, f.Timestamp)
				assert.Equal(t, frames[i].Data, f.Data)
			}
		})
	}
}

func TestHeaderAndTableLayout(t *testing.T) {
	frames := []Frame{
		{Timestamp: 0, Data: []byte("aaaa")},
		{Timestamp: 1, Data: []byte("bb")},
		{Timestamp: 2, Data: []byte("cccccc")},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, frames, 5000))
	data := buf.Bytes()

	// Fixed 64-byte header.
	assert.Equal(t, Magic[:], data[:8])
	assert.Equal(t, uint32(Version), binary.LittleEndian.Uint32(data[8:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[12:]))
	assert.Equal(t, uint32(5000), binary.LittleEndian.Uint32(data[16:]))
	for _, b := range data[20:HeaderSize] {
		assert.Zero(t, b)
	}

	// Index table is 8 + 8N bytes; first entry points just past it.
	tableSize := 8 + 8*len(frames)
	firstOffset := binary.LittleEndian.Uint32(data[HeaderSize+4:])
	assert.Equal(t, uint32(HeaderSize+tableSize), firstOffset)

	// Offsets accumulate frame sizes and strictly increase.
	second := binary.LittleEndian.Uint32(data[HeaderSize+12:])
	third := binary.LittleEndian.Uint32(data[HeaderSize+20:])
	assert.Equal(t, firstOffset+4, second)
	assert.Equal(t, second+2, third)

	// Sentinel closes the table and equals total file size.
	sentinelPos := HeaderSize + 8*len(frames)
	assert.Equal(t, uint32(SentinelTimestamp), binary.LittleEndian.Uint32(data[sentinelPos:]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[sentinelPos+4:]))
}

func TestEmptyArchiveLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, 2000))

	// Header plus a lone sentinel entry.
	assert.Equal(t, HeaderSize+8, buf.Len())

	arc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, arc.Frames)
}

func TestEncodeDir(t *testing.T) {
	dir := t.TempDir()
	// Timestamp-named frames for a 5s interval, written out of order to
	// prove the encoder sorts lexicographically.
	for _, f := range []struct {
		name string
		data string
	}{
		{"0000000010.jpg", "frame-10"},
		{"0000000000.jpg", "frame-0"},
		{"0000000005.jpg", "frame-5"},
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.name), []byte(f.data), 0644))
	}
	// Non-frame files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	out := filepath.Join(t.TempDir(), "index-sd.bif")
	require.NoError(t, EncodeDir(out, dir, 5000))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	arc, err := Decode(f)
	require.NoError(t, err)
	require.Len(t, arc.Frames, 3)
	assert.Equal(t, uint32(5000), arc.IntervalMS)

	// Frame k carries timestamp k in interval units, chronological order.
	assert.Equal(t, []byte("frame-0"), arc.Frames[0].Data)
	assert.Equal(t, []byte("frame-5"), arc.Frames[1].Data)
	assert.Equal(t, []byte("frame-10"), arc.Frames[2].Data)
	for i, fr := range arc.Frames {
		assert.Equal(t, uint32(i), fr.Timestamp)
	}
}

func TestEncodeDirMissingDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "index-sd.bif")
	err := EncodeDir(out, "/nonexistent/frames", 5000)
	require.Error(t, err)

	var encErr *EncodeError
	assert.ErrorAs(t, err, &encErr)
}

func TestDecodeRejectsCorruptArchives(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []Frame{{Timestamp: 0, Data: []byte("abcd")}}, 1000))
	good := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte{}, good...)
		data[0] = 0x00
		_, err := Decode(bytes.NewReader(data))
		assert.Error(t, err)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(good[:len(good)-2]))
		assert.Error(t, err)
	})

	t.Run("zero-length frame payload", func(t *testing.T) {
		// Equal adjacent offsets mean an empty payload; offsets must
		// strictly increase.
		var empty bytes.Buffer
		require.NoError(t, Encode(&empty, []Frame{
			{Timestamp: 0, Data: []byte("abcd")},
			{Timestamp: 1, Data: nil},
		}, 1000))
		_, err := Decode(&empty)
		assert.ErrorContains(t, err, "strictly increasing")
	})

	t.Run("bad version", func(t *testing.T) {
		data := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(data[8:], 9)
		_, err := Decode(bytes.NewReader(data))
		assert.Error(t, err)
	})
}
