package metadata

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const (
	tagDateTime          = 0x0132
	tagExifIFDPointer    = 0x8769
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
)

// buildTIFF returns a little-endian TIFF stream whose IFD0 holds ifd0 and
// whose Exif sub-IFD holds exif. All values are written as ASCII.
func buildTIFF(ifd0, exif map[uint16]string) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	n0 := len(ifd0)
	if len(exif) > 0 {
		n0++
	}
	ifd0Off := 8
	exifOff := ifd0Off + ifdSize(n0)
	dataOff := exifOff
	if len(exif) > 0 {
		dataOff += ifdSize(len(exif))
	}

	var data bytes.Buffer
	writeIFD := func(buf *bytes.Buffer, tags map[uint16]string, extra map[uint16]uint32) {
		ids := make([]int, 0, len(tags)+len(extra))
		for id := range tags {
			ids = append(ids, int(id))
		}
		for id := range extra {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		binary.Write(buf, le, uint16(len(ids)))
		for _, id := range ids {
			if ptr, ok := extra[uint16(id)]; ok {
				binary.Write(buf, le, uint16(id))
				binary.Write(buf, le, uint16(4)) // LONG
				binary.Write(buf, le, uint32(1))
				binary.Write(buf, le, ptr)
				continue
			}
			val := append([]byte(tags[uint16(id)]), 0)
			binary.Write(buf, le, uint16(id))
			binary.Write(buf, le, uint16(2)) // ASCII
			binary.Write(buf, le, uint32(len(val)))
			if len(val) <= 4 {
				padded := make([]byte, 4)
				copy(padded, val)
				buf.Write(padded)
				continue
			}
			binary.Write(buf, le, uint32(dataOff+data.Len()))
			data.Write(val)
			if data.Len()%2 == 1 {
				data.WriteByte(0)
			}
		}
		binary.Write(buf, le, uint32(0))
	}

	var out bytes.Buffer
	out.WriteString("II")
	binary.Write(&out, le, uint16(42))
	binary.Write(&out, le, uint32(ifd0Off))

	var extra map[uint16]uint32
	if len(exif) > 0 {
		extra = map[uint16]uint32{tagExifIFDPointer: uint32(exifOff)}
	}
	writeIFD(&out, ifd0, extra)
	if len(exif) > 0 {
		writeIFD(&out, exif, nil)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

func box(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, uint32(size))
	b.WriteString(typ)
	for _, p := range payload {
		b.Write(p)
	}
	return b.Bytes()
}

func ftypBox() []byte {
	var p bytes.Buffer
	p.WriteString("isom")
	binary.Write(&p, binary.BigEndian, uint32(0x200))
	p.WriteString("isomiso2mp41")
	return box("ftyp", p.Bytes())
}

var identityMatrix = [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

// mvhdBox builds a version 0 movie header. Times are Unix seconds; zero is
// written as zero.
func mvhdBox(created, modified int64) []byte {
	be := binary.BigEndian
	var p bytes.Buffer
	binary.Write(&p, be, uint32(0)) // version + flags
	binary.Write(&p, be, isoTime(created))
	binary.Write(&p, be, isoTime(modified))
	binary.Write(&p, be, uint32(1000))       // timescale
	binary.Write(&p, be, uint32(5000))       // duration
	binary.Write(&p, be, uint32(0x00010000)) // rate
	binary.Write(&p, be, uint16(0x0100))     // volume
	binary.Write(&p, be, uint16(0))
	binary.Write(&p, be, [2]uint32{})
	binary.Write(&p, be, identityMatrix)
	binary.Write(&p, be, [6]uint32{})
	binary.Write(&p, be, uint32(2)) // next track ID
	return box("mvhd", p.Bytes())
}

func tkhdBox(created int64) []byte {
	be := binary.BigEndian
	var p bytes.Buffer
	binary.Write(&p, be, uint32(0x000003)) // version 0, enabled|in movie
	binary.Write(&p, be, isoTime(created))
	binary.Write(&p, be, isoTime(created))
	binary.Write(&p, be, uint32(1)) // track ID
	binary.Write(&p, be, uint32(0))
	binary.Write(&p, be, uint32(5000)) // duration
	binary.Write(&p, be, [2]uint32{})
	binary.Write(&p, be, int16(0)) // layer
	binary.Write(&p, be, int16(0)) // alternate group
	binary.Write(&p, be, int16(0)) // volume
	binary.Write(&p, be, uint16(0))
	binary.Write(&p, be, identityMatrix)
	binary.Write(&p, be, uint32(1920<<16))
	binary.Write(&p, be, uint32(1080<<16))
	return box("tkhd", p.Bytes())
}

func isoTime(unix int64) uint32 {
	if unix == 0 {
		return 0
	}
	return uint32(unix + isoEpochOffset)
}

// buildMP4 returns an ISO BMFF file with the given movie header times and,
// when trackCreated is non-zero, one track carrying that creation time.
func buildMP4(created, modified, trackCreated int64) []byte {
	moov := [][]byte{mvhdBox(created, modified)}
	if trackCreated != 0 {
		moov = append(moov, box("trak", tkhdBox(trackCreated)))
	}
	var out bytes.Buffer
	out.Write(ftypBox())
	out.Write(box("moov", moov...))
	out.Write(box("mdat", []byte("not really media")))
	return out.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
	return path
}
