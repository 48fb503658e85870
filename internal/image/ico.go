package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/sydlexius/iconsmith/internal/icon"
)

// MaxICOSize is the largest edge an ICO directory entry can describe.
const MaxICOSize = 256

// ErrNoICOEntries is returned when no icon in the set fits in an ICO file.
var ErrNoICOEntries = errors.New("no icon sizes fit in an ICO container")

const (
	icoHeaderLen = 6
	icoEntryLen  = 16
)

type icoHeader struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

// EncodeICO writes every icon no larger than MaxICOSize into one ICO
// container with PNG-compressed entries. It returns the sizes written.
func EncodeICO(w io.Writer, set icon.Set) ([]int, error) {
	var (
		payloads [][]byte
		entries  []icoEntry
		written  []int
	)
	for _, ic := range set {
		if ic.Size > MaxICOSize {
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, ic.Image); err != nil {
			return nil, fmt.Errorf("encoding %dx%d entry: %w", ic.Size, ic.Size, err)
		}
		payloads = append(payloads, buf.Bytes())
		entries = append(entries, icoEntry{
			// 0 means 256 in the directory.
			Width:      uint8(ic.Size % MaxICOSize),
			Height:     uint8(ic.Size % MaxICOSize),
			Planes:     1,
			BitCount:   32,
			BytesInRes: uint32(buf.Len()),
		})
		written = append(written, ic.Size)
	}
	if len(entries) == 0 {
		return nil, ErrNoICOEntries
	}

	offset := uint32(icoHeaderLen + icoEntryLen*len(entries))
	for i := range entries {
		entries[i].Offset = offset
		offset += entries[i].BytesInRes
	}

	hdr := icoHeader{Type: 1, Count: uint16(len(entries))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("writing ico header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, entries); err != nil {
		return nil, fmt.Errorf("writing ico directory: %w", err)
	}
	for _, p := range payloads {
		if _, err := w.Write(p); err != nil {
			return nil, fmt.Errorf("writing ico payload: %w", err)
		}
	}
	return written, nil
}
