package image

import (
	"encoding/binary"
	"fmt"
)

// JPEG marker bytes used while walking segments.
const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
	markerAPP0   = 0xE0
)

// jfifHeader is the identifier at the start of a JFIF APP0 payload.
var jfifHeader = []byte{'J', 'F', 'I', 'F', 0x00}

// StampDPI returns a copy of jpegData whose JFIF APP0 segment declares
// the given density in dots per inch. The standard library encoder emits
// no APP0 at all, in which case an 18-byte segment is inserted right
// after SOI; an existing JFIF segment has its density fields rewritten
// in place.
func StampDPI(jpegData []byte, dpi int) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != markerPrefix || jpegData[1] != markerSOI {
		return nil, fmt.Errorf("not a jpeg stream")
	}
	if dpi <= 0 || dpi > 0xFFFF {
		return nil, fmt.Errorf("dpi %d out of range", dpi)
	}

	// Existing JFIF APP0 directly after SOI: patch units and density.
	if pos, ok := findJFIF(jpegData); ok {
		// pos points at the segment marker (FF E0). Payload layout:
		// length(2) "JFIF\0"(5) version(2) units(1) Xdensity(2) Ydensity(2).
		body := pos + 4 + 5
		if body+7 > len(jpegData) {
			return nil, fmt.Errorf("truncated jfif segment")
		}
		out := make([]byte, len(jpegData))
		copy(out, jpegData)
		out[body+2] = 0x01 // density unit: dots per inch
		binary.BigEndian.PutUint16(out[body+3:], uint16(dpi))
		binary.BigEndian.PutUint16(out[body+5:], uint16(dpi))
		return out, nil
	}

	seg := make([]byte, 18)
	seg[0] = markerPrefix
	seg[1] = markerAPP0
	binary.BigEndian.PutUint16(seg[2:], 16) // segment length, marker excluded
	copy(seg[4:], jfifHeader)
	seg[9], seg[10] = 0x01, 0x02 // JFIF version 1.02
	seg[11] = 0x01               // density unit: dots per inch
	binary.BigEndian.PutUint16(seg[12:], uint16(dpi))
	binary.BigEndian.PutUint16(seg[14:], uint16(dpi))
	// thumbnail dimensions stay zero

	out := make([]byte, 0, len(jpegData)+len(seg))
	out = append(out, jpegData[:2]...)
	out = append(out, seg...)
	out = append(out, jpegData[2:]...)
	return out, nil
}

// ReadDPI extracts the declared density from a JFIF APP0 segment.
// It returns 0 when the stream carries no JFIF header or the density
// unit is not dots per inch.
func ReadDPI(jpegData []byte) int {
	pos, ok := findJFIF(jpegData)
	if !ok {
		return 0
	}
	body := pos + 4 + 5
	if body+7 > len(jpegData) {
		return 0
	}
	if jpegData[body+2] != 0x01 {
		return 0
	}
	return int(binary.BigEndian.Uint16(jpegData[body+3:]))
}

// findJFIF walks the segment chain from SOI looking for a JFIF APP0.
// The search stops at the first non-APPn marker since JFIF must precede
// the frame data.
func findJFIF(jpegData []byte) (int, bool) {
	if len(jpegData) < 4 || jpegData[0] != markerPrefix || jpegData[1] != markerSOI {
		return 0, false
	}
	pos := 2
	for pos+4 <= len(jpegData) {
		if jpegData[pos] != markerPrefix {
			return 0, false
		}
		marker := jpegData[pos+1]
		if marker < 0xE0 || marker > 0xEF {
			return 0, false
		}
		segLen := int(binary.BigEndian.Uint16(jpegData[pos+2:]))
		if marker == markerAPP0 && pos+4+len(jfifHeader) <= len(jpegData) &&
			string(jpegData[pos+4:pos+4+len(jfifHeader)]) == string(jfifHeader) {
			return pos, true
		}
		pos += 2 + segLen
	}
	return 0, false
}
