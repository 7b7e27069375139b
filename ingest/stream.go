// Package ingest frames and decodes a sounding stream from a file or
// object store, adapting the corpus's GSF record-framing idiom
// (record.go, reader.go, file.go) to a plain sounding wire contract
// instead of GSF records. It is a convenience adapter in front of
// cube.Container.Assimilate, not part of the core itself.
package ingest

import (
	"bytes"
	"encoding/binary"
)

// Stream caters for a generic reader type so soundings can be decoded
// either from a file on disk/object store or an in-memory byte buffer.
// Grounded directly on the corpus's reader.go Stream interface.
type Stream interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}

// Tell reports the current position within a stream, grounded on the
// corpus's file.go Tell helper.
func Tell(s Stream) (int64, error) {
	return s.Seek(0, 1)
}

// NewMemoryStream wraps an in-memory byte slice as a Stream, for callers
// that already hold the full soundings payload in RAM (mirrors the
// corpus's GenericStream in-memory branch).
func NewMemoryStream(data []byte) Stream {
	return bytes.NewReader(data)
}

// recordHeader is the fixed-size portion of one framed sounding record:
// east/north/depth as f64, hz/vt uncertainty as f32, and the length in
// bytes of the variable-length opaque metadata that follows. Mirrors the
// corpus's RecordHdr framing idiom (record.go) retargeted at this
// package's sounding input contract.
type recordHeader struct {
	East     float64
	North    float64
	Depth    float64
	HzUncert float32
	VtUncert float32
	MetaLen  uint16
}

const recordHeaderSize = 8 + 8 + 8 + 4 + 4 + 2

// decodeRecordHeader reads one fixed-size header off stream, little
// endian throughout.
func decodeRecordHeader(s Stream) (recordHeader, error) {
	var hdr recordHeader
	err := binary.Read(s, binary.LittleEndian, &hdr)
	return hdr, err
}
