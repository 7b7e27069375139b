package ingest

import (
	"encoding/binary"
	"errors"
	"io"

	cube "github.com/seafloor-cube/go-cube"
)

// ErrShortMeta is returned when a record's declared metadata length runs
// past the end of the stream.
var ErrShortMeta = errors.New("Error Truncated Sounding Metadata")

// ReadSounding decodes one framed sounding record off stream: a fixed
// header (recordHeaderSize bytes) followed by MetaLen bytes of opaque
// metadata, forwarded verbatim into cube.Sounding.Meta. Grounded on the
// corpus's DecodeRecordHdr followed by a variable-length payload read
// (record.go, ping.go).
func ReadSounding(s Stream) (cube.Sounding, error) {
	hdr, err := decodeRecordHeader(s)
	if err != nil {
		return cube.Sounding{}, err
	}

	var meta []byte
	if hdr.MetaLen > 0 {
		meta = make([]byte, hdr.MetaLen)
		n, err := io.ReadFull(toReader(s), meta)
		if err != nil {
			return cube.Sounding{}, errors.Join(ErrShortMeta, err)
		}
		if n != int(hdr.MetaLen) {
			return cube.Sounding{}, ErrShortMeta
		}
	}

	return cube.Sounding{
		East:     hdr.East,
		North:    hdr.North,
		Depth:    hdr.Depth,
		HzUncert: hdr.HzUncert,
		VtUncert: hdr.VtUncert,
		Meta:     meta,
	}, nil
}

// ReadBatch decodes every sounding record from stream in order, the
// order Assimilate must see them in for change-point detection to be
// reproducible.
func ReadBatch(s Stream) ([]cube.Sounding, error) {
	var batch []cube.Sounding

	for {
		sounding, err := ReadSounding(s)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return batch, err
		}
		batch = append(batch, sounding)
	}

	return batch, nil
}

// WriteSounding frames one sounding the way ReadSounding expects to read
// it back, little-endian. Useful for tests and for any upstream producer
// writing the stream format this package consumes.
func WriteSounding(w io.Writer, s cube.Sounding) error {
	hdr := recordHeader{
		East:     s.East,
		North:    s.North,
		Depth:    s.Depth,
		HzUncert: s.HzUncert,
		VtUncert: s.VtUncert,
		MetaLen:  uint16(len(s.Meta)),
	}

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if len(s.Meta) > 0 {
		if _, err := w.Write(s.Meta); err != nil {
			return err
		}
	}

	return nil
}

// toReader adapts a Stream to io.Reader; every Stream implementation in
// practice already satisfies io.Reader directly, this just documents the
// narrowing at the call site.
func toReader(s Stream) io.Reader {
	return s
}
