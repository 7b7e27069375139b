package ingest

import (
	"bytes"
	"errors"
	"io"
	"testing"

	cube "github.com/seafloor-cube/go-cube"
)

func TestWriteReadSoundingRoundTrip(t *testing.T) {
	want := cube.Sounding{
		East:     103.5,
		North:    205.25,
		Depth:    -12.75,
		HzUncert: 0.3,
		VtUncert: 0.2,
		Meta:     []byte("ping-123"),
	}

	var buf bytes.Buffer
	if err := WriteSounding(&buf, want); err != nil {
		t.Fatalf("WriteSounding: %v", err)
	}

	got, err := ReadSounding(NewMemoryStream(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadSounding: %v", err)
	}

	if got.East != want.East || got.North != want.North || got.Depth != want.Depth {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !bytes.Equal(got.Meta, want.Meta) {
		t.Errorf("Meta = %q, want %q", got.Meta, want.Meta)
	}
}

func TestReadSoundingWithoutMeta(t *testing.T) {
	want := cube.Sounding{East: 1, North: 2, Depth: -3, HzUncert: 0.1, VtUncert: 0.1}

	var buf bytes.Buffer
	if err := WriteSounding(&buf, want); err != nil {
		t.Fatalf("WriteSounding: %v", err)
	}

	got, err := ReadSounding(NewMemoryStream(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadSounding: %v", err)
	}
	if len(got.Meta) != 0 {
		t.Errorf("Meta = %q, want empty", got.Meta)
	}
}

func TestReadBatchStopsAtEOF(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		s := cube.Sounding{East: float64(i), North: float64(i), Depth: -1.0, HzUncert: 0.1, VtUncert: 0.1}
		if err := WriteSounding(&buf, s); err != nil {
			t.Fatalf("WriteSounding: %v", err)
		}
	}

	batch, err := ReadBatch(NewMemoryStream(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("got %d soundings, want 3", len(batch))
	}
	for i, s := range batch {
		if s.East != float64(i) {
			t.Errorf("batch[%d].East = %v, want %v", i, s.East, i)
		}
	}
}

func TestReadSoundingTruncatedMetaReturnsErrShortMeta(t *testing.T) {
	s := cube.Sounding{East: 1, North: 2, Depth: -3, HzUncert: 0.1, VtUncert: 0.1, Meta: []byte("0123456789")}

	var buf bytes.Buffer
	if err := WriteSounding(&buf, s); err != nil {
		t.Fatalf("WriteSounding: %v", err)
	}

	truncated := buf.Bytes()[:len(buf.Bytes())-5]

	_, err := ReadSounding(NewMemoryStream(truncated))
	if !errors.Is(err, ErrShortMeta) && !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want ErrShortMeta or io.ErrUnexpectedEOF", err)
	}
}

func TestTell(t *testing.T) {
	s := NewMemoryStream([]byte("abcdef"))

	pos, err := Tell(s)
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if pos != 0 {
		t.Fatalf("Tell at start = %d, want 0", pos)
	}

	buf := make([]byte, 3)
	if _, err := s.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	pos, err = Tell(s)
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if pos != 3 {
		t.Fatalf("Tell after reading 3 bytes = %d, want 3", pos)
	}
}
