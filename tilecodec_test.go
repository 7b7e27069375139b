package cube

import "testing"

func TestEncodeDecodeTileRoundTrip(t *testing.T) {
	size := 4
	tile := newTile(8, 12, size)

	touched := tile.node(8, 12)
	touched.Hypotheses = []*Hypothesis{
		{CurrentMean: -20.2, CurrentVariance: 0.125, PredictedMean: -20.0, PredictedVariance: 0.25, CumulativeScore: 0.4, NUpdates: 2},
		{CurrentMean: -40.0, CurrentVariance: 0.25, PredictedMean: -40.0, PredictedVariance: 0.25, CumulativeScore: 0, NUpdates: 1},
	}
	touched.MonitorQueue = []float64{0.1, -0.2, 0.3}
	touched.NominalDepth = -20.0
	touched.HasNominalDepth = true

	encoded := encodeTile(tile)

	decoded, err := decodeTile(encoded, size)
	if err != nil {
		t.Fatalf("decodeTile: %v", err)
	}

	if decoded.RowOrigin != tile.RowOrigin || decoded.ColOrigin != tile.ColOrigin {
		t.Fatalf("origin mismatch: got (%d,%d), want (%d,%d)", decoded.RowOrigin, decoded.ColOrigin, tile.RowOrigin, tile.ColOrigin)
	}
	if len(decoded.Nodes) != len(tile.Nodes) {
		t.Fatalf("node count mismatch: got %d, want %d", len(decoded.Nodes), len(tile.Nodes))
	}

	got := decoded.node(8, 12)
	if len(got.Hypotheses) != 2 {
		t.Fatalf("got %d hypotheses, want 2", len(got.Hypotheses))
	}
	if !approxEqual(got.Hypotheses[0].CurrentMean, -20.2, 1e-4) {
		t.Errorf("CurrentMean = %v, want -20.2", got.Hypotheses[0].CurrentMean)
	}
	if !approxEqual(got.Hypotheses[0].CurrentVariance, 0.125, 1e-6) {
		t.Errorf("CurrentVariance = %v, want 0.125", got.Hypotheses[0].CurrentVariance)
	}
	if got.Hypotheses[1].NUpdates != 1 {
		t.Errorf("NUpdates = %v, want 1", got.Hypotheses[1].NUpdates)
	}
	if len(got.MonitorQueue) != 3 {
		t.Fatalf("got %d monitor entries, want 3", len(got.MonitorQueue))
	}

	untouchedSrc := tile.node(9, 13)
	untouchedGot := decoded.node(9, 13)
	if untouchedSrc.Touched() || untouchedGot.Touched() {
		t.Errorf("expected node (9,13) to remain untouched through the round trip")
	}
}

func TestDecodeTileRejectsUnsupportedVersion(t *testing.T) {
	tile := newTile(0, 0, 2)
	encoded := encodeTile(tile)
	encoded[12] = tileVersion + 1 // version byte follows row/col/count (4+4+4 bytes)

	if _, err := decodeTile(encoded, 2); err == nil {
		t.Fatalf("expected an error decoding an unsupported tile version")
	}
}

func TestTileByteSizeCoversEmptyTile(t *testing.T) {
	size := 16
	upperBound := tileByteSize(size, 4)

	tile := newTile(0, 0, size)
	encoded := encodeTile(tile)

	if len(encoded) > upperBound {
		t.Errorf("encoded empty tile is %d bytes, exceeds upper bound %d", len(encoded), upperBound)
	}
}
