package cube

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// encodeTile serialises a tile's node array to a fixed binary layout: a
// small fixed-size header (tile grid position, node count, version byte)
// followed by the node array in row-major order. Each node is encoded as
// n_hypotheses (u8), then per hypothesis five f32 fields (current_mean,
// current_variance, predicted_mean, predicted_variance, cumulative_score)
// and one u32 (n_updates), then the monitor queue length (u8) followed by
// the queue entries (f32 each). Nodes never touched are encoded as a
// single zero byte. Little-endian throughout.
func encodeTile(t *Tile) []byte {
	buf := new(bytes.Buffer)

	_ = binary.Write(buf, binary.LittleEndian, int32(t.RowOrigin))
	_ = binary.Write(buf, binary.LittleEndian, int32(t.ColOrigin))
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(t.Nodes)))
	_ = binary.Write(buf, binary.LittleEndian, tileVersion)

	for i := range t.Nodes {
		encodeNode(buf, &t.Nodes[i])
	}

	return buf.Bytes()
}

func encodeNode(buf *bytes.Buffer, n *Node) {
	if !n.Touched() {
		buf.WriteByte(0)
		return
	}

	_ = buf.WriteByte(uint8(len(n.Hypotheses)))
	for _, h := range n.Hypotheses {
		_ = binary.Write(buf, binary.LittleEndian, float32(h.CurrentMean))
		_ = binary.Write(buf, binary.LittleEndian, float32(h.CurrentVariance))
		_ = binary.Write(buf, binary.LittleEndian, float32(h.PredictedMean))
		_ = binary.Write(buf, binary.LittleEndian, float32(h.PredictedVariance))
		_ = binary.Write(buf, binary.LittleEndian, float32(h.CumulativeScore))
		_ = binary.Write(buf, binary.LittleEndian, h.NUpdates)
	}

	_ = buf.WriteByte(uint8(len(n.MonitorQueue)))
	for _, e := range n.MonitorQueue {
		_ = binary.Write(buf, binary.LittleEndian, float32(e))
	}
}

// decodeTile is the inverse of encodeTile, reconstructing a Tile from its
// persisted bytes. size is the tile's configured node-count-per-side,
// needed because the tile's node slice must be reshaped row-major
// regardless of how many nodes were actually touched.
func decodeTile(data []byte, size int) (*Tile, error) {
	r := bytes.NewReader(data)

	var rowOrigin, colOrigin int32
	var nodeCount uint32
	var version uint8

	if err := binary.Read(r, binary.LittleEndian, &rowOrigin); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &colOrigin); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	if version != tileVersion {
		return nil, errors.Join(ErrTileRead, errors.New("Error Unsupported Tile Wire Version"))
	}

	t := &Tile{
		RowOrigin: int(rowOrigin),
		ColOrigin: int(colOrigin),
		Size:      size,
		Nodes:     make([]Node, nodeCount),
	}

	for i := uint32(0); i < nodeCount; i++ {
		n, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		t.Nodes[i] = n
	}

	return t, nil
}

func decodeNode(r *bytes.Reader) (Node, error) {
	var n Node

	nHyp, err := r.ReadByte()
	if err != nil {
		return n, errors.Join(ErrTileRead, err)
	}
	if nHyp == 0 {
		return n, nil
	}

	n.Hypotheses = make([]*Hypothesis, nHyp)
	for i := 0; i < int(nHyp); i++ {
		h := new(Hypothesis)

		var mean, variance, predMean, predVariance, cumScore float32
		var nUpdates uint32

		for _, f := range []*float32{&mean, &variance, &predMean, &predVariance, &cumScore} {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return n, errors.Join(ErrTileRead, err)
			}
		}
		if err := binary.Read(r, binary.LittleEndian, &nUpdates); err != nil {
			return n, errors.Join(ErrTileRead, err)
		}

		h.CurrentMean = float64(mean)
		h.CurrentVariance = float64(variance)
		h.PredictedMean = float64(predMean)
		h.PredictedVariance = float64(predVariance)
		h.CumulativeScore = float64(cumScore)
		h.NUpdates = nUpdates

		n.Hypotheses[i] = h
	}

	queueLen, err := r.ReadByte()
	if err != nil {
		return n, errors.Join(ErrTileRead, err)
	}

	n.MonitorQueue = make([]float64, queueLen)
	for i := 0; i < int(queueLen); i++ {
		var e float32
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return n, errors.Join(ErrTileRead, err)
		}
		n.MonitorQueue[i] = float64(e)
	}

	return n, nil
}

// tileByteSize returns an upper bound on the encoded size of a fully
// populated tile of the given side length and maximum hypotheses per
// node, useful for pre-sizing buffers. Not part of the wire format
// itself.
func tileByteSize(size int, maxHypotheses int) int {
	header := 4 + 4 + 4 + 1
	perHyp := 4*5 + 4
	perNode := 1 + maxHypotheses*perHyp + 1 + MonitorQueueSize*4
	return header + size*size*perNode
}
