package cube

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// writeMetaFile writes the grid's one-time descriptor to the backing
// store, ASCII key=value, one per line. Grounded on the corpus's
// json.go WriteJson (vfs.Open with TILEDB_VFS_WRITE), with a key=value
// body instead of a JSON one.
func writeMetaFile(vfs *tiledb.VFS, uri string, g *Grid, cfg *Config) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "version=%d\n", tileVersion)
	fmt.Fprintf(&buf, "rows=%d\n", g.Rows)
	fmt.Fprintf(&buf, "cols=%d\n", g.Cols)
	fmt.Fprintf(&buf, "node_spacing=%g\n", g.NodeSpacing)
	fmt.Fprintf(&buf, "origin_east=%g\n", g.OriginEast)
	fmt.Fprintf(&buf, "origin_north=%g\n", g.OriginNorth)
	fmt.Fprintf(&buf, "tile_size=%d\n", cfg.TileSize)
	fmt.Fprintf(&buf, "cache_capacity=%d\n", cfg.CacheCapacity)
	fmt.Fprintf(&buf, "disambiguator=%d\n", cfg.Disambiguator)
	fmt.Fprintf(&buf, "prior_variance=%g\n", cfg.PriorVariance)
	fmt.Fprintf(&buf, "t_match=%g\n", cfg.TMatch)
	fmt.Fprintf(&buf, "t_intervention=%g\n", cfg.TIntervention)
	fmt.Fprintf(&buf, "intervention_bias=%g\n", cfg.InterventionBias)
	fmt.Fprintf(&buf, "process_noise=%g\n", cfg.ProcessNoise)
	fmt.Fprintf(&buf, "footprint_radius_multiplier=%g\n", cfg.FootprintRadiusMultiplier)
	fmt.Fprintf(&buf, "local_slope=%g\n", cfg.LocalSlope)

	stream, err := vfs.Open(uri, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return errors.Join(ErrMetaWrite, err)
	}
	defer stream.Close()

	if _, err := stream.Write(buf.Bytes()); err != nil {
		return errors.Join(ErrMetaWrite, err)
	}

	return nil
}

// readMetaFile is the inverse of writeMetaFile.
func readMetaFile(vfs *tiledb.VFS, uri string) (*Grid, *Config, error) {
	stream, err := vfs.Open(uri, tiledb.TILEDB_VFS_READ)
	if err != nil {
		return nil, nil, errors.Join(ErrMetaRead, err)
	}
	defer stream.Close()

	size, err := vfs.FileSize(uri)
	if err != nil {
		return nil, nil, errors.Join(ErrMetaRead, err)
	}

	raw := make([]byte, size)
	if _, err := stream.Read(raw); err != nil {
		return nil, nil, errors.Join(ErrMetaRead, err)
	}

	kv := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, nil, errors.Join(ErrMetaRead, errors.New("Error Malformed Metadata Line: "+line))
		}
		kv[parts[0]] = parts[1]
	}

	g := &Grid{}
	cfg := &Config{}

	var err2 error
	g.Rows, err2 = parseIntKV(kv, "rows", err2)
	g.Cols, err2 = parseIntKV(kv, "cols", err2)
	g.NodeSpacing, err2 = parseFloatKV(kv, "node_spacing", err2)
	g.OriginEast, err2 = parseFloatKV(kv, "origin_east", err2)
	g.OriginNorth, err2 = parseFloatKV(kv, "origin_north", err2)
	cfg.TileSize, err2 = parseIntKV(kv, "tile_size", err2)
	cfg.CacheCapacity, err2 = parseIntKV(kv, "cache_capacity", err2)
	var disambiguator int
	disambiguator, err2 = parseIntKV(kv, "disambiguator", err2)
	cfg.Disambiguator = DisambiguationPolicy(disambiguator)
	cfg.PriorVariance, err2 = parseFloatKV(kv, "prior_variance", err2)
	cfg.TMatch, err2 = parseFloatKV(kv, "t_match", err2)
	cfg.TIntervention, err2 = parseFloatKV(kv, "t_intervention", err2)
	cfg.InterventionBias, err2 = parseFloatKV(kv, "intervention_bias", err2)
	cfg.ProcessNoise, err2 = parseFloatKV(kv, "process_noise", err2)
	cfg.FootprintRadiusMultiplier, err2 = parseFloatKV(kv, "footprint_radius_multiplier", err2)
	cfg.LocalSlope, err2 = parseFloatKV(kv, "local_slope", err2)

	if err2 != nil {
		return nil, nil, errors.Join(ErrMetaRead, err2)
	}

	return g, cfg, nil
}

func parseIntKV(kv map[string]string, key string, prevErr error) (int, error) {
	if prevErr != nil {
		return 0, prevErr
	}
	v, ok := kv[key]
	if !ok {
		return 0, errors.New("Error Missing Metadata Key: " + key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseFloatKV(kv map[string]string, key string, prevErr error) (float64, error) {
	if prevErr != nil {
		return 0, prevErr
	}
	v, ok := kv[key]
	if !ok {
		return 0, errors.New("Error Missing Metadata Key: " + key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return f, nil
}
