package cube

import (
	"errors"
	"fmt"
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// BackingStore is the on-disk (or object-store) persistence layer behind
// a tile cache. Grounded on the corpus's tiledb.go +
// file.go + search.go: a TileDB group plays the role of a directory, and
// one TileDB array per tile plays the role of one file per tile. Reads
// and writes of a tile are a single array Open/Query/Close sequence,
// which TileDB makes atomic at the array granularity.
type BackingStore struct {
	uri    string
	config *tiledb.Config
	ctx    *tiledb.Context
	vfs    *tiledb.VFS
}

// tiledbEnv centralises the corpus's repeated "generic config if no path
// provided" + NewContext + NewVFS boilerplate (search.go, file.go,
// json.go, cmd/main.go all duplicate this verbatim); factored into one
// helper here rather than copied a fifth time.
func tiledbEnv(configURI string) (*tiledb.Config, *tiledb.Context, *tiledb.VFS, error) {
	var (
		config *tiledb.Config
		err    error
	)

	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		config.Free()
		return nil, nil, nil, err
	}

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		ctx.Free()
		config.Free()
		return nil, nil, nil, err
	}

	return config, ctx, vfs, nil
}

// CreateBackingStore initialises a new, empty backing store at uri: a
// TileDB group plus the ASCII grid metadata object.
func CreateBackingStore(uri, configURI string, g *Grid, cfg *Config) (*BackingStore, error) {
	config, ctx, vfs, err := tiledbEnv(configURI)
	if err != nil {
		return nil, err
	}

	grp, err := tiledb.NewGroup(ctx, uri)
	if err != nil {
		return nil, errors.Join(ErrMetaWrite, err)
	}
	defer grp.Free()

	if err := grp.Create(); err != nil {
		return nil, errors.Join(ErrMetaWrite, err)
	}

	b := &BackingStore{uri: uri, config: config, ctx: ctx, vfs: vfs}

	if err := writeMetaFile(vfs, metaURI(uri), g, cfg); err != nil {
		return nil, err
	}

	return b, nil
}

// OpenBackingStore reopens a backing store previously created by
// CreateBackingStore, reading back the grid metadata that was written at
// construction time.
func OpenBackingStore(uri, configURI string) (*BackingStore, *Grid, *Config, error) {
	config, ctx, vfs, err := tiledbEnv(configURI)
	if err != nil {
		return nil, nil, nil, err
	}

	g, cfg, err := readMetaFile(vfs, metaURI(uri))
	if err != nil {
		return nil, nil, nil, err
	}

	b := &BackingStore{uri: uri, config: config, ctx: ctx, vfs: vfs}

	return b, g, cfg, nil
}

// Close releases the TileDB context, VFS and config handles. It performs
// no I/O beyond that; callers must Flush a TileCache before Close.
func (b *BackingStore) Close() error {
	b.vfs.Free()
	b.ctx.Free()
	b.config.Free()

	return nil
}

func metaURI(groupURI string) string {
	return filepath.Join(groupURI, "grid.meta")
}

func (b *BackingStore) tileURI(row, col int) string {
	return filepath.Join(b.uri, fmt.Sprintf("tile_%d_%d", row, col))
}

// tileExists reports whether a tile array has already been created for
// (row, col).
func (b *BackingStore) tileExists(row, col int) bool {
	isDir, err := b.vfs.IsDir(b.tileURI(row, col))
	if err != nil {
		return false
	}

	return isDir
}

// WriteTile persists a tile to the backing store, creating its array on
// first write. Failure here is treated as fatal by callers, whether the
// write happens during eviction or a mandatory flush.
func (b *BackingStore) WriteTile(t *Tile) error {
	uri := b.tileURI(t.RowOrigin, t.ColOrigin)

	if !b.tileExists(t.RowOrigin, t.ColOrigin) {
		if err := b.createTileArray(uri); err != nil {
			return errors.Join(ErrTileWrite, err)
		}
	}

	array, err := tiledb.NewArray(b.ctx, uri)
	if err != nil {
		return errors.Join(ErrTileWrite, err)
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrTileWrite, err)
	}
	defer array.Close()

	payload := encodeTile(t)
	version := []uint8{tileVersion}
	offsets := []uint64{0}

	query, err := tiledb.NewQuery(b.ctx, array)
	if err != nil {
		return errors.Join(ErrTileWrite, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrTileWrite, err)
	}

	subarray, err := array.NewSubarray()
	if err != nil {
		return errors.Join(ErrTileWrite, err)
	}
	defer subarray.Free()
	if err := subarray.AddRange(0, int32(0), int32(0)); err != nil {
		return errors.Join(ErrTileWrite, err)
	}
	if err := query.SetSubarray(subarray); err != nil {
		return errors.Join(ErrTileWrite, err)
	}

	if _, err := query.SetOffsetsBuffer("Payload", offsets); err != nil {
		return errors.Join(ErrSetBuff, err)
	}
	if _, err := query.SetDataBuffer("Payload", payload); err != nil {
		return errors.Join(ErrSetBuff, err)
	}
	if _, err := query.SetDataBuffer("Version", version); err != nil {
		return errors.Join(ErrSetBuff, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrTileWrite, err)
	}

	t.Dirty = false

	return nil
}

// ReadTile loads a tile from the backing store. size is the configured
// tile side length, needed to reshape the decoded node slice.
func (b *BackingStore) ReadTile(row, col, size int) (*Tile, error) {
	uri := b.tileURI(row, col)
	if !b.tileExists(row, col) {
		return newTile(row, col, size), nil
	}

	array, err := tiledb.NewArray(b.ctx, uri)
	if err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_READ); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	defer array.Close()

	query, err := tiledb.NewQuery(b.ctx, array)
	if err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	defer query.Free()

	subarray, err := array.NewSubarray()
	if err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	defer subarray.Free()
	if err := subarray.AddRange(0, int32(0), int32(0)); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}
	if err := query.SetSubarray(subarray); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}

	maxBytes := tileByteSize(size, 10)
	payload := make([]uint8, maxBytes)
	offsets := make([]uint64, 1)
	version := make([]uint8, 1)

	if _, err := query.SetOffsetsBuffer("Payload", offsets); err != nil {
		return nil, errors.Join(ErrSetBuff, err)
	}
	if _, err := query.SetDataBuffer("Payload", payload); err != nil {
		return nil, errors.Join(ErrSetBuff, err)
	}
	if _, err := query.SetDataBuffer("Version", version); err != nil {
		return nil, errors.Join(ErrSetBuff, err)
	}

	if err := query.Submit(); err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}

	results, err := query.ResultBufferElements()
	if err != nil {
		return nil, errors.Join(ErrTileRead, err)
	}

	nBytes := int(results["Payload"][1])

	t, err := decodeTile(payload[:nBytes], size)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (b *BackingStore) createTileArray(uri string) error {
	schema, err := newTileArraySchema(b.ctx)
	if err != nil {
		return errors.Join(ErrCreateTileTdb, err)
	}
	defer schema.Free()

	array, err := tiledb.NewArray(b.ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateTileTdb, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateTileTdb, err)
	}

	return nil
}
