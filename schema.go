package cube

import (
	"errors"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

// TileRecord is the struct-tag-driven description of what one tile "file"
// looks like as a TileDB array. It plays the same role the corpus's
// sensor-record structs (e.g. SwathBathySummary) play for
// CreateAttr/schemaAttrs, just with two attributes instead of dozens:
// Payload carries the exact byte layout produced by encodeTile, and
// Version lets a reader sanity-check the array without first decoding
// Payload.
//
// Tags mirror the corpus's tiledb.go: dtype is the TileDB datatype,
// ftype is either "dim" or "attr", and "var" marks variable-length
// attributes.
type TileRecord struct {
	Payload []uint8 `tiledb:"dtype=uint8,ftype=attr,var=true" filters:"zstd(level=16)"`
	Version uint8   `tiledb:"dtype=uint8,ftype=attr"`
}

// zstdFilter is the one compression filter every tile attribute uses.
// Grounded on the corpus's tiledb.go ZstdFilter helper.
func zstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}

	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// createTileAttr creates one TileDB attribute on schema from a TileRecord
// field, driven by its struct tags. Generalised from the corpus's
// CreateAttr (tiledb.go), trimmed to the subset of datatypes/filters the
// tile payload actually needs (uint8, optionally variable-length, zstd).
func createTileAttr(
	fieldName string,
	filterDefs []stgpsr.Definition,
	tiledbDefs map[string]stgpsr.Definition,
	schema *tiledb.ArraySchema,
	ctx *tiledb.Context,
) error {
	def, ok := tiledbDefs["dtype"]
	if !ok {
		return errors.Join(ErrCreateAttributeTdb, errors.New("dtype tag not found"))
	}
	dtype, _ := def.Attribute("dtype")

	var tdbDtype tiledb.Datatype
	switch dtype {
	case "uint8":
		tdbDtype = tiledb.TILEDB_UINT8
	default:
		return errors.Join(ErrDtype, errors.New(dtype.(string)))
	}

	attrFilters, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}
	defer attrFilters.Free()

	for _, filter := range filterDefs {
		if filter.Name() != "zstd" {
			continue
		}
		level, ok := filter.Attribute("level")
		if !ok {
			return errors.Join(ErrCreateAttributeTdb, errors.New("zstd level not defined"))
		}
		filt, err := zstdFilter(ctx, int32(level.(int64)))
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}
		defer filt.Free()
		if err := attrFilters.AddFilter(filt); err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, tdbDtype)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}
	defer attr.Free()

	if _, isVar := tiledbDefs["var"]; isVar {
		if err := attr.SetCellValNum(tiledb.TILEDB_VAR_NUM); err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	if err := attr.SetFilterList(attrFilters); err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}

	if err := schema.AddAttributes(attr); err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}

	return nil
}

// tileRecordAttrs adds every exported TileRecord field as a TileDB
// attribute on schema, driven by struct tags. Grounded on the corpus's
// schemaAttrs (schema.go).
func tileRecordAttrs(schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	var rec TileRecord
	values := reflect.ValueOf(&rec).Elem()
	types := values.Type()

	filtDefs, _ := stgpsr.ParseStruct(&rec, "filters")
	tdbDefs, _ := stgpsr.ParseStruct(&rec, "tiledb")

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		fieldTdbDefs := make(map[string]stgpsr.Definition)
		for _, v := range tdbDefs[name] {
			fieldTdbDefs[v.Name()] = v
		}

		if err := createTileAttr(name, filtDefs[name], fieldTdbDefs, schema, ctx); err != nil {
			return err
		}
	}

	return nil
}

// newTileArraySchema builds the single-cell dense array schema shared by
// every tile "file" in the backing store: one fixed dimension with domain
// [0, 0] (a tile is always exactly one cell; Payload/Version carry its
// full content), Payload and Version as attributes.
func newTileArraySchema(ctx *tiledb.Context) (*tiledb.ArraySchema, error) {
	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		schema.Free()
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}
	defer domain.Free()

	dim, err := tiledb.NewDimension(ctx, "cell", tiledb.TILEDB_INT32, []int32{0, 0}, int32(1))
	if err != nil {
		schema.Free()
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}
	defer dim.Free()

	if err := domain.AddDimensions(dim); err != nil {
		schema.Free()
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	if err := schema.SetDomain(domain); err != nil {
		schema.Free()
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	if err := tileRecordAttrs(schema, ctx); err != nil {
		schema.Free()
		return nil, err
	}

	return schema, nil
}
