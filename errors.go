package cube

import (
	"errors"
)

// Fatal errors. Surfaced to the caller; after one of these the only defined
// behaviour is to call Finalise.
var ErrAlloc = errors.New("Error Allocating Hypothesis")
var ErrTileRead = errors.New("Error Reading Tile From Backing Store")
var ErrTileWrite = errors.New("Error Writing Tile To Backing Store")
var ErrMetaRead = errors.New("Error Reading Grid Metadata")
var ErrMetaWrite = errors.New("Error Writing Grid Metadata")
var ErrCreateTileTdb = errors.New("Error Creating Tile TileDB Array")
var ErrCreateSchemaTdb = errors.New("Error Creating TileDB Schema")
var ErrCreateAttributeTdb = errors.New("Error Creating TileDB Attribute")
var ErrSetBuff = errors.New("Error Setting TileDB Buffer")
var ErrDtype = errors.New("Error Slice Datatype Is Unexpected")
var ErrDims = errors.New("Error Dims Is > 2")

// Configuration errors. Detected at grid construction; no grid is created.
var ErrGridSpacing = errors.New("Error Grid Spacing Must Be Positive")
var ErrGridExtent = errors.New("Error Grid Extent Must Be Non-Empty")
var ErrTileSize = errors.New("Error Tile Size Must Be A Power Of Two")
var ErrCacheCapacity = errors.New("Error Cache Capacity Must Be At Least 1")
var ErrDisambiguator = errors.New("Error Unknown Disambiguation Policy")

// Input-domain errors. Never raised; a sounding failing one of these is
// silently skipped and counted by the assimilator.
var ErrOutsideGrid = errors.New("Error Sounding Outside Grid Extent")
var ErrNonPositiveUncertainty = errors.New("Error Sounding Uncertainty Is Non-Positive")
var ErrNonFiniteDepth = errors.New("Error Sounding Depth Is Not Finite")
