package ir

// Handles into the Module arenas. The zero value of each is the "no such entity" sentinel.
type (
	OpID     uint32
	ValueID  uint32
	BlockID  uint32
	RegionID uint32
)

// Invalid handle constants.
const (
	NoOp     OpID     = 0
	NoValue  ValueID  = 0
	NoBlock  BlockID  = 0
	NoRegion RegionID = 0
)

// IsValid returns true if the handle is not the zero sentinel.
func (id OpID) IsValid() bool     { return id != NoOp }
func (id ValueID) IsValid() bool  { return id != NoValue }
func (id BlockID) IsValid() bool  { return id != NoBlock }
func (id RegionID) IsValid() bool { return id != NoRegion }
