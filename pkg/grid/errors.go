package grid

import "fmt"

// MalformedHeaderError is returned when the header block of a volumetric
// file is structurally wrong: a missing field, a non-numeric value where a
// number is required, or an atom block shorter than the species counts
// declare.
type MalformedHeaderError struct {
	Line   int // 1-based line number of the offending line
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header (line %d): %s", e.Line, e.Reason)
}

// TruncatedDataError is returned when the input ends before NGX*NGY*NGZ
// values have been read.
type TruncatedDataError struct {
	Want int // values declared by the dimension line
	Got  int // values actually present
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("truncated data: %d values declared, %d present", e.Want, e.Got)
}

// ExtraDataError reports non-blank content after the declared value count.
// The usual cause is a second field block (spin channel or augmentation
// occupancies), which this reader ignores. It is logged, never returned as a
// failure.
type ExtraDataError struct {
	Token string // first surplus token
}

func (e *ExtraDataError) Error() string {
	return fmt.Sprintf("extra data after declared grid (first token %q): second channel ignored", e.Token)
}

// InvalidRegionError is returned by SampleRegion when a size component is
// not in [1, dimension of the axis]. A box larger than the periodic cell
// would count points twice.
type InvalidRegionError struct {
	Axis int // 0, 1 or 2
	Size int
	Dim  int
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region: size %d on axis %d (grid dimension %d)", e.Size, e.Axis, e.Dim)
}
