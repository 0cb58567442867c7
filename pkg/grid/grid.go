// Package grid reads plane-wave volumetric fields (LOCPOT/CHGCAR format)
// into memory and answers statistical queries over periodically wrapped
// regions of grid points.
package grid

import (
	"github.com/kpotier/ionpot/pkg/lattice"
)

// Field is a scalar field sampled on a regular NGX x NGY x NGZ grid over a
// periodic cell. Values are stored flat in the on-disk order: the first axis
// varies fastest. A Field is immutable once built and safe for concurrent
// readers.
type Field struct {
	N       [3]int // NGX, NGY, NGZ
	Values  []float64
	Lattice lattice.Matrix

	// Species and atom positions from the header, kept for reporting.
	Species []Species
	Atoms   int

	sum float64
}

// Species is one species-count pair from the header. Symbol may be empty
// for files without a symbol line.
type Species struct {
	Symbol string
	Count  int
}

// Points returns the total number of grid points.
func (f *Field) Points() int {
	return f.N[0] * f.N[1] * f.N[2]
}

// Sum returns the sum of all stored values, accumulated during the read.
func (f *Field) Sum() float64 {
	return f.sum
}

// CellAverage returns the discretized integral of the field on the VASP
// charge-density convention (the file stores rho times the cell volume, so
// the cell average of the values is the electron count). For a potential
// field it is simply the average potential. A sanity figure, not enforced
// against anything.
func (f *Field) CellAverage() float64 {
	return f.sum / float64(f.Points())
}

// wrap maps i into [0, n) with a true modulo: negative indices wrap forward,
// -1 -> n-1.
func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// At returns the value at (ix, iy, iz) after wrapping each index into its
// axis periodically. Any integer triple is valid: a window that runs past a
// face re-enters from the opposite one.
func (f *Field) At(ix, iy, iz int) float64 {
	ix = wrap(ix, f.N[0])
	iy = wrap(iy, f.N[1])
	iz = wrap(iz, f.N[2])
	return f.Values[ix+f.N[0]*(iy+f.N[1]*iz)]
}

// Index converts fractional coordinates into grid indices: each component is
// scaled by the axis point count and floored, then wrapped periodically, so
// inputs outside [0,1) resolve instead of erroring.
func (f *Field) Index(frac [3]float64) (ix, iy, iz int) {
	var idx [3]int
	for k := 0; k < 3; k++ {
		i := int(frac[k] * float64(f.N[k]))
		if float64(i) > frac[k]*float64(f.N[k]) { // floor, not truncate
			i--
		}
		idx[k] = wrap(i, f.N[k])
	}
	return idx[0], idx[1], idx[2]
}
