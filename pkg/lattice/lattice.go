// Package lattice derives physical lengths and directions from a 3x3
// lattice matrix.
package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerance below which a row magnitude, or the determinant relative to the
// product of the row magnitudes, is considered zero. In the length units of
// the matrix (Å).
const Tolerance = 1e-8

// Matrix is a lattice matrix: three row vectors in Å.
type Matrix [3][3]float64

// DegenerateLatticeError is returned when the lattice matrix cannot describe
// a periodic cell: a row vector is (near) zero or the rows are linearly
// dependent.
type DegenerateLatticeError struct {
	Row int     // offending row, or -1 if the rows are linearly dependent
	Det float64 // determinant, set when Row is -1
}

func (e *DegenerateLatticeError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("degenerate lattice: row %d has near-zero magnitude", e.Row)
	}
	return fmt.Sprintf("degenerate lattice: rows are linearly dependent (det %g)", e.Det)
}

// Geometry returns the Euclidean magnitude and the unit direction of each
// row vector of m. It is a pure function.
func Geometry(m Matrix) (lengths [3]float64, dirs [3][3]float64, err error) {
	for i := 0; i < 3; i++ {
		lengths[i] = math.Sqrt(m[i][0]*m[i][0] + m[i][1]*m[i][1] + m[i][2]*m[i][2])
		if !(lengths[i] > Tolerance) || math.IsInf(lengths[i], 0) {
			return lengths, dirs, &DegenerateLatticeError{Row: i}
		}
		for k := 0; k < 3; k++ {
			dirs[i][k] = m[i][k] / lengths[i]
		}
	}

	d := det(m)
	if math.Abs(d) <= Tolerance*lengths[0]*lengths[1]*lengths[2] {
		return lengths, dirs, &DegenerateLatticeError{Row: -1, Det: d}
	}

	return lengths, dirs, nil
}

// Resolution converts grid-point counts into the physical spacing along each
// axis (length / count).
func Resolution(lengths [3]float64, counts [3]int) [3]float64 {
	var res [3]float64
	for k := 0; k < 3; k++ {
		res[k] = lengths[k] / float64(counts[k])
	}
	return res
}

// Volume returns the cell volume |det m|.
func Volume(m Matrix) float64 {
	return math.Abs(det(m))
}

func det(m Matrix) float64 {
	d := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	return mat.Det(d)
}
