package grid

// Region is a rectangular box of grid points to sample. Origin is in
// fractional coordinates; Size and Translation are in grid points. The
// translation is applied after the origin resolves to indices, so a
// fixed-size box can be swept across the grid without recomputing fractional
// coordinates.
type Region struct {
	Origin      [3]float64
	Size        [3]int
	Translation [3]int
}

// Sample holds the statistics of one sampled region.
type Sample struct {
	Mean     float64
	Variance float64 // population variance, never negative
	N        int     // number of grid points sampled
}

// SampleRegion computes the mean and variance of the field over the box
// described by reg. Indices past a face wrap around to the opposite one, so
// a box straddling the cell boundary is sampled correctly. Read-only; safe
// to call concurrently with any other query on the same Field.
func (f *Field) SampleRegion(reg Region) (Sample, error) {
	for k := 0; k < 3; k++ {
		if reg.Size[k] <= 0 || reg.Size[k] > f.N[k] {
			return Sample{}, &InvalidRegionError{Axis: k, Size: reg.Size[k], Dim: f.N[k]}
		}
	}

	bx, by, bz := f.Index(reg.Origin)
	bx += reg.Translation[0]
	by += reg.Translation[1]
	bz += reg.Translation[2]

	// Running sum and sum of squares in float64 keeps the error bounded for
	// boxes of 1e7 points even when the stored field is low precision.
	var sum, sumSq float64
	for z := 0; z < reg.Size[2]; z++ {
		for y := 0; y < reg.Size[1]; y++ {
			for x := 0; x < reg.Size[0]; x++ {
				v := f.At(bx+x, by+y, bz+z)
				sum += v
				sumSq += v * v
			}
		}
	}

	n := float64(reg.Size[0] * reg.Size[1] * reg.Size[2])
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 { // floating-point cancellation
		variance = 0
	}

	return Sample{Mean: mean, Variance: variance, N: int(n)}, nil
}
