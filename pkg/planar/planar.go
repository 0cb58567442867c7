// Package planar calculates the planar average of a volumetric field along
// one lattice axis, and optionally its macroscopic average (a periodic
// moving average over a window of grid points).
package planar

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kpotier/ionpot/pkg/grid"
	"github.com/kpotier/ionpot/pkg/lattice"
	"github.com/kpotier/ionpot/pkg/util"

	"github.com/pelletier/go-toml"
)

// Type is the type of calculation.
var Type = "planar"

// Planar is a structure containing the parameters that can be parsed from a
// TOML configuration file. This structure can be instanced through the New
// method. Axis must be x, y or z. Window is the size in grid points of the
// macroscopic average; 0 disables it.
type Planar struct {
	FileIn  string `toml:"planar.file_in"`
	FileOut string `toml:"planar.file_out"`

	Axis   string `toml:"planar.axis"`
	Window int    `toml:"planar.window"`

	axis int
	log  *log.Logger
}

// New returns an instance of the Planar structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file. The
// logger receives the progress of the parse and may be nil.
func New(path string, l *log.Logger) (*Planar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p Planar
	dec := toml.NewDecoder(f)
	err = dec.Decode(&p)
	if err != nil {
		return nil, err
	}

	switch p.Axis {
	case "x":
		p.axis = 0
	case "y":
		p.axis = 1
	case "z":
		p.axis = 2
	default:
		return nil, fmt.Errorf("axis must be x, y or z (got %q)", p.Axis)
	}

	if p.Window < 0 {
		return nil, errors.New("Window cannot be lower than 0")
	}

	p.log = l
	return &p, nil
}

// Start performs the calculation. It is a thread blocking method.
func (p *Planar) Start() error {
	r := grid.Reader{Log: p.log}
	if p.log != nil {
		r.Progress = func(read, total int) {
			p.log.Printf("%s: %d/%d values", p.FileIn, read, total)
		}
	}

	field, err := r.ReadFile(p.FileIn)
	if err != nil {
		return fmt.Errorf("ReadFile: %w", err)
	}

	lengths, _, err := lattice.Geometry(field.Lattice)
	if err != nil {
		return fmt.Errorf("Geometry: %w", err)
	}

	if p.Window > field.N[p.axis] {
		return fmt.Errorf("Window is greater than the axis dimension (%d vs %d)", p.Window, field.N[p.axis])
	}

	avg := Average(field, p.axis)

	out, err := util.Write(p.FileOut, p)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	p.write(out, field, lengths, avg)
	return nil
}

// Average returns the planar average of the field along axis: for each index
// along the axis, the mean over the perpendicular plane.
func Average(f *grid.Field, axis int) []float64 {
	avg := make([]float64, f.N[axis])
	var idx [3]int
	a, b := (axis+1)%3, (axis+2)%3

	for i := 0; i < f.N[axis]; i++ {
		idx[axis] = i
		var sum float64
		for j := 0; j < f.N[a]; j++ {
			idx[a] = j
			for k := 0; k < f.N[b]; k++ {
				idx[b] = k
				sum += f.At(idx[0], idx[1], idx[2])
			}
		}
		avg[i] = sum / float64(f.N[a]*f.N[b])
	}

	return avg
}

// Macroscopic returns the periodic moving average of profile over window
// points centered on each index.
func Macroscopic(profile []float64, window int) []float64 {
	n := len(profile)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for w := 0; w < window; w++ {
			j := (i - window/2 + w) % n
			if j < 0 {
				j += n
			}
			sum += profile[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// write writes the results of this calculation into a file.
func (p *Planar) write(w io.Writer, f *grid.Field, lengths [3]float64, avg []float64) {
	fmt.Fprint(w, "pos avg")
	var macro []float64
	if p.Window > 0 {
		macro = Macroscopic(avg, p.Window)
		fmt.Fprint(w, " macro")
	}
	fmt.Fprint(w, "\n")

	step := lengths[p.axis] / float64(f.N[p.axis])
	for i, v := range avg {
		fmt.Fprint(w, float64(i)*step, " ", v)
		if macro != nil {
			fmt.Fprint(w, " ", macro[i])
		}
		fmt.Fprint(w, "\n")
	}
}
