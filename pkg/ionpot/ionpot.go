// Package ionpot calculates an ionisation potential: the average
// electrostatic potential inside a region of a material (a pore or void)
// minus the highest occupied eigenvalue.
package ionpot

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/kpotier/ionpot/pkg/bandedge"
	"github.com/kpotier/ionpot/pkg/grid"
	"github.com/kpotier/ionpot/pkg/lattice"
	"github.com/kpotier/ionpot/pkg/util"

	"github.com/pelletier/go-toml"
)

// Type is the type of calculation.
var Type = "ionpot"

// IonPot is a structure containing the parameters that can be parsed from a
// TOML configuration file. This structure can be instanced through the New
// method. Origin is in fractional coordinates; Size and Translation are in
// grid points. Size of Origin, Size and Translation must be equal to 3
// (Translation may be omitted).
type IonPot struct {
	FileIn     string `toml:"ionpot.file_in"`
	FileOutcar string `toml:"ionpot.file_outcar"`
	FileOut    string `toml:"ionpot.file_out"`

	Origin      []float64 `toml:"ionpot.origin"`
	Size        []int     `toml:"ionpot.size"`
	Translation []int     `toml:"ionpot.translation"`

	log *log.Logger
}

// New returns an instance of the IonPot structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file. The
// logger receives the progress of the parse and may be nil.
func New(path string, l *log.Logger) (*IonPot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p IonPot
	dec := toml.NewDecoder(f)
	err = dec.Decode(&p)
	if err != nil {
		return nil, err
	}

	if len(p.Origin) != 3 || len(p.Size) != 3 {
		return nil, errors.New("length of Origin or Size is not equal to 3")
	}

	if p.Translation == nil {
		p.Translation = []int{0, 0, 0}
	}
	if len(p.Translation) != 3 {
		return nil, errors.New("length of Translation is not equal to 3")
	}

	p.log = l
	return &p, nil
}

// Start performs the calculation. It is a thread blocking method. The parse
// of the volumetric file dominates the wall-clock time; the sampling itself
// is immediate.
func (p *IonPot) Start() error {
	field, err := p.read()
	if err != nil {
		return err
	}

	lengths, _, err := lattice.Geometry(field.Lattice)
	if err != nil {
		return fmt.Errorf("Geometry: %w", err)
	}

	if p.log != nil {
		res := lattice.Resolution(lengths, field.N)
		p.log.Printf("%s: grid %dx%dx%d, resolution %.4f %.4f %.4f Å, cell average %.6f",
			p.FileIn, field.N[0], field.N[1], field.N[2], res[0], res[1], res[2], field.CellAverage())
	}

	var reg grid.Region
	copy(reg.Origin[:], p.Origin)
	copy(reg.Size[:], p.Size)
	copy(reg.Translation[:], p.Translation)

	sample, err := field.SampleRegion(reg)
	if err != nil {
		return fmt.Errorf("SampleRegion: %w", err)
	}

	vbm, err := bandedge.VBM(p.FileOutcar)
	if err != nil {
		return fmt.Errorf("VBM: %w", err)
	}

	out, err := util.Write(p.FileOut, p)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	fmt.Fprintln(out, "mean variance n vbm ip")
	fmt.Fprintf(out, "%g %g %d %g %g\n", sample.Mean, sample.Variance, sample.N, vbm, sample.Mean-vbm)

	return nil
}

func (p *IonPot) read() (*grid.Field, error) {
	r := grid.Reader{Log: p.log}
	if p.log != nil {
		r.Progress = func(read, total int) {
			p.log.Printf("%s: %d/%d values", p.FileIn, read, total)
		}
	}

	field, err := r.ReadFile(p.FileIn)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	return field, nil
}
