package grid

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ProgressEvery is the cadence, in grid values, of the Progress callback.
const ProgressEvery = 100000

// Reader reads a volumetric field file (LOCPOT/CHGCAR format) into a Field.
// The zero value is ready to use. Reading is a single sequential pass; files
// with 1e7+ values take minutes, so long parses can be observed through the
// Progress callback.
type Reader struct {
	// Progress, if non-nil, is called every ProgressEvery values with the
	// number of values read so far and the total expected.
	Progress func(read, total int)

	// Log, if non-nil, receives the warning for trailing content after the
	// declared grid (second spin channel, augmentation occupancies). The
	// first channel is returned intact either way.
	Log *log.Logger
}

// ReadFile reads the field stored at path. Files ending in .gz are
// decompressed transparently.
func (rd *Reader) ReadFile(path string) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return rd.Read(r)
}

// Read parses the header and the value block from r. On any header or value
// error the partial field is discarded.
func (rd *Reader) Read(r io.Reader) (*Field, error) {
	s := &scanner{r: bufio.NewReaderSize(r, 1<<20)}

	f, err := rd.readHeader(s)
	if err != nil {
		return nil, err
	}

	err = rd.readValues(s, f)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// scanner hands out lines and keeps the 1-based line number for error
// reporting.
type scanner struct {
	r *bufio.Reader
	n int
}

// line returns the next line without its terminator. io.EOF is only returned
// for a line with no content at all.
func (s *scanner) line() (string, error) {
	b, err := s.r.ReadString('\n')
	if err != nil && (err != io.EOF || len(b) == 0) {
		return "", err
	}
	s.n++
	return strings.TrimRight(b, "\r\n"), nil
}

func (s *scanner) malformed(reason string) error {
	return &MalformedHeaderError{Line: s.n, Reason: reason}
}

func (rd *Reader) readHeader(s *scanner) (*Field, error) {
	if _, err := s.line(); err != nil {
		return nil, &MalformedHeaderError{Line: 1, Reason: "missing title line"}
	}

	b, err := s.line()
	if err != nil {
		return nil, s.malformed("missing scaling factor")
	}
	fields := strings.Fields(b)
	if len(fields) == 0 {
		return nil, s.malformed("missing scaling factor")
	}
	scale, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(scale) || scale <= 0 {
		return nil, s.malformed(fmt.Sprintf("scaling factor %q is not a positive number", fields[0]))
	}

	var f Field
	for i := 0; i < 3; i++ {
		b, err := s.line()
		if err != nil {
			return nil, s.malformed(fmt.Sprintf("missing lattice vector %d", i+1))
		}
		fields := strings.Fields(b)
		if len(fields) < 3 {
			return nil, s.malformed(fmt.Sprintf("lattice vector %d: 3 components expected, got %d", i+1, len(fields)))
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, s.malformed(fmt.Sprintf("lattice vector %d: %q is not a number", i+1, fields[k]))
			}
			f.Lattice[i][k] = v * scale
		}
	}

	err = rd.readSpecies(s, &f)
	if err != nil {
		return nil, err
	}

	b, err = s.line() // coordinate-system marker, optionally preceded by "Selective dynamics"
	if err != nil {
		return nil, s.malformed("missing coordinate-system marker")
	}
	if t := strings.TrimSpace(b); t != "" && (t[0] == 'S' || t[0] == 's') {
		b, err = s.line()
		if err != nil {
			return nil, s.malformed("missing coordinate-system marker")
		}
	}
	if strings.TrimSpace(b) == "" {
		return nil, s.malformed("missing coordinate-system marker")
	}

	for i := 0; i < f.Atoms; i++ {
		b, err := s.line()
		if err != nil || strings.TrimSpace(b) == "" {
			return nil, s.malformed(fmt.Sprintf("%d atom coordinate lines declared, got %d", f.Atoms, i))
		}
		fields := strings.Fields(b)
		if len(fields) < 3 {
			return nil, s.malformed(fmt.Sprintf("atom %d: 3 coordinates expected, got %d fields", i+1, len(fields)))
		}
		for k := 0; k < 3; k++ {
			if _, err := strconv.ParseFloat(fields[k], 64); err != nil {
				return nil, s.malformed(fmt.Sprintf("atom %d: %q is not a number", i+1, fields[k]))
			}
		}
	}

	b, err = s.line()
	if err != nil {
		return nil, s.malformed("missing separator line before the grid dimensions")
	}
	if strings.TrimSpace(b) != "" {
		return nil, s.malformed(fmt.Sprintf("separator line before the grid dimensions is not blank: %q", b))
	}

	b, err = s.line()
	if err != nil {
		return nil, s.malformed("missing grid dimension line")
	}
	fields = strings.Fields(b)
	if len(fields) != 3 {
		return nil, s.malformed(fmt.Sprintf("grid dimension line: 3 integers expected, got %d fields", len(fields)))
	}
	for k := 0; k < 3; k++ {
		n, err := strconv.Atoi(fields[k])
		if err != nil || n <= 0 {
			return nil, s.malformed(fmt.Sprintf("grid dimension %q is not a positive integer", fields[k]))
		}
		f.N[k] = n
	}

	return &f, nil
}

// readSpecies reads the species-count line, preceded in newer files by a
// species-symbol line.
func (rd *Reader) readSpecies(s *scanner, f *Field) error {
	b, err := s.line()
	if err != nil {
		return s.malformed("missing species-count line")
	}
	fields := strings.Fields(b)
	if len(fields) == 0 {
		return s.malformed("missing species-count line")
	}

	var symbols []string
	if _, err := strconv.Atoi(fields[0]); err != nil {
		symbols = fields
		b, err := s.line()
		if err != nil {
			return s.malformed("missing species-count line")
		}
		fields = strings.Fields(b)
		if len(fields) != len(symbols) {
			return s.malformed(fmt.Sprintf("%d species symbols but %d counts", len(symbols), len(fields)))
		}
	}

	for k, v := range fields {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return s.malformed(fmt.Sprintf("species count %q is not a positive integer", v))
		}
		sp := Species{Count: n}
		if symbols != nil {
			sp.Symbol = symbols[k]
		}
		f.Species = append(f.Species, sp)
		f.Atoms += n
	}

	return nil
}

// readValues streams exactly Points values into f, in on-disk order (first
// axis fastest), regardless of how many values share a physical line.
func (rd *Reader) readValues(s *scanner, f *Field) error {
	total := f.Points()
	f.Values = make([]float64, 0, total)

	for len(f.Values) < total {
		b, err := s.line()
		if err != nil {
			return &TruncatedDataError{Want: total, Got: len(f.Values)}
		}

		for _, tok := range strings.Fields(b) {
			if len(f.Values) == total {
				// Surplus tokens on the last value line.
				rd.extraData(tok)
				return nil
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("grid value %d (line %d): %w", len(f.Values)+1, s.n, err)
			}
			f.Values = append(f.Values, v)
			f.sum += v

			if rd.Progress != nil && len(f.Values)%ProgressEvery == 0 {
				rd.Progress(len(f.Values), total)
			}
		}
	}

	// A second block (spin channel, augmentation occupancies) may follow.
	for {
		b, err := s.line()
		if err != nil {
			return nil
		}
		if fields := strings.Fields(b); len(fields) > 0 {
			rd.extraData(fields[0])
			return nil
		}
	}
}

func (rd *Reader) extraData(token string) {
	if rd.Log != nil {
		rd.Log.Println(&ExtraDataError{Token: token})
	}
}
