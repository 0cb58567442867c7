// Package bandedge extracts the highest occupied eigenvalue (the valence
// band maximum) from a plane-wave calculation log by line filtering.
package bandedge

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// VBM reads an OUTCAR-style log and returns the valence band maximum in eV:
// the maximum over the k-points of the eigenvalue of the highest occupied
// band. The occupied band index is NELECT/2; the eigenvalue tables of the
// last electronic step win when the log holds several ionic steps.
func VBM(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		nkpts, nbands, nocc int
		groupMax            float64
		tables              int
		vbm                 float64
		found               bool
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<20)
	for sc.Scan() {
		line := sc.Text()

		switch {
		case nkpts == 0 && strings.Contains(line, "NKPTS"):
			nkpts, nbands, err = dims(line)
			if err != nil {
				return 0, err
			}
		case nocc == 0 && strings.Contains(line, "NELECT"):
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return 0, fmt.Errorf("cannot read NELECT from %q", line)
			}
			nelect, err := strconv.ParseFloat(fields[2], 64)
			if err != nil || nelect <= 0 {
				return 0, fmt.Errorf("cannot read NELECT from %q", line)
			}
			nocc = int(nelect / 2)
		case strings.Contains(line, "band No."):
			if nkpts == 0 || nocc == 0 {
				return 0, fmt.Errorf("eigenvalue table before NKPTS and NELECT were read")
			}
			e, err := occupiedMax(sc, nbands, nocc)
			if err != nil {
				return 0, err
			}
			if tables%nkpts == 0 {
				groupMax = math.Inf(-1)
			}
			tables++
			if e > groupMax {
				groupMax = e
			}
			if tables%nkpts == 0 { // one full sweep over the k-points
				vbm = groupMax
				found = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}

	if !found {
		return 0, fmt.Errorf("no complete set of eigenvalue tables found (NKPTS %d, tables %d)", nkpts, tables)
	}

	return vbm, nil
}

// dims reads NKPTS and NBANDS from the dimension line
// " k-points NKPTS = 8 ... number of bands NBANDS= 24".
func dims(line string) (nkpts, nbands int, err error) {
	fields := strings.Fields(strings.ReplaceAll(line, "=", " = "))
	for k, v := range fields {
		var n int
		switch v {
		case "NKPTS", "NBANDS":
			if k+2 >= len(fields) {
				return 0, 0, fmt.Errorf("cannot read %s from %q", v, line)
			}
			n, err = strconv.Atoi(fields[k+2])
			if err != nil || n <= 0 {
				return 0, 0, fmt.Errorf("cannot read %s from %q", v, line)
			}
		default:
			continue
		}
		if v == "NKPTS" {
			nkpts = n
		} else {
			nbands = n
		}
	}

	if nkpts == 0 || nbands == 0 {
		return 0, 0, fmt.Errorf("cannot read NKPTS and NBANDS from %q", line)
	}
	return nkpts, nbands, nil
}

// occupiedMax reads one eigenvalue table (band index, energy, occupation per
// line) and returns the energy of band nocc.
func occupiedMax(sc *bufio.Scanner, nbands, nocc int) (float64, error) {
	for i := 1; i <= nbands; i++ {
		if !sc.Scan() {
			return 0, fmt.Errorf("eigenvalue table truncated at band %d of %d", i, nbands)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			return 0, fmt.Errorf("eigenvalue table: 3 columns expected, got %q", sc.Text())
		}
		band, err := strconv.Atoi(fields[0])
		if err != nil || band != i {
			return 0, fmt.Errorf("eigenvalue table: band %d expected, got %q", i, fields[0])
		}
		if band == nocc {
			e, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, fmt.Errorf("eigenvalue table: %q is not an energy", fields[1])
			}
			return e, nil
		}
	}
	return 0, fmt.Errorf("occupied band %d not found in a table of %d bands", nocc, nbands)
}
