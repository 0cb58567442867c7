package grid

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldText builds a minimal volumetric file with the given dimensions and
// values, five values per line like the real format.
func fieldText(n [3]int, values []float64) string {
	var b strings.Builder
	b.WriteString("MgO test cell\n")
	b.WriteString("   1.0\n")
	b.WriteString("  4.0 0.0 0.0\n")
	b.WriteString("  0.0 4.0 0.0\n")
	b.WriteString("  0.0 0.0 4.0\n")
	b.WriteString("  Mg O\n")
	b.WriteString("  1 1\n")
	b.WriteString("Direct\n")
	b.WriteString("  0.0 0.0 0.0\n")
	b.WriteString("  0.5 0.5 0.5\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d %d %d\n", n[0], n[1], n[2])
	for i, v := range values {
		fmt.Fprintf(&b, " %.8E", v)
		if (i+1)%5 == 0 {
			b.WriteString("\n")
		}
	}
	if len(values)%5 != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func seq(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i + 1)
	}
	return v
}

func TestRead(t *testing.T) {
	t.Parallel()

	var r Reader
	f, err := r.Read(strings.NewReader(fieldText([3]int{2, 2, 2}, seq(8))))
	require.NoError(t, err)

	assert.Equal(t, [3]int{2, 2, 2}, f.N)
	assert.Equal(t, seq(8), f.Values)
	assert.Equal(t, 2, f.Atoms)
	assert.Equal(t, []Species{{"Mg", 1}, {"O", 1}}, f.Species)
	assert.Equal(t, [3]float64{4, 0, 0}, f.Lattice[0])
	assert.InDelta(t, 36.0, f.Sum(), 1e-12)
	assert.InDelta(t, 4.5, f.CellAverage(), 1e-12)
}

func TestRead_ScaleAndOldFormat(t *testing.T) {
	t.Parallel()

	// VASP 4 header: no species-symbol line, scale applied to the rows.
	in := "old format\n" +
		" 2.0\n" +
		" 1.0 0.0 0.0\n" +
		" 0.0 1.0 0.0\n" +
		" 0.0 0.0 1.0\n" +
		" 1\n" +
		"Cartesian\n" +
		" 0.0 0.0 0.0\n" +
		"\n" +
		" 1 1 1\n" +
		" 7.5\n"

	var r Reader
	f, err := r.Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [3]int{1, 1, 1}, f.N)
	assert.Equal(t, []float64{7.5}, f.Values)
	assert.Equal(t, [3]float64{2, 0, 0}, f.Lattice[0])
	assert.Equal(t, []Species{{"", 1}}, f.Species)
}

func TestRead_SelectiveDynamics(t *testing.T) {
	t.Parallel()

	in := fieldText([3]int{2, 2, 2}, seq(8))
	in = strings.Replace(in, "Direct\n", "Selective dynamics\nDirect\n", 1)

	var r Reader
	f, err := r.Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, seq(8), f.Values)
}

func TestRead_Truncated(t *testing.T) {
	t.Parallel()

	var r Reader
	_, err := r.Read(strings.NewReader(fieldText([3]int{2, 2, 2}, seq(5))))

	var trunc *TruncatedDataError
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, 8, trunc.Want)
	assert.Equal(t, 5, trunc.Got)
}

func TestRead_MalformedHeader(t *testing.T) {
	t.Parallel()

	good := fieldText([3]int{2, 2, 2}, seq(8))
	tests := []struct {
		name    string
		mangle  func(string) string
		contain string
	}{
		{"empty input", func(string) string { return "" }, "title"},
		{"bad scale", func(s string) string { return strings.Replace(s, "   1.0\n", "   abc\n", 1) }, "scaling factor"},
		{"negative scale", func(s string) string { return strings.Replace(s, "   1.0\n", "   -1.0\n", 1) }, "scaling factor"},
		{"short lattice row", func(s string) string { return strings.Replace(s, "  0.0 4.0 0.0\n", "  0.0 4.0\n", 1) }, "lattice vector 2"},
		{"bad lattice number", func(s string) string { return strings.Replace(s, "  0.0 0.0 4.0\n", "  0.0 0.0 4..0\n", 1) }, "lattice vector 3"},
		{"symbol count mismatch", func(s string) string { return strings.Replace(s, "  1 1\n", "  1 1 1\n", 1) }, "2 species symbols but 3 counts"},
		{"bad species count", func(s string) string { return strings.Replace(s, "  1 1\n", "  1 0\n", 1) }, "species count"},
		{"missing atom line", func(s string) string { return strings.Replace(s, "  0.5 0.5 0.5\n", "", 1) }, "2 atom coordinate lines declared, got 1"},
		{"bad atom coordinate", func(s string) string { return strings.Replace(s, "  0.5 0.5 0.5\n", "  0.5 oops 0.5\n", 1) }, "atom 2"},
		{"missing separator", func(s string) string { return strings.Replace(s, "\n  2 2 2\n", "  2 2 2\n", 1) }, "separator"},
		{"bad dimension", func(s string) string { return strings.Replace(s, "  2 2 2\n", "  2 -2 2\n", 1) }, "not a positive integer"},
		{"short dimension line", func(s string) string { return strings.Replace(s, "  2 2 2\n", "  2 2\n", 1) }, "3 integers expected"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var r Reader
			_, err := r.Read(strings.NewReader(tt.mangle(good)))

			var malformed *MalformedHeaderError
			require.ErrorAs(t, err, &malformed, "got %v", err)
			assert.Contains(t, malformed.Error(), tt.contain)
			assert.Greater(t, malformed.Line, 0)
		})
	}
}

func TestRead_BadValue(t *testing.T) {
	t.Parallel()

	in := strings.Replace(fieldText([3]int{2, 2, 2}, seq(8)), "4.00000000E+00", "4.0E+xx", 1)

	var r Reader
	_, err := r.Read(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid value 4")
}

func TestRead_ExtraDataLogged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		extra string
	}{
		{"augmentation block", "augmentation occupancies 1 4\n 0.1 0.2\n"},
		{"spin channel", "  2 2 2\n 1.0 1.0 1.0 1.0 1.0\n 1.0 1.0 1.0\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			r := Reader{Log: log.New(&buf, "", 0)}

			f, err := r.Read(strings.NewReader(fieldText([3]int{2, 2, 2}, seq(8)) + tt.extra))
			require.NoError(t, err)
			assert.Equal(t, seq(8), f.Values, "first channel must be returned intact")
			assert.Contains(t, buf.String(), "extra data after declared grid")
		})
	}

	t.Run("no trailing content, no warning", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		r := Reader{Log: log.New(&buf, "", 0)}
		_, err := r.Read(strings.NewReader(fieldText([3]int{2, 2, 2}, seq(8)) + "\n\n"))
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestRead_ProgressCadence(t *testing.T) {
	t.Parallel()

	n := [3]int{50, 50, 48} // 120000 values
	values := make([]float64, 120000)
	var calls [][2]int
	r := Reader{Progress: func(read, total int) {
		calls = append(calls, [2]int{read, total})
	}}

	f, err := r.Read(strings.NewReader(fieldText(n, values)))
	require.NoError(t, err)
	assert.Equal(t, 120000, f.Points())
	assert.Equal(t, [][2]int{{100000, 120000}}, calls)
}

func TestReadFile_Gzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "LOCPOT.gz")

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(fieldText([3]int{2, 2, 2}, seq(8))))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	var r Reader
	f, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seq(8), f.Values)
}
