package excel

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"formintake/domain/cellref"
	"formintake/ports"
)

// fakeSheet is an in-memory worksheet keyed by normalized cell address.
type fakeSheet struct {
	name  string
	cells map[string]string
	rows  int
	cols  int
}

func (f *fakeSheet) Name() string { return f.name }

func (f *fakeSheet) CellValue(address string) (string, error) {
	ref, err := cellref.Resolve(address)
	if err != nil {
		return "", err
	}
	return f.cells[ref.String()], nil
}

func (f *fakeSheet) Dimensions() (int, int) { return f.rows, f.cols }

// fakeWorkbook satisfies ports.Workbook for extraction tests.
type fakeWorkbook struct {
	order  []string
	sheets map[string]*fakeSheet
	props  ports.DocProperties
	closed bool
}

func newFakeWorkbook() *fakeWorkbook {
	return &fakeWorkbook{sheets: map[string]*fakeSheet{}}
}

func (w *fakeWorkbook) addSheet(name string, cells map[string]string) *fakeSheet {
	s := &fakeSheet{name: name, cells: cells, rows: 100, cols: 26}
	w.sheets[name] = s
	w.order = append(w.order, name)
	return s
}

func (w *fakeWorkbook) SheetNames() []string { return w.order }

func (w *fakeWorkbook) Sheet(name string) (ports.Worksheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return s, nil
}

func (w *fakeWorkbook) Properties() ports.DocProperties { return w.props }

func (w *fakeWorkbook) Close() error {
	w.closed = true
	return nil
}

// fakeOpener hands back a prepared workbook regardless of path.
type fakeOpener struct {
	wb  *fakeWorkbook
	err error
}

func (o *fakeOpener) Open(path string) (ports.Workbook, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.wb, nil
}

// writeMinimalXLSX writes a zip file with the structure the file checks
// require, so ProcessFile tests can pass file validation with a fake
// workbook behind the opener.
func writeMinimalXLSX(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range []string{"xl/workbook.xml", "xl/worksheets/sheet1.xml"} {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}
