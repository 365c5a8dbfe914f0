// Package sheet decodes spreadsheet uploads into raw records.
package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file types that cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Kind classifies an upload by extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindCSV
	KindXLSX
	KindZip
	KindMeet
	KindXLS
)

func (k Kind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindXLSX:
		return "xlsx"
	case KindXLS:
		return "xls"
	case KindZip:
		return "zip"
	case KindMeet:
		return "meet"
	default:
		return "unknown"
	}
}

// KindOf classifies a file name by its extension.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return KindCSV
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".xls":
		return KindXLS
	case ".zip":
		return KindZip
	case ".yaml", ".yml", ".json":
		return KindMeet
	default:
		return KindUnknown
	}
}

// Table is one decoded sheet.
type Table struct {
	Name    string
	Records [][]string
}

// File is one entry extracted from an archive.
type File struct {
	Name string
	Data []byte
}

// Decode decodes a CSV, XLSX or XLS file into tables.
func Decode(name string, data []byte) ([]Table, error) {
	switch KindOf(name) {
	case KindCSV:
		records, err := DecodeCSV(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []Table{{Name: name, Records: records}}, nil
	case KindXLSX:
		t, err := DecodeXLSX(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []Table{t}, nil
	case KindXLS:
		t, err := DecodeXLS(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []Table{t}, nil
	default:
		return nil, fmt.Errorf("%s: %w %q", name, ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// DecodeCSV parses CSV data. A UTF-8 byte order mark is dropped, invalid
// UTF-8 is replaced and fully empty rows are removed.
func DecodeCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return dropEmpty(records), nil
}

// DecodeXLSX reads the active sheet of a workbook.
func DecodeXLSX(name string, data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	if sheetName == "" {
		return Table{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	for i, row := range rows {
		for j, c := range row {
			rows[i][j] = strings.TrimSpace(c)
		}
	}
	return Table{Name: name + ":" + sheetName, Records: dropEmpty(rows)}, nil
}

// DecodeXLS reads the first sheet of a legacy (BIFF) workbook. The reader
// panics on some corrupt files; those are returned as errors.
func DecodeXLS(name string, data []byte) (t Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = Table{}, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return Table{}, errors.New("workbook has no sheets")
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return Table{}, errors.New("workbook has no sheets")
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = strings.TrimSpace(row.Col(j))
		}
		rows = append(rows, cells)
	}
	return Table{Name: name + ":" + ws.Name, Records: dropEmpty(rows)}, nil
}

// Unzip extracts the supported files of an archive. Directories, macOS
// metadata and unsupported entries are skipped. Entries larger than
// maxSize (when positive) are rejected.
func Unzip(data []byte, maxSize int64) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a valid zip: %w", err)
	}

	var files []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasPrefix(zf.Name, "__MACOSX/") || strings.HasPrefix(path.Base(zf.Name), ".") {
			continue
		}
		kind := KindOf(zf.Name)
		if kind == KindUnknown || kind == KindZip {
			continue
		}
		if maxSize > 0 && zf.UncompressedSize64 > uint64(maxSize) {
			return nil, fmt.Errorf("%s: file too large (%d bytes)", zf.Name, zf.UncompressedSize64)
		}

		b, err := readEntry(zf, maxSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", zf.Name, err)
		}
		files = append(files, File{Name: zf.Name, Data: b})
	}
	return files, nil
}

func readEntry(zf *zip.File, maxSize int64) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(b)) > maxSize {
		return nil, errors.New("file too large")
	}
	return b, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func dropEmpty(records [][]string) [][]string {
	out := records[:0]
	for _, row := range records {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
