package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Format discriminates the two supported input shapes.
type Format string

const (
	FormatSpreadsheet Format = "spreadsheet"
	FormatDelimited   Format = "delimited-text"
)

// FormatFromPath maps a file name to a Format and the compression implied by its
// extension. Unknown extensions return ErrUnsupportedFormat.
func FormatFromPath(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))
	comp := CompressionNone
	switch {
	case strings.HasSuffix(name, ".gz"):
		comp, name = CompressionGzip, strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".zst"):
		comp, name = CompressionZstd, strings.TrimSuffix(name, ".zst")
	case strings.HasSuffix(name, ".lz4"):
		comp, name = CompressionLZ4, strings.TrimSuffix(name, ".lz4")
	}
	switch filepath.Ext(name) {
	case ".xlsx":
		return FormatSpreadsheet, comp, nil
	case ".csv", ".tsv", ".txt":
		return FormatDelimited, comp, nil
	}
	return "", comp, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// LoadOptions controls how raw bytes become a Table.
type LoadOptions struct {
	// Name labels the resulting table, usually the file's base name.
	Name string
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for delimited text. If 0, sniffed from the header line among ',', ';', '\t', '|'.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// UnitNormalize converts values of columns whose header unit appears in UnitTargets.
	UnitNormalize bool
	UnitTargets   map[string]string
	// Encoding of delimited text: utf-8 (default), windows-1252, iso-8859-1, utf-16.
	Encoding string
	// Compression wrapped around the file; auto-detected from magic bytes when empty.
	Compression Compression
	// Spreadsheet sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int

	Logger *slog.Logger
}

// DefaultLoadOptions returns the loader defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MaxRows:       100000,
		UnitNormalize: true,
		UnitTargets:   DefaultUnitTargets(),
	}
}

// LoadFile opens path, derives format and compression from its name, and loads it.
func LoadFile(path string, opt LoadOptions) (*Table, error) {
	format, comp, err := FormatFromPath(path)
	if err != nil {
		return nil, loadErr(format, "open", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(format, "open", err)
	}
	defer f.Close()
	if opt.Compression == CompressionAuto && comp != CompressionNone {
		opt.Compression = comp
	}
	if opt.Name == "" {
		opt.Name = filepath.Base(path)
	}
	return Load(f, format, opt)
}

// Load parses r according to format. It either returns a complete table or a *LoadError.
func Load(r io.Reader, format Format, opt LoadOptions) (*Table, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if format != FormatSpreadsheet && format != FormatDelimited {
		return nil, loadErr(format, "open", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}
	raw, comp, err := decompress(r, opt.Compression)
	if err != nil {
		return nil, loadErr(format, "decompress", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, loadErr(format, "read", ErrEmptyInput)
	}
	log.Debug("input read", "name", opt.Name, "format", format, "compression", comp, "bytes", len(raw))

	var rows [][]string
	switch format {
	case FormatSpreadsheet:
		rows, err = xlsxRows(raw, opt.SheetName, opt.SheetIndex)
		if err != nil {
			return nil, loadErr(format, "sheet", err)
		}
	case FormatDelimited:
		text, err := decodeText(raw, opt.Encoding)
		if err != nil {
			return nil, loadErr(format, "decode", err)
		}
		rows, err = readDelimited(text, opt.Delimiter)
		if err != nil {
			return nil, loadErr(format, "row", err)
		}
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, loadErr(format, "header", ErrEmptyInput)
	}
	t := buildTable(rows[0], rows[1:], opt)
	if err := t.Validate(); err != nil {
		return nil, loadErr(format, "row", err)
	}
	log.Info("table loaded", "name", t.Name, "rows", t.Rows(), "columns", len(t.Columns))
	return t, nil
}

func readDelimited(text []byte, delim rune) ([][]string, error) {
	if delim == 0 {
		delim = sniffDelimiter(text)
	}
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// sniffDelimiter picks the candidate that occurs most often on the header line.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// buildTable infers each column's kind: all non-missing cells numeric -> numeric
// (an all-missing column counts as numeric), none numeric -> text, otherwise unknown.
func buildTable(header []string, body [][]string, opt LoadOptions) *Table {
	t := &Table{Name: opt.Name}
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		t.Warnings = append(t.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, len(body)))
		body = body[:opt.MaxRows]
	}
	ncol := len(header)
	for _, rec := range body {
		if len(rec) > ncol {
			ncol = len(rec)
		}
	}
	seen := map[string]int{}
	for j := 0; j < ncol; j++ {
		h := ""
		if j < len(header) {
			h = header[j]
		}
		name, unit := splitUnits(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s.%d", name, n)
		}
		seen[name]++

		cells := make([]string, len(body))
		for i, rec := range body {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		t.Columns = append(t.Columns, inferColumn(name, unit, cells, opt))
	}
	return t
}

func inferColumn(name, unit string, cells []string, opt LoadOptions) *Column {
	nums := make([]float64, len(cells))
	numCnt, txtCnt := 0, 0
	for i, v := range cells {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		if strings.Contains(v, "%") && unit == "" {
			unit = "%"
		}
		if x, ok := parseNumeric(v, opt); ok {
			nums[i] = x
			numCnt++
			continue
		}
		nums[i] = math.NaN()
		txtCnt++
	}
	switch {
	case txtCnt == 0:
		c := &Column{Name: name, Unit: unit, Kind: KindNumeric, Num: nums}
		if opt.UnitNormalize && unit != "" && opt.UnitTargets != nil {
			for i, x := range nums {
				if math.IsNaN(x) {
					continue
				}
				if nx, nu, ok := normalizeUnit(x, unit, opt.UnitTargets); ok {
					nums[i] = nx
					c.Unit = nu
				}
			}
		}
		return c
	case numCnt == 0:
		return &Column{Name: name, Unit: unit, Kind: KindText, Text: cells}
	default:
		return &Column{Name: name, Unit: unit, Kind: KindUnknown, Text: cells}
	}
}
