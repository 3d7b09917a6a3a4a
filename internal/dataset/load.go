package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrNoOutcome marks a dataset without the configured outcome column. This
// is a fatal startup condition: nothing downstream can run without it.
var ErrNoOutcome = errors.New("outcome column missing")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOptions controls how a source spreadsheet is read.
type LoadOptions struct {
	// Outcome is the required numeric score column. Empty skips the check
	// (used by round-trip reloads of partial exports).
	Outcome string
	// Numeric lists additional columns coerced to floats at load (age).
	Numeric []string
	// Sheet selects the XLSX sheet by name; empty means the first sheet.
	Sheet string
	// Delimiter for CSV; 0 auto-detects among ',', ';', '\t'.
	Delimiter rune
}

// Load reads a spreadsheet into a Table, dispatching on file extension.
// Supported: .xlsx, .csv, .tsv.
func Load(path string, opt LoadOptions) (*Table, error) {
	lower := strings.ToLower(path)
	var (
		t   *Table
		err error
	)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		t, err = loadXLSX(path, opt)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		t, err = loadCSV(path, opt)
	default:
		return nil, fmt.Errorf("unsupported data file %s (use .xlsx, .csv or .tsv)", path)
	}
	if err != nil {
		return nil, err
	}
	t.path = path
	if opt.Outcome != "" && !t.HasColumn(opt.Outcome) {
		return nil, fmt.Errorf("%s: %w (%q)", path, ErrNoOutcome, opt.Outcome)
	}
	return t, nil
}

func loadXLSX(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("xlsx %s has no sheets", path)
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return NewTable(nil, nil), nil
	}
	header := harmonizeHeader(rows[0])
	return NewTable(header, rows[1:], numericColumns(opt)...), nil
}

func loadCSV(path string, opt LoadOptions) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode csv %s: %w", path, err)
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, text)
	}
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewTable(nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = harmonizeHeader(header)
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return NewTable(header, rows, numericColumns(opt)...), nil
}

func numericColumns(opt LoadOptions) []string {
	cols := make([]string, 0, len(opt.Numeric)+1)
	if opt.Outcome != "" {
		cols = append(cols, opt.Outcome)
	}
	cols = append(cols, opt.Numeric...)
	return cols
}

// harmonizeHeader trims names and collapses the two spellings of the degree
// column onto the canonical "Учёная степень".
func harmonizeHeader(header []string) []string {
	out := make([]string, len(header))
	canonical := false
	for _, h := range header {
		if strings.TrimSpace(h) == "Учёная степень" {
			canonical = true
		}
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "Ученая степень" && !canonical {
			name = "Учёная степень"
			canonical = true
		}
		out[i] = name
	}
	return out
}

// sniffDelimiter picks the CSV delimiter from the filename or the first
// line's candidate counts.
func sniffDelimiter(path string, text []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line := text
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// decodeText strips a UTF-8 BOM and, when the bytes are not valid UTF-8,
// decodes from the legacy Cyrillic encoding that yields the most Cyrillic
// letters (files exported from Russian-locale Excel are commonly
// Windows-1251 or KOI8-R).
func decodeText(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		raw = raw[len(utf8BOM):]
	}
	if utf8.Valid(raw) {
		return raw, nil
	}
	candidates := []encoding.Encoding{charmap.Windows1251, charmap.KOI8R}
	var best []byte
	bestScore := -1
	for _, enc := range candidates {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			continue
		}
		if score := cyrillicCount(decoded); score > bestScore {
			best, bestScore = decoded, score
		}
	}
	if best == nil {
		return nil, errors.New("not valid UTF-8 and legacy decode failed")
	}
	return best, nil
}

func cyrillicCount(b []byte) int {
	n := 0
	for _, r := range string(b) {
		if unicode.Is(unicode.Cyrillic, r) {
			n++
		}
	}
	return n
}
