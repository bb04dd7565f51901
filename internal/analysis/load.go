package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Options controls how a delimited source is parsed into a Table.
type Options struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv names and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale. Zero means '.' decimal and no thousands separator.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MissingTokens are cell texts treated as missing. Nil means DefaultMissingTokens.
	MissingTokens []string
	// TrimSpace strips surrounding whitespace from every cell before inference.
	TrimSpace bool
}

// DefaultMissingTokens mirrors the NA spellings recognized by common
// dataframe CSV readers. The empty cell is always missing.
var DefaultMissingTokens = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultOptions returns reasonable defaults for loading a dataset.
func DefaultOptions() Options {
	return Options{}
}

// Load reads the delimited file at path into a Table.
func Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return Read(f, path, opt)
}

// Read parses delimited text from r. name identifies the source in errors and
// becomes the table name.
func Read(r io.Reader, name string, opt Options) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	if opt.DecimalSeparator == delim {
		return nil, &ParseError{Path: name, Err: fmt.Errorf("decimal separator %q is also the delimiter", delim)}
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &EmptyInputError{Path: name}
		}
		return nil, csvError(name, err)
	}
	columns, err := normalizeHeader(header)
	if err != nil {
		return nil, &ParseError{Path: name, Line: 1, Err: err}
	}
	ncol := len(columns)

	missing := missingSet(opt.MissingTokens)
	var raw [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, csvError(name, err)
		}
		if len(rec) > ncol {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Path: name, Line: line, Err: fmt.Errorf("expected %d fields, saw %d", ncol, len(rec))}
		}
		// short rows are padded with empty, hence missing, cells
		row := make([]string, ncol)
		copy(row, rec)
		if opt.TrimSpace {
			for j := range row {
				row[j] = strings.TrimSpace(row[j])
			}
		}
		raw = append(raw, row)
	}
	if len(raw) == 0 {
		return nil, &EmptyInputError{Path: name}
	}

	t := newTable(filepath.Base(name), columns)
	t.rows = make([][]Value, len(raw))
	for i := range t.rows {
		t.rows[i] = make([]Value, ncol)
	}
	for j := 0; j < ncol; j++ {
		inferColumn(t, j, raw, missing, opt)
	}
	return t, nil
}

func csvError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Path: name, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Path: name, Err: err}
}

func normalizeHeader(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("duplicate column name %q", h)
		}
		seen[h] = struct{}{}
		cols[i] = h
	}
	return cols, nil
}

func missingSet(tokens []string) map[string]struct{} {
	if tokens == nil {
		tokens = DefaultMissingTokens
	}
	m := make(map[string]struct{}, len(tokens)+1)
	m[""] = struct{}{}
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// inferColumn decides the Kind and dtype of column j once and fills the
// typed cells.
func inferColumn(t *Table, j int, raw [][]string, missing map[string]struct{}, opt Options) {
	allNum, allInt, allBool := true, true, true
	anyMissing := false
	nums := make([]float64, len(raw))
	ints := make([]int64, len(raw))
	for i, row := range raw {
		s := row[j]
		if _, ok := missing[s]; ok {
			anyMissing = true
			continue
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
		if !allNum {
			continue
		}
		f, n, isInt, ok := parseNumeric(s, opt)
		if !ok {
			allNum, allInt = false, false
			continue
		}
		nums[i] = f
		if isInt {
			ints[i] = n
		} else {
			allInt = false
		}
	}

	switch {
	case allNum:
		t.kinds[j] = Numeric
		if allInt && !anyMissing {
			t.dtypes[j] = DtypeInt64
		} else {
			t.dtypes[j] = DtypeFloat64
		}
	case allBool && !anyMissing:
		t.kinds[j] = Categorical
		t.dtypes[j] = DtypeBool
	default:
		t.kinds[j] = Categorical
		t.dtypes[j] = DtypeObject
	}

	for i, row := range raw {
		s := row[j]
		if _, ok := missing[s]; ok {
			continue
		}
		switch {
		case t.dtypes[j] == DtypeInt64:
			t.rows[i][j] = IntValue(ints[i])
		case t.dtypes[j] == DtypeFloat64:
			t.rows[i][j] = FloatValue(nums[i])
		case allBool:
			// a boolean column with gaps is an object column of booleans
			b, _ := parseBool(s)
			t.rows[i][j] = BoolValue(b)
		default:
			t.rows[i][j] = StringValue(s)
		}
	}
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// parseNumeric parses s as a number under the configured locale. isInt is
// set when the text is a plain integer that fits in int64.
func parseNumeric(s string, opt Options) (f float64, n int64, isInt bool, ok bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, 0, false, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, 0, false, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if strings.ContainsAny(raw, "_xXpP") {
		return 0, 0, false, false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(i), i, true, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if math.IsNaN(f) {
		return 0, 0, false, false
	}
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return f, 0, false, true
		}
		return 0, 0, false, false
	}
	return f, 0, false, true
}
