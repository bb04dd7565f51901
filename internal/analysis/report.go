package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Report bundles every read-only profiler query for one table.
type Report struct {
	Name               string                    `json:"name" yaml:"name"`
	Overview           Profile                   `json:"overview" yaml:"overview"`
	Statistics         map[string]NumericSummary `json:"statistics" yaml:"statistics"`
	Correlation        Correlation               `json:"correlation" yaml:"correlation"`
	Head               []Record                  `json:"head" yaml:"head"`
	Tail               []Record                  `json:"tail" yaml:"tail"`
	NumericColumns     []string                  `json:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns []string                  `json:"categorical_columns" yaml:"categorical_columns"`
}

// BuildReport runs the read-only queries against t. Correlation is nil when
// it does not apply.
func BuildReport(t *Table, rows int) *Report {
	corr, _ := t.Correlation()
	return &Report{
		Name:               t.Name(),
		Overview:           t.Overview(),
		Statistics:         t.Statistics(),
		Correlation:        corr,
		Head:               t.Head(rows),
		Tail:               t.Tail(rows),
		NumericColumns:     t.NumericColumns(),
		CategoricalColumns: t.CategoricalColumns(),
	}
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString(OverviewMarkdown(r.Name, r.Overview))
	if len(r.NumericColumns) > 0 {
		b.WriteString("\n")
		b.WriteString(StatisticsMarkdown(r.NumericColumns, r.Statistics))
	}
	if r.Correlation != nil {
		b.WriteString("\n")
		b.WriteString(CorrelationMarkdown(r.NumericColumns, r.Correlation))
	}
	if len(r.Head) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		b.WriteString(RecordsMarkdown(r.Overview.ColumnNames, r.Head))
	}
	if len(r.Tail) > 0 {
		b.WriteString("\n[TAIL ROWS]\n")
		b.WriteString(RecordsMarkdown(r.Overview.ColumnNames, r.Tail))
	}
	return b.String()
}

// OverviewMarkdown renders the dataset summary and schema sections.
func OverviewMarkdown(name string, p Profile) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.Columns))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", p.DuplicateRows))
	b.WriteString(fmt.Sprintf("Memory: %s\n\n", p.MemoryEstimate))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.ColumnNames {
		miss := p.MissingValues[c]
		missPct := 0.0
		if p.Rows > 0 {
			missPct = float64(miss) * 100.0 / float64(p.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d, %.1f%%)\n", safeName(c), p.Dtypes[c], miss, missPct))
	}
	return b.String()
}

// StatisticsMarkdown renders describe-style rows for the numeric columns in
// the given order.
func StatisticsMarkdown(columns []string, stats map[string]NumericSummary) string {
	var b strings.Builder
	b.WriteString("[STATISTICS]\n")
	if len(columns) == 0 {
		b.WriteString("(no numeric columns)\n")
		return b.String()
	}
	b.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, c := range columns {
		s, ok := stats[c]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			safeVal(safeName(c)), s.Count, fmtNum(s.Mean), fmtNum(s.Std), fmtNum(s.Min),
			fmtNum(s.Q25), fmtNum(s.Q50), fmtNum(s.Q75), fmtNum(s.Max)))
	}
	return b.String()
}

// CorrelationMarkdown lists column pairs ordered by |r|, strongest first.
func CorrelationMarkdown(columns []string, corr Correlation) string {
	var b strings.Builder
	b.WriteString("[CORRELATIONS]\n")
	if corr == nil {
		b.WriteString("(not applicable: fewer than two numeric columns)\n")
		return b.String()
	}
	type pr struct {
		A, B string
		R    float64
	}
	var pairs []pr
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			pairs = append(pairs, pr{A: columns[i], B: columns[j], R: float64(corr[columns[i]][columns[j]])})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if math.IsNaN(ai) {
			return false
		}
		if math.IsNaN(aj) {
			return true
		}
		return ai > aj
	})
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("- %s ~ %s: r=%s\n", p.A, p.B, fmtCorr(p.R)))
	}
	return b.String()
}

// RecordsMarkdown renders rows as a markdown table in column order.
func RecordsMarkdown(columns []string, rows []Record) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(safeName(c)))
	}
	b.WriteString(" |\n| ")
	for i := range columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i, c := range columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := cellText(row[c])
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// Markdown renders a single column's diagnostics.
func (s *ColumnStat) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[COLUMN] %s\n", safeName(s.Column)))
	b.WriteString(fmt.Sprintf("Type: %s (%s)\n", s.Kind, s.Dtype))
	b.WriteString(fmt.Sprintf("Unique: %d\n", s.Unique))
	b.WriteString(fmt.Sprintf("Missing: %d (%.2f%%)\n", s.NullCount, s.NullPercentage))
	if len(s.ValueCounts) > 0 {
		b.WriteString("\n[TOP VALUES]\n")
		for _, vc := range s.ValueCounts {
			b.WriteString(fmt.Sprintf("- %s: %d\n", safeVal(cellText(vc.Value)), vc.Count))
		}
	}
	return b.String()
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return "NaN"
	case Number:
		return fmtNum(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

func fmtNum(n Number) string {
	if n.IsNaN() {
		return "NaN"
	}
	x := float64(n)
	ax := math.Abs(x)
	switch {
	case math.IsInf(x, 0):
		return fmt.Sprint(x)
	case x == math.Trunc(x) && ax < 1e15:
		return strconv.FormatFloat(x, 'f', 0, 64)
	case ax >= 1e-3 && ax < 1e15:
		s := strconv.FormatFloat(x, 'f', 4, 64)
		return strings.TrimRight(strings.TrimRight(s, "0"), ".")
	default:
		return fmt.Sprintf("%.4g", x)
	}
}

func fmtCorr(r float64) string {
	if math.IsNaN(r) {
		return "NaN"
	}
	return fmt.Sprintf("%.3f", r)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
