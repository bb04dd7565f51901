package analysis

import (
	"fmt"
	"math"
	"sort"
)

// TopValuesLimit caps ColumnStat.ValueCounts.
const TopValuesLimit = 10

// Profile summarizes a table's shape, types and missingness.
type Profile struct {
	Rows           int               `json:"rows" yaml:"rows"`
	Columns        int               `json:"columns" yaml:"columns"`
	ColumnNames    []string          `json:"column_names" yaml:"column_names"`
	Dtypes         map[string]string `json:"dtypes" yaml:"dtypes"`
	MissingValues  map[string]int    `json:"missing_values" yaml:"missing_values"`
	DuplicateRows  int               `json:"duplicate_rows" yaml:"duplicate_rows"`
	MemoryEstimate string            `json:"memory_estimate" yaml:"memory_estimate"`
}

// NumericSummary holds descriptive statistics for one numeric column.
// Quartiles use linear interpolation at position p*(n-1) of the sorted values.
type NumericSummary struct {
	Count int    `json:"count" yaml:"count"`
	Mean  Number `json:"mean" yaml:"mean"`
	Std   Number `json:"std" yaml:"std"`
	Min   Number `json:"min" yaml:"min"`
	Q25   Number `json:"25%" yaml:"25%"`
	Q50   Number `json:"50%" yaml:"50%"`
	Q75   Number `json:"75%" yaml:"75%"`
	Max   Number `json:"max" yaml:"max"`
}

// Correlation is a symmetric Pearson matrix keyed by column name.
type Correlation map[string]map[string]Number

// ValueCount is one entry of a column's frequency table.
type ValueCount struct {
	Value any `json:"value" yaml:"value"`
	Count int `json:"count" yaml:"count"`
}

// ColumnStat captures cardinality, nulls and top values of one column.
type ColumnStat struct {
	Column         string       `json:"column" yaml:"column"`
	Unique         int          `json:"unique" yaml:"unique"`
	NullCount      int          `json:"null_count" yaml:"null_count"`
	NullPercentage float64      `json:"null_percentage" yaml:"null_percentage"`
	Dtype          string       `json:"dtype" yaml:"dtype"`
	Kind           Kind         `json:"kind" yaml:"kind"`
	ValueCounts    []ValueCount `json:"value_counts" yaml:"value_counts"`
}

// Overview returns the table's shape, dtypes, per-column missing counts,
// duplicate row count and an approximate memory footprint.
func (t *Table) Overview() Profile {
	p := Profile{
		Rows:          len(t.rows),
		Columns:       len(t.columns),
		ColumnNames:   t.Columns(),
		Dtypes:        make(map[string]string, len(t.columns)),
		MissingValues: make(map[string]int, len(t.columns)),
	}
	for j, c := range t.columns {
		p.Dtypes[c] = t.dtypes[j]
		p.MissingValues[c] = t.nullCount(j)
	}
	seen := make(map[string]struct{}, len(t.rows))
	for _, row := range t.rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			p.DuplicateRows++
			continue
		}
		seen[k] = struct{}{}
	}
	p.MemoryEstimate = fmt.Sprintf("%.2f KB", float64(t.memoryBytes())/1024)
	return p
}

func (t *Table) nullCount(j int) int {
	n := 0
	for _, row := range t.rows {
		if row[j].IsMissing() {
			n++
		}
	}
	return n
}

// memoryBytes approximates the footprint of an equivalent dataframe: a
// fixed index, 8 bytes per numeric cell, 1 per bool cell, and a reference
// plus a boxed payload per object cell.
func (t *Table) memoryBytes() int {
	const (
		indexBytes  = 128
		refBytes    = 8
		strHeader   = 49
		boxedNaN    = 24
		numericCell = 8
		boolCell    = 1
	)
	total := indexBytes
	for j := range t.columns {
		switch t.dtypes[j] {
		case DtypeInt64, DtypeFloat64:
			total += numericCell * len(t.rows)
		case DtypeBool:
			total += boolCell * len(t.rows)
		default:
			for _, row := range t.rows {
				v := row[j]
				total += refBytes
				switch v.typ {
				case CellMissing:
					total += boxedNaN
				case CellString:
					total += strHeader + len(v.s)
				default:
					total += boxedNaN + 4
				}
			}
		}
	}
	return total
}

// Statistics describes every numeric column. A table without numeric
// columns yields an empty map.
func (t *Table) Statistics() map[string]NumericSummary {
	out := make(map[string]NumericSummary)
	for j, c := range t.columns {
		if t.kinds[j] != Numeric {
			continue
		}
		out[c] = describe(t.numericValues(j))
	}
	return out
}

func (t *Table) numericValues(j int) []float64 {
	vals := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if x, ok := row[j].Float(); ok {
			vals = append(vals, x)
		}
	}
	return vals
}

func describe(vals []float64) NumericSummary {
	nan := Number(math.NaN())
	s := NumericSummary{Count: len(vals), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(vals) == 0 {
		return s
	}
	// Welford update; an infinite value falls back to sum/n and leaves std NaN
	var n int
	var mean, m2, sum float64
	finite := true
	for _, x := range vals {
		n++
		sum += x
		if math.IsInf(x, 0) {
			finite = false
		}
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if !finite {
		s.Mean = Number(sum / float64(n))
	} else {
		s.Mean = Number(mean)
		if n > 1 {
			s.Std = Number(math.Sqrt(m2 / float64(n-1)))
		}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Min = Number(sorted[0])
	s.Q25 = Number(quantile(sorted, 0.25))
	s.Q50 = Number(quantile(sorted, 0.5))
	s.Q75 = Number(quantile(sorted, 0.75))
	s.Max = Number(sorted[len(sorted)-1])
	return s
}

// Correlation computes pairwise-complete Pearson coefficients among numeric
// columns. ok is false when fewer than two numeric columns exist.
func (t *Table) Correlation() (corr Correlation, ok bool) {
	var idx []int
	for j := range t.columns {
		if t.kinds[j] == Numeric {
			idx = append(idx, j)
		}
	}
	if len(idx) < 2 {
		return nil, false
	}
	corr = make(Correlation, len(idx))
	for _, j := range idx {
		corr[t.columns[j]] = make(map[string]Number, len(idx))
	}
	for a, ja := range idx {
		ca := t.columns[ja]
		corr[ca][ca] = 1
		for _, jb := range idx[a+1:] {
			cb := t.columns[jb]
			r := Number(t.pearson(ja, jb))
			corr[ca][cb] = r
			corr[cb][ca] = r
		}
	}
	return corr, true
}

// pearson uses only rows where both columns are present. The result is NaN
// with fewer than two such rows or zero variance in either column.
func (t *Table) pearson(a, b int) float64 {
	type pairAcc struct {
		n          float64
		sumX, sumY float64
	}
	var pa pairAcc
	xs := make([]float64, 0, len(t.rows))
	ys := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		x, okx := row[a].Float()
		y, oky := row[b].Float()
		if !okx || !oky {
			continue
		}
		pa.n++
		pa.sumX += x
		pa.sumY += y
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if pa.n < 2 {
		return math.NaN()
	}
	mx, my := pa.sumX/pa.n, pa.sumY/pa.n
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	denom := math.Sqrt(sxx * syy)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return math.NaN()
	}
	r := sxy / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// ColumnStats reports cardinality, nulls and the most frequent values of
// column c. Ties in frequency keep first-appearance order.
func (t *Table) ColumnStats(c string) (*ColumnStat, error) {
	j, ok := t.index[c]
	if !ok {
		return nil, &ColumnNotFoundError{Column: c}
	}
	type bucket struct {
		v     Value
		count int
	}
	var order []*bucket
	byKey := make(map[string]*bucket)
	nulls := 0
	for _, row := range t.rows {
		v := row[j]
		if v.IsMissing() {
			nulls++
			continue
		}
		k := v.key()
		b, seen := byKey[k]
		if !seen {
			b = &bucket{v: v}
			byKey[k] = b
			order = append(order, b)
		}
		b.count++
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].count > order[b].count })
	top := order
	if len(top) > TopValuesLimit {
		top = top[:TopValuesLimit]
	}
	st := &ColumnStat{
		Column:      c,
		Unique:      len(order),
		NullCount:   nulls,
		Dtype:       t.dtypes[j],
		Kind:        t.kinds[j],
		ValueCounts: make([]ValueCount, len(top)),
	}
	if len(t.rows) > 0 {
		st.NullPercentage = float64(nulls) / float64(len(t.rows)) * 100
	}
	for i, b := range top {
		st.ValueCounts[i] = ValueCount{Value: b.v.Interface(), Count: b.count}
	}
	return st, nil
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
