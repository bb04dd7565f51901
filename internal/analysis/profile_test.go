package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestStatisticsEmployees(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	stats := tbl.Statistics()
	if len(stats) != 2 {
		t.Fatalf("stats for %d columns, want 2", len(stats))
	}
	age := stats["Age"]
	if age.Count != 5 {
		t.Fatalf("count = %d", age.Count)
	}
	checks := []struct {
		name string
		got  Number
		want float64
	}{
		{"mean", age.Mean, 30},
		{"std", age.Std, math.Sqrt(14.5)},
		{"min", age.Min, 25},
		{"25%", age.Q25, 28},
		{"50%", age.Q50, 30},
		{"75%", age.Q75, 32},
		{"max", age.Max, 35},
	}
	for _, c := range checks {
		if !almostEqual(float64(c.got), c.want) {
			t.Errorf("Age %s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestQuartilesInterpolate(t *testing.T) {
	s := describe([]float64{4, 1, 3, 2})
	if !almostEqual(float64(s.Q25), 1.75) || !almostEqual(float64(s.Q50), 2.5) || !almostEqual(float64(s.Q75), 3.25) {
		t.Fatalf("quartiles = %v %v %v, want 1.75 2.5 3.25", s.Q25, s.Q50, s.Q75)
	}
}

func TestStatisticsDegenerate(t *testing.T) {
	tbl := mustRead(t, "one,none,label", "7,,a")
	stats := tbl.Statistics()
	one := stats["one"]
	if one.Count != 1 || float64(one.Mean) != 7 || !one.Std.IsNaN() {
		t.Fatalf("single value: %+v", one)
	}
	none := stats["none"]
	if none.Count != 0 || !none.Mean.IsNaN() || !none.Max.IsNaN() {
		t.Fatalf("all missing: %+v", none)
	}
	b, err := json.Marshal(one)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"std":null`) || !strings.Contains(string(b), `"25%":7`) {
		t.Fatalf("json = %s", b)
	}

	cat := mustRead(t, "a,b", "x,y")
	if got := cat.Statistics(); len(got) != 0 {
		t.Fatalf("no numeric columns should yield an empty map, got %v", got)
	}
}

func TestStatisticsWithInfinity(t *testing.T) {
	tbl := mustRead(t, "x,y,z", "1,inf,inf", "2,3,-inf", "3,1e400,1")
	stats := tbl.Statistics()
	y := stats["y"]
	if y.Count != 3 || !math.IsInf(float64(y.Mean), 1) || !y.Std.IsNaN() {
		t.Fatalf("y = %+v, want mean +Inf and std NaN", y)
	}
	if float64(y.Min) != 3 || !math.IsInf(float64(y.Max), 1) {
		t.Fatalf("y min/max = %v/%v", y.Min, y.Max)
	}
	if z := stats["z"]; !z.Mean.IsNaN() {
		t.Fatalf("z mean = %v, want NaN for +Inf and -Inf", z.Mean)
	}
	if x := stats["x"]; float64(x.Mean) != 2 || !almostEqual(float64(x.Std), 1) {
		t.Fatalf("x = %+v", x)
	}
}

func TestCorrelationPerfectLinear(t *testing.T) {
	tbl := mustRead(t, "A,B", "1,10", "2,20", "3,30", "4,40", "5,50")
	corr, ok := tbl.Correlation()
	if !ok {
		t.Fatalf("correlation should apply")
	}
	if corr["A"]["B"] != 1.0 || corr["B"]["A"] != 1.0 {
		t.Fatalf("corr = %v, want exactly 1", corr)
	}
}

func TestCorrelationPairwiseComplete(t *testing.T) {
	tbl := mustRead(t, "A,B,C", "1,1,", "2,2,1", "3,,3", "4,4,2")
	corr, ok := tbl.Correlation()
	if !ok {
		t.Fatalf("correlation should apply")
	}
	// A~C over rows 1..3 only; dropping incomplete rows first would give 1
	if !almostEqual(float64(corr["A"]["C"]), 0.5) {
		t.Fatalf("A~C = %v, want 0.5", corr["A"]["C"])
	}
	if !almostEqual(float64(corr["A"]["B"]), 1) || !almostEqual(float64(corr["B"]["C"]), 1) {
		t.Fatalf("corr = %v", corr)
	}
	for a := range corr {
		if corr[a][a] != 1 {
			t.Fatalf("diagonal %s = %v", a, corr[a][a])
		}
		for b := range corr[a] {
			x, y := corr[a][b], corr[b][a]
			if x != y && !(x.IsNaN() && y.IsNaN()) {
				t.Fatalf("asymmetric %s/%s: %v vs %v", a, b, x, y)
			}
		}
	}
}

func TestCorrelationUndefinedPairs(t *testing.T) {
	tbl := mustRead(t, "flat,v,w", "5,1,", "5,2,", "5,3,9")
	corr, ok := tbl.Correlation()
	if !ok {
		t.Fatalf("correlation should apply")
	}
	if !corr["flat"]["v"].IsNaN() {
		t.Fatalf("zero variance should be NaN, got %v", corr["flat"]["v"])
	}
	if !corr["v"]["w"].IsNaN() {
		t.Fatalf("one complete pair should be NaN, got %v", corr["v"]["w"])
	}
	if corr["flat"]["flat"] != 1 {
		t.Fatalf("diagonal must be 1")
	}
	if _, err := json.Marshal(corr); err != nil {
		t.Fatalf("NaN cells must stay serializable: %v", err)
	}
}

func TestCorrelationNotApplicable(t *testing.T) {
	for _, lines := range [][]string{
		{"name,dept", "a,b"},
		{"name,age", "a,1"},
	} {
		tbl := mustRead(t, lines...)
		if corr, ok := tbl.Correlation(); ok || corr != nil {
			t.Fatalf("%v: want not applicable, got %v", lines[0], corr)
		}
	}
}

func TestColumnStats(t *testing.T) {
	tbl := mustRead(t, "c", "b", "a", "b", `""`, "a", "c")
	st, err := tbl.ColumnStats("c")
	if err != nil {
		t.Fatalf("ColumnStats: %v", err)
	}
	if st.Unique != 3 || st.NullCount != 1 {
		t.Fatalf("unique=%d nulls=%d", st.Unique, st.NullCount)
	}
	if !almostEqual(st.NullPercentage, 100.0/6) {
		t.Fatalf("null pct = %v", st.NullPercentage)
	}
	want := []ValueCount{{"b", 2}, {"a", 2}, {"c", 1}}
	if len(st.ValueCounts) != len(want) {
		t.Fatalf("value counts = %v", st.ValueCounts)
	}
	for i := range want {
		if st.ValueCounts[i] != want[i] {
			t.Fatalf("value counts = %v, want %v (ties keep first appearance)", st.ValueCounts, want)
		}
	}
	if st.Kind != Categorical || st.Dtype != DtypeObject {
		t.Fatalf("kind=%s dtype=%s", st.Kind, st.Dtype)
	}
}

func TestColumnStatsTopTen(t *testing.T) {
	lines := []string{"n"}
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			lines = append(lines, fmt.Sprint(i))
		}
	}
	tbl := mustRead(t, lines...)
	st, err := tbl.ColumnStats("n")
	if err != nil {
		t.Fatalf("ColumnStats: %v", err)
	}
	if st.Unique != 12 || len(st.ValueCounts) != TopValuesLimit {
		t.Fatalf("unique=%d top=%d", st.Unique, len(st.ValueCounts))
	}
	if st.ValueCounts[0].Value != int64(11) || st.ValueCounts[0].Count != 12 {
		t.Fatalf("top value = %+v", st.ValueCounts[0])
	}
}

func TestColumnStatsUnknownColumn(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	st, err := tbl.ColumnStats("Bonus")
	if st != nil {
		t.Fatalf("want no stat object, got %+v", st)
	}
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) || cnf.Column != "Bonus" {
		t.Fatalf("want ColumnNotFoundError, got %v", err)
	}
}

func TestOverviewMemoryAndDuplicates(t *testing.T) {
	tbl := mustRead(t, "A", "1", "1")
	ov := tbl.Overview()
	if ov.MemoryEstimate != "0.14 KB" {
		t.Fatalf("memory = %s, want 0.14 KB", ov.MemoryEstimate)
	}
	if ov.DuplicateRows != 1 {
		t.Fatalf("duplicates = %d", ov.DuplicateRows)
	}
	if ov.Dtypes["A"] != DtypeInt64 || ov.MissingValues["A"] != 0 {
		t.Fatalf("overview = %+v", ov)
	}
}

func TestOverviewIsDeterministic(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	a, _ := json.Marshal(tbl.Overview())
	b, _ := json.Marshal(tbl.Overview())
	if string(a) != string(b) {
		t.Fatalf("overview changed between calls")
	}
	if tbl.Version() != 0 {
		t.Fatalf("queries must not mutate")
	}
}

func TestConcurrentReadOnlyQueries(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	wantOverview := tbl.Overview()
	wantCorr, _ := tbl.Correlation()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 20; k++ {
				if got := tbl.Overview(); !reflect.DeepEqual(got, wantOverview) {
					errs <- fmt.Errorf("overview changed: %+v", got)
					return
				}
				if got := tbl.Statistics(); got["Age"].Count != 5 {
					errs <- fmt.Errorf("statistics = %+v", got)
					return
				}
				if got, ok := tbl.Correlation(); !ok || !reflect.DeepEqual(got, wantCorr) {
					errs <- fmt.Errorf("correlation = %v", got)
					return
				}
				if st, err := tbl.ColumnStats("Department"); err != nil || st.Unique != 3 {
					errs <- fmt.Errorf("column stats = %+v, %v", st, err)
					return
				}
				_ = tbl.Head(2)
				_ = tbl.Tail(2)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
