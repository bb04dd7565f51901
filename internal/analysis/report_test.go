package analysis

import (
	"strings"
	"testing"
)

func TestReportMarkdownSections(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	md := BuildReport(tbl, 2).Markdown()

	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: inline.csv",
		"Rows: 5",
		"- Age: int64 (missing 0, 0.0%)",
		"- Name: object (missing 0, 0.0%)",
		"| Salary | 5 | 61000 |",
		"| Age | 5 | 30 | 3.8079 | 25 | 28 | 30 | 32 | 35 |",
		"- Age ~ Salary: r=0.990",
		"[HEAD ROWS]",
		"| Alice | 25 | 50000 | HR |",
		"[TAIL ROWS]",
		"| Eve | 32 | 65000 | HR |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| Charlie |") {
		t.Fatalf("middle row leaked into head/tail:\n%s", md)
	}
}

func TestReportWithoutCorrelation(t *testing.T) {
	tbl := mustRead(t, "name,age", "a,1", "b,2")
	r := BuildReport(tbl, 5)
	if r.Correlation != nil {
		t.Fatalf("correlation = %v, want nil", r.Correlation)
	}
	if strings.Contains(r.Markdown(), "[CORRELATIONS]") {
		t.Fatalf("correlation section should be omitted")
	}
	if got := CorrelationMarkdown(nil, nil); !strings.Contains(got, "not applicable") {
		t.Fatalf("CorrelationMarkdown(nil) = %q", got)
	}
}

func TestColumnStatMarkdown(t *testing.T) {
	tbl := mustRead(t, employeeRows...)
	st, err := tbl.ColumnStats("Department")
	if err != nil {
		t.Fatalf("ColumnStats: %v", err)
	}
	md := st.Markdown()
	if !strings.Contains(md, "[COLUMN] Department") || !strings.Contains(md, "Type: categorical (object)") {
		t.Fatalf("header lines wrong:\n%s", md)
	}
	if !strings.Contains(md, "- HR: 2\n- IT: 2\n- Finance: 1\n") {
		t.Fatalf("top values wrong:\n%s", md)
	}
}

func TestRecordsMarkdownEscapesCells(t *testing.T) {
	rows := []Record{{"a": "x|y", "b": nil}}
	got := RecordsMarkdown([]string{"a", "b"}, rows)
	if !strings.Contains(got, "| x/y | NaN |") {
		t.Fatalf("records = %q", got)
	}
}
