package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const employees = "Name,Age,Salary,Department\n" +
	"Alice,25,50000,HR\n" +
	"Bob,30,60000,IT\n" +
	"Charlie,35,75000,Finance\n" +
	"David,28,55000,IT\n" +
	"Eve,32,65000,HR\n"

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns stdout and the error.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "employees.csv")
	if err := os.WriteFile(p, []byte(employees), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return home
}

func TestCLI_QueriesMarkdown(t *testing.T) {
	home := setupHome(t)
	p := filepath.Join(home, "employees.csv")

	if out := runCmd(t, "overview", p); !strings.Contains(out, "Rows: 5") || !strings.Contains(out, "- Age: int64") {
		t.Fatalf("overview = %q", out)
	}
	if out := runCmd(t, "stats", p); !strings.Contains(out, "| Salary | 5 |") {
		t.Fatalf("stats = %q", out)
	}
	if out := runCmd(t, "corr", p); !strings.Contains(out, "- Age ~ Salary: r=0.990") {
		t.Fatalf("corr = %q", out)
	}
	out := runCmd(t, "head", p, "-n", "2")
	if !strings.Contains(out, "Bob") || strings.Contains(out, "Charlie") {
		t.Fatalf("head = %q", out)
	}
	out = runCmd(t, "tail", p, "-n", "1")
	if !strings.Contains(out, "Eve") || strings.Contains(out, "David") {
		t.Fatalf("tail = %q", out)
	}
	if out := runCmd(t, "column", p, "Department"); !strings.Contains(out, "- IT: 2") {
		t.Fatalf("column = %q", out)
	}
	if out := runCmd(t, "columns", p); !strings.Contains(out, "[NUMERIC COLUMNS]\n- Age\n- Salary\n") {
		t.Fatalf("columns = %q", out)
	}
}

func TestCLI_JSONAndYAML(t *testing.T) {
	home := setupHome(t)
	p := filepath.Join(home, "employees.csv")

	out := runCmd(t, "overview", p, "--format", "json")
	var ov struct {
		Rows   int               `json:"rows"`
		Dtypes map[string]string `json:"dtypes"`
	}
	if err := json.Unmarshal([]byte(out), &ov); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if ov.Rows != 5 || ov.Dtypes["Name"] != "object" {
		t.Fatalf("overview = %+v", ov)
	}
	out = runCmd(t, "stats", p, "-f", "yaml")
	if !strings.Contains(out, "Age:") || !strings.Contains(out, "mean: 30") {
		t.Fatalf("yaml = %q", out)
	}
	// the flag must not stick to the next invocation
	if out := runCmd(t, "overview", p); !strings.HasPrefix(out, "[DATASET SUMMARY]") {
		t.Fatalf("format leaked: %q", out)
	}
}

func TestCLI_Errors(t *testing.T) {
	home := setupHome(t)
	if _, err := execCmd(t, "overview", filepath.Join(home, "missing.csv")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("want not found, got %v", err)
	}
	if _, err := execCmd(t, "column", filepath.Join(home, "employees.csv"), "Bonus"); err == nil || !strings.Contains(err.Error(), "Bonus") {
		t.Fatalf("want column error, got %v", err)
	}
	if _, err := execCmd(t, "clean", filepath.Join(home, "employees.csv")); err == nil {
		t.Fatalf("clean without an operation should fail")
	}
}

func TestCLI_Clean(t *testing.T) {
	home := setupHome(t)
	src := filepath.Join(home, "dirty.csv")
	if err := os.WriteFile(src, []byte("a,b\n1,x\n1,x\n2,\n3,y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(home, "clean.csv")
	runCmd(t, "clean", src, "--missing", "--duplicates", "-o", dst)
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "a,b\n1,x\n3,y\n" {
		t.Fatalf("cleaned = %q", b)
	}
	if out := runCmd(t, "clean", src, "--duplicates"); strings.Count(out, "\n") != 4 {
		t.Fatalf("stdout csv = %q", out)
	}
}

func TestCLI_AnalyzeBatch(t *testing.T) {
	home := setupHome(t)
	for _, d := range []string{"d1", "d2"} {
		if err := os.MkdirAll(filepath.Join(home, d), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(home, d, "metrics.csv"), []byte("col1,col2\nA,1\nB,2\nC,3\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	outDir := filepath.Join(home, "out")
	runCmd(t, "analyze", filepath.Join(home, "d*", "metrics.csv"), "-o", outDir, "-q")
	for _, name := range []string{"metrics.summary.md", "metrics__2.summary.md"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if !strings.Contains(string(b), "[HEAD ROWS]") {
			t.Fatalf("%s lacks head rows", name)
		}
	}

	single := filepath.Join(home, "single.json")
	runCmd(t, "analyze", filepath.Join(home, "employees.csv"), "-o", single, "--format", "json", "-n", "2")
	b, err := os.ReadFile(single)
	if err != nil {
		t.Fatal(err)
	}
	var rep struct {
		Head []map[string]any `json:"head"`
	}
	if err := json.Unmarshal(b, &rep); err != nil || len(rep.Head) != 2 {
		t.Fatalf("report head = %v (%v)", rep.Head, err)
	}
}

func TestCLI_WorkspaceRoundTrip(t *testing.T) {
	home := setupHome(t)
	out := runCmd(t, "import", filepath.Join(home, "employees.csv"))
	m := regexp.MustCompile(`as @(\S+) \(5 rows, 4 columns\)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("import output = %q", out)
	}
	id := m[1]
	if out := runCmd(t, "list"); !strings.Contains(out, id) || !strings.Contains(out, "employees.csv") {
		t.Fatalf("list = %q", out)
	}
	if out := runCmd(t, "overview", "@"+id); !strings.Contains(out, "File: employees.csv") {
		t.Fatalf("overview by id = %q", out)
	}
	runCmd(t, "remove", id)
	if _, err := execCmd(t, "overview", "@"+id); err == nil {
		t.Fatalf("removed dataset should not load")
	}
	if out := runCmd(t, "list"); !strings.Contains(out, "(no datasets)") {
		t.Fatalf("list after remove = %q", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setupHome(t)
	runCmd(t, "config", "set", "head_rows", "3")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "head_rows: 3") {
		t.Fatalf("config show = %q", out)
	}
	if _, err := execCmd(t, "config", "set", "output_format", "xml"); err == nil {
		t.Fatalf("invalid value should be rejected")
	}
}
