package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "two" {
		t.Fatalf("content = %q (%v)", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSONIndents(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("json = %q", b)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/data")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("got %s", got)
	}
	if got, _ := ExpandHome("/abs/~x"); got != "/abs/~x" {
		t.Fatalf("non-home path changed: %s", got)
	}
}

func TestAllowedExtension(t *testing.T) {
	exts := []string{"csv", ".TSV"}
	for name, want := range map[string]bool{
		"a.csv":     true,
		"b.CSV":     true,
		"c.tsv":     true,
		"d.xlsx":    false,
		"noext":     false,
		"dir.csv/x": false,
	} {
		if got := AllowedExtension(name, exts); got != want {
			t.Fatalf("%s: got %v want %v", name, got, want)
		}
	}
}
