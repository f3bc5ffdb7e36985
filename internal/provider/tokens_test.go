package provider

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	return path
}

func TestLoadTokenMap(t *testing.T) {
	path := writeTokenFile(t, `
# NSE symbol tokens
RELIANCE-EQ=2885
TCS-EQ = 11536   # trailing comment

INFY-EQ=1594
`)

	tokens, err := LoadTokenMap(path)
	if err != nil {
		t.Fatalf("LoadTokenMap: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3: %v", len(tokens), tokens)
	}
	if tokens["TCS-EQ"] != "11536" {
		t.Errorf("TCS-EQ = %q, want 11536", tokens["TCS-EQ"])
	}
}

func TestLoadTokenMapMalformedLine(t *testing.T) {
	path := writeTokenFile(t, "RELIANCE-EQ=2885\nno-equals-here\n")

	_, err := LoadTokenMap(path)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestLoadTokenMapMissingFile(t *testing.T) {
	if _, err := LoadTokenMap(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
