// Package universe resolves the symbol list a scan runs over.
package universe

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Default returns a copy of the built-in NSE-500 universe.
func Default() []string {
	out := make([]string, len(nse500))
	copy(out, nse500)
	return out
}

// FromFile reads one symbol per line. Blank lines and '#' comments are
// ignored; symbols without an exchange suffix default to NSE (".NS").
func FromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("universe: open %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		sym := Normalize(sc.Text())
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("universe: read %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("universe: %s contains no symbols", path)
	}
	return out, nil
}

// Parse splits a comma-separated symbol list, normalizing each entry.
func Parse(csv string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		sym := Normalize(part)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// Normalize trims whitespace and comments, uppercases, and appends the
// NSE suffix when no exchange suffix is present.
func Normalize(raw string) string {
	s := raw
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ".NS") && !strings.HasSuffix(s, ".BO") {
		s += ".NS"
	}
	return s
}
