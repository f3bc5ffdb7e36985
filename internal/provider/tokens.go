package provider

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadTokenMap reads "SYMBOL=token" lines mapping trading symbols to
// Angel One symbol tokens. Blank lines and '#' comments are ignored.
func LoadTokenMap(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("provider: open token map %s: %w", path, err)
	}
	defer f.Close()

	tokens := make(map[string]string)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sym, token, ok := strings.Cut(line, "=")
		sym, token = strings.TrimSpace(sym), strings.TrimSpace(token)
		if !ok || sym == "" || token == "" {
			return nil, fmt.Errorf("provider: token map %s line %d: want SYMBOL=token", path, lineNo)
		}
		tokens[sym] = token
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("provider: read token map %s: %w", path, err)
	}
	return tokens, nil
}
