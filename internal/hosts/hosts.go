// Package hosts resolves the operator-supplied target list. The input
// is either a path to a file with one host per line or a
// comma-separated list; whichever it is, order is preserved and
// duplicates are kept.
package hosts

import (
	"bufio"
	"os"
	"strings"
)

// Load expands a raw target string into an ordered host list. If the
// string names a readable file, hosts are read line by line with blank
// lines skipped; otherwise the string is split on commas. An empty
// input yields an empty list, not an error.
func Load(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return loadFile(input)
	}

	var hosts []string
	for _, part := range strings.Split(input, ",") {
		if h := strings.TrimSpace(part); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

func loadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if h := strings.TrimSpace(scanner.Text()); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts, scanner.Err()
}
