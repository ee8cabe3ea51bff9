package policy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadBlocklist reads the blocklist file into a set. Entries are matched
// exactly, one plaintext password per line; blank lines are skipped.
func (v *Validator) loadBlocklist() (map[string]struct{}, error) {
	f, err := os.Open(v.blocklistPath)
	if err != nil {
		return nil, fmt.Errorf("opening blocklist: %w", err)
	}
	defer f.Close()

	blocked := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry := strings.TrimRight(scanner.Text(), "\r\n")
		if entry == "" {
			continue
		}
		blocked[entry] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading blocklist: %w", err)
	}
	return blocked, nil
}
