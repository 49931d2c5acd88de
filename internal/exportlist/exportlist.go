// Package exportlist reads the mapping file that selects which outputs
// are exported and what the destination variables are called.
//
// Format, one record per line:
//
//	source_output_name,destination_variable_name[,description]
//
// Blank lines and lines starting with # are ignored.
package exportlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrNoEntries is returned when the file holds no usable records.
var ErrNoEntries = errors.New("no entries found in export list")

// Entry is one mapping record.
type Entry struct {
	Source      string
	Dest        string
	Description string
}

// ReadFile parses an export list and returns its entries in file order.
// Duplicate source names and duplicate destination names are rejected:
// the remote variable set must be a function of the file, and a
// last-write-wins merge would hide mistakes.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading export list: %w", err)
	}
	defer f.Close()

	var entries []Entry
	var errs *multierror.Error
	seenSource := make(map[string]bool)
	seenDest := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		record := strings.Split(line, ",")
		if len(record) < 2 {
			errs = multierror.Append(errs, fmt.Errorf("%s:%d: need source and destination name", path, lineno))
			continue
		}
		entry := Entry{
			Source: strings.TrimSpace(record[0]),
			Dest:   strings.TrimSpace(record[1]),
		}
		if len(record) > 2 {
			entry.Description = strings.TrimSpace(record[2])
		}
		if entry.Source == "" || entry.Dest == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s:%d: empty source or destination name", path, lineno))
			continue
		}
		if seenSource[entry.Source] {
			errs = multierror.Append(errs, fmt.Errorf("%s:%d: duplicate source name %q", path, lineno, entry.Source))
			continue
		}
		if seenDest[entry.Dest] {
			errs = multierror.Append(errs, fmt.Errorf("%s:%d: duplicate destination name %q", path, lineno, entry.Dest))
			continue
		}
		seenSource[entry.Source] = true
		seenDest[entry.Dest] = true
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export list: %w", err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoEntries)
	}
	return entries, nil
}
