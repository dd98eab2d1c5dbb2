// Package building maps full campus building names to the short codes used
// in room locations.
package building

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is an immutable building-name to code lookup. The zero value is an
// empty table on which every lookup misses.
type Table struct {
	codes map[string]string
}

var defaultCodes = map[string]string{
	"Engineering and Science Ctr":    "ENS",
	"Health Sciences Center":         "HSC",
	"Ctr for Bib and Theo Studies":   "BTS",
	"Milner":                         "MIL",
	"Scharnberg Bus and Comm Center": "SBCC",
	"Callan Athletic Center":         "CAL",
	"Tyler Digital Comm Center":      "TYL",
	"Apple Technology Resource Ctr":  "APP",
}

// Default returns the table shipped with the tool.
func Default() Table {
	return New(defaultCodes)
}

// DefaultCodes returns a copy of the built-in name to code mapping, for
// seeding configuration files.
func DefaultCodes() map[string]string {
	out := make(map[string]string, len(defaultCodes))
	for k, v := range defaultCodes {
		out[k] = v
	}
	return out
}

// New builds a table from a name to code mapping. Entries with an empty name
// or code are ignored. The input map is copied.
func New(codes map[string]string) Table {
	t := Table{codes: make(map[string]string, len(codes))}
	for name, code := range codes {
		key := normalize(name)
		code = strings.TrimSpace(code)
		if key == "" || code == "" {
			continue
		}
		t.codes[key] = code
	}
	return t
}

// Lookup returns the short code for name. ok is false when the building is
// not in the table; the caller decides what to show instead.
func (t Table) Lookup(name string) (code string, ok bool) {
	if len(t.codes) == 0 {
		return "", false
	}
	code, ok = t.codes[normalize(name)]
	return code, ok
}

// Len reports the number of known buildings.
func (t Table) Len() int {
	return len(t.codes)
}

// Names returns the known building names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t.codes))
	for name := range t.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize trims and composes name so that the same building exported with
// decomposed accents or stray padding still matches.
func normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
