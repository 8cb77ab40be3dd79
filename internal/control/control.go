// Package control parses Debian RFC-822-style control-file stanzas
// into field/value records, and decodes the fields the gateway cares
// about into a model.DebianControl.
package control

import (
	"strconv"
	"strings"

	"github.com/dionysius/pkggateway/internal/model"
)

// Fields is a control-file stanza with field names folded to
// lowercase.
type Fields map[string]string

// Parse decodes an RFC-822-style control-file stanza: "Field: value"
// lines, with continuation lines (leading space or tab) appended to
// the previous field's value, preserving line breaks. A continuation
// line consisting solely of "." denotes a blank paragraph line.
func Parse(text string) Fields {
	fields := make(Fields)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var lastKey string

	for _, line := range lines {
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if lastKey == "" {
				continue
			}
			cont := line[1:]
			if cont == "." {
				cont = ""
			}
			fields[lastKey] += "\n" + cont
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		fields[key] = value
		lastKey = key
	}

	return fields
}

// Get returns a field's value, or "" if absent.
func (f Fields) Get(name string) string {
	return f[strings.ToLower(name)]
}

// DecodeDebianControl builds a model.DebianControl from parsed
// fields. Missing architecture defaults to "all", missing priority
// defaults to "optional", and absent numeric fields default to 0.
func DecodeDebianControl(f Fields) model.DebianControl {
	arch := f.Get("architecture")
	if arch == "" {
		arch = "all"
	}
	priority := f.Get("priority")
	if priority == "" {
		priority = "optional"
	}

	installedSize := 0
	if v := f.Get("installed-size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			installedSize = n
		}
	}

	return model.DebianControl{
		Package:       f.Get("package"),
		Version:       f.Get("version"),
		Architecture:  arch,
		Maintainer:    f.Get("maintainer"),
		InstalledSize: installedSize,
		Depends:       f.Get("depends"),
		Recommends:    f.Get("recommends"),
		Suggests:      f.Get("suggests"),
		Conflicts:     f.Get("conflicts"),
		Replaces:      f.Get("replaces"),
		Provides:      f.Get("provides"),
		Section:       f.Get("section"),
		Priority:      priority,
		Homepage:      f.Get("homepage"),
		Description:   f.Get("description"),
	}
}
