// Package rpmpkg decodes RPM lead/header metadata over a bounded
// range-fetch buffer.
package rpmpkg

import "strings"

// RangeFetchSize is the number of leading bytes fetched for an .rpm:
// the main header plus file lists and truncated changelog fit in this
// budget for the overwhelming majority of packages.
const RangeFetchSize = 262144

// InferArchitecture returns the last dot-separated segment before
// ".rpm", normalized to the canonical RPM arch token. A filename with
// no dot-separated segment at all degrades to returning the whole
// trimmed name verbatim.
func InferArchitecture(filename string) string {
	name := strings.TrimSuffix(filename, ".rpm")
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	token := name[idx+1:]

	switch token {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "i386":
		return "i686"
	case "noarch":
		return "noarch"
	default:
		return token
	}
}
