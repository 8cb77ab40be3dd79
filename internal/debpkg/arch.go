// Package debpkg decodes .deb control metadata over a bounded
// range-fetch buffer and infers the package's architecture.
package debpkg

import "regexp"

// RangeFetchSize is the number of leading bytes fetched for a .deb:
// the control archive is always the second AR member and in practice
// well under 64 KiB.
const RangeFetchSize = 65536

var (
	reAmd64   = regexp.MustCompile(`(?i)[_.-](amd64|x86_64|x64)[_.-]`)
	reArm64   = regexp.MustCompile(`(?i)(arm64|aarch64)`)
	reI386    = regexp.MustCompile(`(?i)(i386|i686|x86)[_.-]`)
	reArmhf   = regexp.MustCompile(`(?i)(armhf|armv7)`)
	reAllArch = regexp.MustCompile(`(?i)[_.-]all[_.-]`)
	reTrail64 = regexp.MustCompile(`^64`)
)

// InferArchitecture maps a .deb filename to a canonical arch token by
// testing the ordered regex list below. Matching is case-insensitive;
// the first hit wins. Default is "amd64".
func InferArchitecture(filename string) string {
	padded := "_" + filename + "_"

	switch {
	case reAmd64.MatchString(padded):
		return "amd64"
	case reArm64.MatchString(padded):
		return "arm64"
	}

	if m := reI386.FindStringIndex(padded); m != nil {
		// an i386/i686/x86 hit immediately followed by "64" is really
		// x86_64 and already handled above, so don't double-match it.
		if !reTrail64.MatchString(padded[m[1]:]) {
			return "i386"
		}
	}

	switch {
	case reArmhf.MatchString(padded):
		return "armhf"
	case reAllArch.MatchString(padded):
		return "all"
	default:
		return "amd64"
	}
}

// ResolveArchitecture applies the filename-wins rule: if the control
// file reports "all" but the filename encodes a specific arch, the
// filename's inference wins.
func ResolveArchitecture(controlArch, filename string) string {
	inferred := InferArchitecture(filename)
	if controlArch == "" {
		return inferred
	}
	if controlArch == "all" && inferred != "all" {
		// InferArchitecture falls back to "amd64" when the name carries no
		// arch token; only an actual token overrides "all".
		if inferred == "amd64" && !reAmd64.MatchString("_"+filename+"_") {
			return controlArch
		}
		return inferred
	}
	return controlArch
}
