package index

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dionysius/pkggateway/internal/model"
)

// packagesFieldOrder is the fixed order optional fields appear in
// after Package/Version/Architecture.
var packagesFieldOrder = []string{
	"Maintainer", "Installed-Size", "Depends", "Recommends", "Suggests",
	"Conflicts", "Replaces", "Provides", "Section", "Priority",
	"Homepage", "Filename", "Size", "SHA256", "MD5sum", "Description",
}

// AdmittedDebEntries filters entries to those carrying a valid sha256
// digest (APT validates checksums; entries lacking one are excluded).
func AdmittedDebEntries(entries []model.DebPackageEntry) []model.DebPackageEntry {
	out := make([]model.DebPackageEntry, 0, len(entries))
	for _, e := range entries {
		if e.SHA256 != "" {
			out = append(out, e)
		}
	}
	return out
}

// FilterByArch returns the subset of entries visible under a given
// per-arch Packages file: when arch=="all", only arch-independent
// entries; otherwise entries matching arch plus all "all" entries.
func FilterByArch(entries []model.DebPackageEntry, arch string) []model.DebPackageEntry {
	out := make([]model.DebPackageEntry, 0, len(entries))
	for _, e := range entries {
		if arch == "all" {
			if e.Control.Architecture == "all" {
				out = append(out, e)
			}
			continue
		}
		if e.Control.Architecture == arch || e.Control.Architecture == "all" {
			out = append(out, e)
		}
	}
	return out
}

// SupportedArchitectures returns the sorted union of architectures
// detected among admitted entries, plus "all".
func SupportedArchitectures(entries []model.DebPackageEntry) []string {
	set := map[string]struct{}{"all": {}}
	for _, e := range entries {
		set[e.Control.Architecture] = struct{}{}
	}
	archs := make([]string, 0, len(set))
	for a := range set {
		archs = append(archs, a)
	}
	sort.Strings(archs)
	return archs
}

// formatDescription renders Description per the control-file
// continuation rules: the first line is the summary; subsequent lines
// are prefixed with a single space, and blank lines become " .".
func formatDescription(desc string) string {
	lines := strings.Split(desc, "\n")
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		b.WriteString("\n")
		if l == "" {
			b.WriteString(" .")
		} else {
			b.WriteString(" ")
			b.WriteString(l)
		}
	}
	return b.String()
}

// GeneratePackages emits a Packages file for the given (already
// arch-filtered, admitted) entries.
func GeneratePackages(entries []model.DebPackageEntry) []byte {
	var b strings.Builder

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "Package: %s\n", e.Control.Package)
		fmt.Fprintf(&b, "Version: %s\n", e.Control.Version)
		fmt.Fprintf(&b, "Architecture: %s\n", e.Control.Architecture)

		values := map[string]string{
			"Maintainer":     e.Control.Maintainer,
			"Installed-Size": nonZeroInt(e.Control.InstalledSize),
			"Depends":        e.Control.Depends,
			"Recommends":     e.Control.Recommends,
			"Suggests":       e.Control.Suggests,
			"Conflicts":      e.Control.Conflicts,
			"Replaces":       e.Control.Replaces,
			"Provides":       e.Control.Provides,
			"Section":        e.Control.Section,
			"Priority":       e.Control.Priority,
			"Homepage":       e.Control.Homepage,
			"Filename":       e.PoolPath,
			"Size":           strconv.FormatInt(e.Size, 10),
			"SHA256":         e.SHA256,
			"Description":    formatDescription(e.Control.Description),
		}

		for _, field := range packagesFieldOrder {
			v := values[field]
			if v == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}

	return []byte(b.String())
}

func nonZeroInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// ReleaseOptions configures fields of a synthesized Release file that
// default from owner/repo when unset.
type ReleaseOptions struct {
	Origin     string
	Label      string
	Suite      string
	Codename   string
	Components []string
}

// DefaultReleaseOptions builds the Release file's field defaults for
// a repository: Origin=owner/repo, Label=repo, Suite=Codename=stable,
// Components=[main].
func DefaultReleaseOptions(owner, repo string) ReleaseOptions {
	return ReleaseOptions{
		Origin:     owner + "/" + repo,
		Label:      repo,
		Suite:      "stable",
		Codename:   "stable",
		Components: []string{"main"},
	}
}

// GenerateRelease emits a Release file: header fields in order, then
// the mandatory SHA256 block.
func GenerateRelease(opts ReleaseOptions, architectures []string, publishedAt time.Time, entries []model.ReleaseIndexEntry) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "Origin: %s\n", opts.Origin)
	fmt.Fprintf(&b, "Label: %s\n", opts.Label)
	fmt.Fprintf(&b, "Suite: %s\n", opts.Suite)
	fmt.Fprintf(&b, "Codename: %s\n", opts.Codename)
	fmt.Fprintf(&b, "Date: %s\n", HTTPDate(publishedAt))
	fmt.Fprintf(&b, "Architectures: %s\n", strings.Join(architectures, " "))
	fmt.Fprintf(&b, "Components: %s\n", strings.Join(opts.Components, " "))
	fmt.Fprintf(&b, "Description: %s\n", opts.Label)
	b.WriteString("Acquire-By-Hash: yes\n")
	b.WriteString("SHA256:\n")

	for _, e := range entries {
		fmt.Fprintf(&b, " %s %s %s\n", e.SHA256, padSize(e.Size), e.Path)
	}

	return []byte(b.String())
}

// HTTPDate renders t as an RFC-7231 HTTP-date, e.g.
// "Mon, 15 Jan 2024 12:30:45 GMT".
func HTTPDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

// padSize right-space-pads a size to 8 characters, per the Release
// SHA256 block's fixed-width column.
func padSize(size int64) string {
	s := strconv.FormatInt(size, 10)
	if len(s) >= 8 {
		return s
	}
	return s + strings.Repeat(" ", 8-len(s))
}
