// Package model holds the data shapes shared across the gateway: the
// upstream release feed, the partition between stable and prerelease
// traffic, and the package records extracted from deb/rpm archives.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Asset is a single downloadable file attached to a Release.
type Asset struct {
	Name        string
	Size        int64
	DownloadURL string
	Digest      string // optional, "sha256:HEX"
}

// SHA256 splits a GitHub-style "algo:hex" digest and returns the hex
// part if the algorithm is sha256. ok is false when the asset carries
// no usable digest.
func (a Asset) SHA256() (hex string, ok bool) {
	if a.Digest == "" {
		return "", false
	}
	algo, hex := splitDigest(a.Digest)
	if algo != "sha256" || hex == "" {
		return "", false
	}
	return hex, true
}

func splitDigest(digest string) (algo, hex string) {
	idx := strings.Index(digest, ":")
	if idx < 0 {
		return "sha256", digest
	}
	return digest[:idx], digest[idx+1:]
}

// Release is one upstream tagged release, read-only from the gateway's
// point of view.
type Release struct {
	ID          int64
	Tag         string
	PublishedAt time.Time
	Prerelease  bool
	Assets      []Asset
}

// Variant partitions releases (and every cache key derived from them)
// into the stable and prerelease sets.
type Variant string

const (
	VariantStable     Variant = "stable"
	VariantPrerelease Variant = "prerelease"
)

// ParseVariant maps the optional URL "prerelease" path segment to a
// Variant: its absence selects stable.
func ParseVariant(segment string) Variant {
	if segment == "prerelease" {
		return VariantPrerelease
	}
	return VariantStable
}

// Admits reports whether a release belongs to this variant. Stable
// admits only non-prerelease releases; prerelease admits both, since a
// prerelease feed is a superset used by early adopters.
func (v Variant) Admits(r Release) bool {
	if v == VariantPrerelease {
		return true
	}
	return !r.Prerelease
}

// Fingerprint returns the release-set fingerprint: the numerically
// sorted, comma-joined list of admitted release ids. It is a cheap,
// deterministic cache-invalidation token, not a content hash.
func Fingerprint(releases []Release, variant Variant) string {
	ids := make([]int64, 0, len(releases))
	for _, r := range releases {
		if variant.Admits(r) {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// MostRecentPublish returns the latest PublishedAt across releases, so
// that synthesized indexes can be stamped with a timestamp derived
// from upstream data rather than wall-clock time, and therefore
// reproducible across regenerations of the same release set. Returns
// the zero time for an empty slice.
func MostRecentPublish(releases []Release) time.Time {
	var latest time.Time
	for _, r := range releases {
		if r.PublishedAt.After(latest) {
			latest = r.PublishedAt
		}
	}
	return latest
}

// Admitted filters releases to the given variant.
func Admitted(releases []Release, variant Variant) []Release {
	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		if variant.Admits(r) {
			out = append(out, r)
		}
	}
	return out
}

// DebianControl is the decoded subset of an RFC-822 control-file
// stanza the gateway cares about.
type DebianControl struct {
	Package       string
	Version       string
	Architecture  string
	Maintainer    string
	InstalledSize int
	Depends       string
	Recommends    string
	Suggests      string
	Conflicts     string
	Replaces      string
	Provides      string
	Section       string
	Priority      string
	Homepage      string
	Description   string
}

// DebPackageEntry is one admitted .deb asset, ready for index
// synthesis.
type DebPackageEntry struct {
	Control  DebianControl
	PoolPath string
	Size     int64
	SHA256   string
}

// PoolPath computes the Debian pool path for a package/asset pair:
// pool/{component}/{first-letter-of-package}/{package}/{assetName}.
func PoolPath(component, packageName, assetName string) string {
	letter := "x"
	if packageName != "" {
		letter = strings.ToLower(packageName[:1])
	}
	return fmt.Sprintf("pool/%s/%s/%s/%s", component, letter, packageName, assetName)
}

// ChangelogEntry is one RPM %changelog record.
type ChangelogEntry struct {
	Time   int64
	Author string
	Text   string
}

// RpmHeader is the decoded subset of an RPM header section the
// gateway cares about.
type RpmHeader struct {
	Name        string
	Version     string
	Release     string
	Epoch       int
	Summary     string
	Description string
	Arch        string
	License     string
	Group       string
	URL         string
	Vendor      string
	Packager    string
	BuildTime   int64
	SourceRpm   string
	Requires    []string
	Provides    []string
	Conflicts   []string
	Obsoletes   []string
	Files       []string
	Changelog   []ChangelogEntry
}

// RpmPackageEntry is one admitted .rpm asset, ready for index
// synthesis.
type RpmPackageEntry struct {
	Header       RpmHeader
	Filename     string
	Size         int64
	Checksum     string
	ChecksumType string
}

// ReleaseIndexEntry is one row of the Release file's SHA256 block:
// a path a client may fetch under a dist, with its size and digest.
type ReleaseIndexEntry struct {
	Path   string
	Size   int64
	SHA256 string
}
