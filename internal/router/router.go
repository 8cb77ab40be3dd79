// Package router decodes gateway request paths into a typed
// operation plus its parsed owner/repo/variant/arch/file parameters,
// without touching the HTTP request or response itself.
package router

import (
	"regexp"
	"strings"

	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/model"
)

var ownerRepoPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

const (
	maxOwnerLen = 39
	maxRepoLen  = 100
)

// Operation identifies which gateway capability a decoded path maps
// to.
type Operation int

const (
	OpReadme Operation = iota
	OpFavicon
	OpPublicKey
	OpInRelease
	OpRelease
	OpReleaseGPG
	OpPackages
	OpByHash
	OpDebRedirect
	OpRepomd
	OpRepomdAsc
	OpRpmMetadataXML
	OpRpmRedirect
	OpNotFound
)

// Route is the decoded shape of one request path.
type Route struct {
	Op        Operation
	Owner     string
	Repo      string
	Variant   model.Variant
	Dist      string
	Component string
	Arch      string
	Gzip      bool
	HashHex   string
	Filename  string
	XMLKind   string // "primary", "filelists", "other"
}

// Decode parses a URL path (as returned by (*url.URL).Path, already
// percent-decoded) into a Route. A malformed owner or repo segment
// returns a BadRequest error; an unrecognized shape returns a Route
// with Op==OpNotFound and a nil error (the caller maps that to 404).
func Decode(path string) (Route, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return Route{Op: OpReadme}, nil
	}

	segs := strings.Split(path, "/")

	if len(segs) == 1 && (segs[0] == "favicon.svg" || segs[0] == "favicon.ico") {
		return Route{Op: OpFavicon, Filename: segs[0]}, nil
	}

	if len(segs) < 2 {
		return Route{Op: OpNotFound}, nil
	}

	owner, repo := segs[0], segs[1]
	if err := validateSegment(owner, maxOwnerLen); err != nil {
		return Route{}, err
	}
	if err := validateSegment(repo, maxRepoLen); err != nil {
		return Route{}, err
	}

	rest := segs[2:]
	variant := model.VariantStable
	if len(rest) > 0 && rest[0] == "prerelease" {
		variant = model.VariantPrerelease
		rest = rest[1:]
	}

	base := Route{Owner: owner, Repo: repo, Variant: variant}

	if len(rest) == 1 && rest[0] == "public.key" {
		base.Op = OpPublicKey
		return base, nil
	}

	if len(rest) >= 2 && rest[0] == "dists" {
		return decodeDists(base, rest[1:])
	}

	if len(rest) >= 2 && rest[0] == "pool" {
		base.Op = OpDebRedirect
		base.Filename = rest[len(rest)-1]
		return base, nil
	}

	if len(rest) == 2 && rest[0] == "repodata" {
		return decodeRepodata(base, rest[1])
	}

	if len(rest) >= 2 && rest[0] == "Packages" {
		base.Op = OpRpmRedirect
		base.Filename = rest[len(rest)-1]
		return base, nil
	}

	return Route{Op: OpNotFound}, nil
}

func decodeDists(base Route, rest []string) (Route, error) {
	if len(rest) < 2 {
		return Route{Op: OpNotFound}, nil
	}
	base.Dist = rest[0]
	tail := rest[1:]

	switch {
	case len(tail) == 1 && tail[0] == "InRelease":
		base.Op = OpInRelease
		return base, nil
	case len(tail) == 1 && tail[0] == "Release":
		base.Op = OpRelease
		return base, nil
	case len(tail) == 1 && tail[0] == "Release.gpg":
		base.Op = OpReleaseGPG
		return base, nil
	case len(tail) >= 4 && tail[2] == "by-hash":
		base.Component = tail[0]
		base.Arch = strings.TrimPrefix(tail[1], "binary-")
		if len(tail) < 5 || tail[3] != "SHA256" {
			return Route{Op: OpNotFound}, nil
		}
		base.Op = OpByHash
		base.HashHex = tail[4]
		return base, nil
	case len(tail) == 3 && strings.HasPrefix(tail[1], "binary-"):
		base.Component = tail[0]
		base.Arch = strings.TrimPrefix(tail[1], "binary-")
		switch tail[2] {
		case "Packages":
			base.Op = OpPackages
			return base, nil
		case "Packages.gz":
			base.Op = OpPackages
			base.Gzip = true
			return base, nil
		}
	}

	return Route{Op: OpNotFound}, nil
}

func decodeRepodata(base Route, filename string) (Route, error) {
	switch filename {
	case "repomd.xml":
		base.Op = OpRepomd
		return base, nil
	case "repomd.xml.asc":
		base.Op = OpRepomdAsc
		return base, nil
	case "primary.xml", "filelists.xml", "other.xml":
		base.Op = OpRpmMetadataXML
		base.XMLKind = strings.TrimSuffix(filename, ".xml")
		return base, nil
	case "primary.xml.gz", "filelists.xml.gz", "other.xml.gz":
		base.Op = OpRpmMetadataXML
		base.XMLKind = strings.TrimSuffix(strings.TrimSuffix(filename, ".gz"), ".xml")
		base.Gzip = true
		return base, nil
	}
	return Route{Op: OpNotFound}, nil
}

func validateSegment(s string, maxLen int) error {
	if len(s) == 0 || len(s) > maxLen || !ownerRepoPattern.MatchString(s) {
		return gwerrors.New(gwerrors.KindBadRequest, "router: invalid path segment "+s)
	}
	return nil
}
