package index

import (
	"fmt"
	"strings"
	"time"

	"github.com/dionysius/pkggateway/internal/model"
)

// primaryEntry renders one <package type="rpm"> record of primary.xml.
func primaryEntry(e model.RpmPackageEntry, checksumPkgid string) string {
	h := e.Header
	var b strings.Builder

	fmt.Fprintf(&b, "  <package type=\"rpm\">\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", EscapeXML(h.Name))
	fmt.Fprintf(&b, "    <arch>%s</arch>\n", EscapeXML(h.Arch))
	fmt.Fprintf(&b, "    <version epoch=\"%d\" ver=\"%s\" rel=\"%s\"/>\n", h.Epoch, EscapeXML(h.Version), EscapeXML(h.Release))
	pkgid := "NO"
	if checksumPkgid != "" {
		pkgid = "YES"
	}
	fmt.Fprintf(&b, "    <checksum type=\"sha256\" pkgid=\"%s\">%s</checksum>\n", pkgid, e.Checksum)
	fmt.Fprintf(&b, "    <summary>%s</summary>\n", EscapeXML(h.Summary))
	fmt.Fprintf(&b, "    <description>%s</description>\n", EscapeXML(h.Description))
	fmt.Fprintf(&b, "    <packager>%s</packager>\n", EscapeXML(h.Packager))
	fmt.Fprintf(&b, "    <url>%s</url>\n", EscapeXML(h.URL))
	fmt.Fprintf(&b, "    <time file=\"%d\" build=\"%d\"/>\n", h.BuildTime, h.BuildTime)
	fmt.Fprintf(&b, "    <size package=\"%d\" installed=\"0\" archive=\"0\"/>\n", e.Size)
	fmt.Fprintf(&b, "    <location href=\"%s\"/>\n", EscapeXML(e.Filename))
	b.WriteString("    <format>\n")
	fmt.Fprintf(&b, "      <rpm:license>%s</rpm:license>\n", EscapeXML(h.License))
	fmt.Fprintf(&b, "      <rpm:vendor>%s</rpm:vendor>\n", EscapeXML(h.Vendor))
	fmt.Fprintf(&b, "      <rpm:group>%s</rpm:group>\n", EscapeXML(h.Group))
	fmt.Fprintf(&b, "      <rpm:sourcerpm>%s</rpm:sourcerpm>\n", EscapeXML(h.SourceRpm))
	b.WriteString("      <rpm:provides>\n")
	for _, p := range h.Provides {
		fmt.Fprintf(&b, "        <rpm:entry name=\"%s\"/>\n", EscapeXML(p))
	}
	b.WriteString("      </rpm:provides>\n")
	b.WriteString("      <rpm:requires>\n")
	for _, r := range h.Requires {
		fmt.Fprintf(&b, "        <rpm:entry name=\"%s\"/>\n", EscapeXML(r))
	}
	b.WriteString("      </rpm:requires>\n")
	if len(h.Conflicts) > 0 {
		b.WriteString("      <rpm:conflicts>\n")
		for _, c := range h.Conflicts {
			fmt.Fprintf(&b, "        <rpm:entry name=\"%s\"/>\n", EscapeXML(c))
		}
		b.WriteString("      </rpm:conflicts>\n")
	}
	if len(h.Obsoletes) > 0 {
		b.WriteString("      <rpm:obsoletes>\n")
		for _, o := range h.Obsoletes {
			fmt.Fprintf(&b, "        <rpm:entry name=\"%s\"/>\n", EscapeXML(o))
		}
		b.WriteString("      </rpm:obsoletes>\n")
	}
	for _, f := range h.Files {
		fmt.Fprintf(&b, "      <file>%s</file>\n", EscapeXML(f))
	}
	b.WriteString("    </format>\n")
	b.WriteString("  </package>\n")

	return b.String()
}

// GeneratePrimaryXML emits primary.xml for the given entries. checksums
// maps each entry's Filename to the sha256 digest of the raw .rpm file;
// each <checksum> carries pkgid="YES" when that digest is present and
// pkgid="NO" otherwise.
func GeneratePrimaryXML(entries []model.RpmPackageEntry, checksums map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<metadata xmlns=\"http://linux.duke.edu/metadata/common\" xmlns:rpm=\"http://linux.duke.edu/metadata/rpm\" packages=\"%d\">\n", len(entries))
	for _, e := range entries {
		b.WriteString(primaryEntry(e, checksums[e.Filename]))
	}
	b.WriteString("</metadata>\n")
	return []byte(b.String())
}

// GenerateFilelistsXML emits filelists.xml: the full per-package file
// manifest, keyed by the same pkgid used in primary.xml.
func GenerateFilelistsXML(entries []model.RpmPackageEntry, checksums map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<filelists xmlns=\"http://linux.duke.edu/metadata/filelists\" packages=\"%d\">\n", len(entries))
	for _, e := range entries {
		h := e.Header
		fmt.Fprintf(&b, "  <package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n", checksums[e.Filename], EscapeXML(h.Name), EscapeXML(h.Arch))
		fmt.Fprintf(&b, "    <version epoch=\"%d\" ver=\"%s\" rel=\"%s\"/>\n", h.Epoch, EscapeXML(h.Version), EscapeXML(h.Release))
		for _, f := range h.Files {
			typ := "file"
			if strings.HasSuffix(f, "/") {
				typ = "dir"
			}
			fmt.Fprintf(&b, "    <file type=\"%s\">%s</file>\n", typ, EscapeXML(f))
		}
		b.WriteString("  </package>\n")
	}
	b.WriteString("</filelists>\n")
	return []byte(b.String())
}

// GenerateOtherXML emits other.xml: the %changelog entries for each
// package, capped to the 10 most recent per model.RpmHeader.Changelog.
func GenerateOtherXML(entries []model.RpmPackageEntry, checksums map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<otherdata xmlns=\"http://linux.duke.edu/metadata/other\" packages=\"%d\">\n", len(entries))
	for _, e := range entries {
		h := e.Header
		fmt.Fprintf(&b, "  <package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n", checksums[e.Filename], EscapeXML(h.Name), EscapeXML(h.Arch))
		fmt.Fprintf(&b, "    <version epoch=\"%d\" ver=\"%s\" rel=\"%s\"/>\n", h.Epoch, EscapeXML(h.Version), EscapeXML(h.Release))
		for _, c := range h.Changelog {
			fmt.Fprintf(&b, "    <changelog author=\"%s\" date=\"%d\">%s</changelog>\n", EscapeXML(c.Author), c.Time, EscapeXML(c.Text))
		}
		b.WriteString("  </package>\n")
	}
	b.WriteString("</otherdata>\n")
	return []byte(b.String())
}

// RepomdData describes one repomd.xml <data> entry: the relative and
// compressed forms of a metadata file plus their digests and sizes.
type RepomdData struct {
	Type         string
	Location     string
	Checksum     string
	OpenChecksum string
	Size         int64
	OpenSize     int64
	Timestamp    int64
}

// GenerateRepomdXML emits repomd.xml referencing each metadata file's
// compressed location, checksum, and the checksum/size of its
// decompressed ("open") form, plus a shared revision timestamp derived
// from the release set's most recent publish time.
func GenerateRepomdXML(entries []RepomdData, revision time.Time) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<repomd xmlns="http://linux.duke.edu/metadata/repo" xmlns:rpm="http://linux.duke.edu/metadata/rpm">` + "\n")
	fmt.Fprintf(&b, "  <revision>%d</revision>\n", revision.Unix())
	for _, d := range entries {
		fmt.Fprintf(&b, "  <data type=\"%s\">\n", d.Type)
		fmt.Fprintf(&b, "    <checksum type=\"sha256\">%s</checksum>\n", d.Checksum)
		fmt.Fprintf(&b, "    <open-checksum type=\"sha256\">%s</open-checksum>\n", d.OpenChecksum)
		fmt.Fprintf(&b, "    <location href=\"%s\"/>\n", EscapeXML(d.Location))
		fmt.Fprintf(&b, "    <timestamp>%d</timestamp>\n", d.Timestamp)
		fmt.Fprintf(&b, "    <size>%d</size>\n", d.Size)
		fmt.Fprintf(&b, "    <open-size>%d</open-size>\n", d.OpenSize)
		b.WriteString("  </data>\n")
	}
	b.WriteString("</repomd>\n")
	return []byte(b.String())
}

// BuildRepomdData compresses a raw metadata document with gzip and
// returns the RepomdData describing both forms, ready for
// GenerateRepomdXML.
func BuildRepomdData(typ string, raw []byte, revision time.Time) ([]byte, RepomdData) {
	compressed := GzipCompress(raw)
	d := RepomdData{
		Type:         typ,
		Location:     "repodata/" + typ + ".xml.gz",
		Checksum:     SHA256Hex(compressed),
		OpenChecksum: SHA256Hex(raw),
		Size:         int64(len(compressed)),
		OpenSize:     int64(len(raw)),
		Timestamp:    revision.Unix(),
	}
	return compressed, d
}
