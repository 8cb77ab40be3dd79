package rpmpkg

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/model"
)

var leadMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}
var headerMagic = []byte{0x8E, 0xAD, 0xE8}

const leadSize = 96
const headerPreambleSize = 16
const indexEntrySize = 16

// RPM tag constants (subset recognized by the extractor).
const (
	tagName          = 1000
	tagVersion       = 1001
	tagRelease       = 1002
	tagEpoch         = 1003
	tagSummary       = 1004
	tagDescription   = 1005
	tagBuildTime     = 1006
	tagSize          = 1009
	tagVendor        = 1011
	tagLicense       = 1014
	tagPackager      = 1015
	tagGroup         = 1016
	tagURL           = 1020
	tagOS            = 1021
	tagArch          = 1022
	tagSourceRpm     = 1044
	tagProvideName   = 1047
	tagRequireName   = 1049
	tagConflictName  = 1054
	tagChangelogTime = 1080
	tagChangelogName = 1081
	tagChangelogText = 1082
	tagObsoleteName  = 1090
	tagDirIndexes    = 1116
	tagBaseNames     = 1117
	tagDirNames      = 1118
)

// value types
const (
	typeInt32       = 4
	typeString      = 6
	typeStringArray = 8
	typeI18NString  = 9
)

type indexEntry struct {
	tag        uint32
	typ        uint32
	dataOffset uint32
	count      uint32
}

// headerSection is a parsed {tag: value} index over a header's data
// blob, plus the total byte length the section occupied (preamble +
// index + data), used to locate the next section.
type headerSection struct {
	strings  map[uint32]string
	arrays   map[uint32][]string
	int32s   map[uint32][]int32
	totalLen int
}

func parseHeaderSection(buf []byte, start int) (*headerSection, error) {
	if start+headerPreambleSize > len(buf) {
		return nil, fmt.Errorf("rpmpkg: header section at %d truncated before preamble", start)
	}
	if string(buf[start:start+3]) != string(headerMagic) {
		return nil, fmt.Errorf("rpmpkg: bad header magic at offset %d", start)
	}

	nindex := binary.BigEndian.Uint32(buf[start+8 : start+12])
	hsize := binary.BigEndian.Uint32(buf[start+12 : start+16])

	indexStart := start + headerPreambleSize
	dataStart := indexStart + int(nindex)*indexEntrySize
	dataEnd := dataStart + int(hsize)

	if dataEnd > len(buf) {
		return nil, fmt.Errorf("rpmpkg: header section at %d extends beyond buffer (truncated fetch)", start)
	}

	sect := &headerSection{
		strings:  make(map[uint32]string),
		arrays:   make(map[uint32][]string),
		int32s:   make(map[uint32][]int32),
		totalLen: dataEnd - start,
	}

	data := buf[dataStart:dataEnd]

	for i := uint32(0); i < nindex; i++ {
		entryOff := indexStart + int(i)*indexEntrySize
		if entryOff+indexEntrySize > len(buf) {
			break
		}
		e := indexEntry{
			tag:        binary.BigEndian.Uint32(buf[entryOff : entryOff+4]),
			typ:        binary.BigEndian.Uint32(buf[entryOff+4 : entryOff+8]),
			dataOffset: binary.BigEndian.Uint32(buf[entryOff+8 : entryOff+12]),
			count:      binary.BigEndian.Uint32(buf[entryOff+12 : entryOff+16]),
		}

		if int(e.dataOffset) > len(data) {
			continue
		}
		rest := data[e.dataOffset:]

		switch e.typ {
		case typeInt32:
			vals := make([]int32, 0, e.count)
			p := rest
			for c := uint32(0); c < e.count && len(p) >= 4; c++ {
				vals = append(vals, int32(binary.BigEndian.Uint32(p[:4])))
				p = p[4:]
			}
			sect.int32s[e.tag] = vals
		case typeString, typeI18NString:
			sect.strings[e.tag] = cstringAt(rest)
		case typeStringArray:
			vals := make([]string, 0, e.count)
			p := rest
			for c := uint32(0); c < e.count; c++ {
				s := cstringAt(p)
				vals = append(vals, s)
				adv := len(s) + 1
				if adv > len(p) {
					break
				}
				p = p[adv:]
			}
			sect.arrays[e.tag] = vals
		default:
			// unknown/malformed entries are silently skipped
		}
	}

	return sect, nil
}

func cstringAt(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func roundUp8(n int) int {
	if rem := n % 8; rem != 0 {
		return n + (8 - rem)
	}
	return n
}

func firstInt32(sect *headerSection, tag uint32) int {
	if vals, ok := sect.int32s[tag]; ok && len(vals) > 0 {
		return int(vals[0])
	}
	return 0
}

// ExtractHeader decodes an RPM's lead, skips the signature header, and
// parses the main header into a model.RpmHeader.
func ExtractHeader(buf []byte) (model.RpmHeader, error) {
	if len(buf) < 4 || string(buf[:4]) != string(leadMagic) {
		return model.RpmHeader{}, gwerrors.New(gwerrors.KindCorruptArchive, "rpm: bad lead magic")
	}
	if len(buf) < leadSize {
		return model.RpmHeader{}, gwerrors.New(gwerrors.KindCorruptArchive, "rpm: truncated lead")
	}

	sigSection, err := parseHeaderSection(buf, leadSize)
	if err != nil {
		return model.RpmHeader{}, gwerrors.Wrap(gwerrors.KindCorruptArchive, "rpm: signature header", err)
	}

	mainStart := roundUp8(leadSize + sigSection.totalLen)

	main, err := parseHeaderSection(buf, mainStart)
	if err != nil {
		return model.RpmHeader{}, gwerrors.Wrap(gwerrors.KindCorruptArchive, "rpm: main header", err)
	}

	h := model.RpmHeader{
		Name:        main.strings[tagName],
		Version:     main.strings[tagVersion],
		Release:     main.strings[tagRelease],
		Epoch:       firstInt32(main, tagEpoch),
		Summary:     main.strings[tagSummary],
		Description: main.strings[tagDescription],
		Arch:        main.strings[tagArch],
		License:     main.strings[tagLicense],
		Group:       main.strings[tagGroup],
		URL:         main.strings[tagURL],
		Vendor:      main.strings[tagVendor],
		Packager:    main.strings[tagPackager],
		BuildTime:   int64(firstInt32(main, tagBuildTime)),
		SourceRpm:   main.strings[tagSourceRpm],
		Requires:    main.arrays[tagRequireName],
		Provides:    main.arrays[tagProvideName],
		Conflicts:   main.arrays[tagConflictName],
		Obsoletes:   main.arrays[tagObsoleteName],
	}

	h.Files = buildFileList(main)
	h.Changelog = buildChangelog(main)

	return h, nil
}

// buildFileList reconstructs the per-file paths from the
// (basenames, dirnames, dirindexes) arrays: dirnames[dirindexes[i]] +
// basenames[i]; dirindex 0 is assumed if dirindexes is absent.
func buildFileList(sect *headerSection) []string {
	basenames := sect.arrays[tagBaseNames]
	if len(basenames) == 0 {
		return nil
	}
	dirnames := sect.arrays[tagDirNames]
	dirindexes := sect.int32s[tagDirIndexes]

	files := make([]string, 0, len(basenames))
	for i, base := range basenames {
		dirIdx := 0
		if i < len(dirindexes) {
			dirIdx = int(dirindexes[i])
		}
		dir := ""
		if dirIdx >= 0 && dirIdx < len(dirnames) {
			dir = dirnames[dirIdx]
		}
		files = append(files, dir+base)
	}
	return files
}

// buildChangelog zips (time, name, text) arrays and keeps the first 10
// entries, which are the 10 most recent since RPM headers store the
// changelog newest first.
func buildChangelog(sect *headerSection) []model.ChangelogEntry {
	times := sect.int32s[tagChangelogTime]
	names := sect.arrays[tagChangelogName]
	texts := sect.arrays[tagChangelogText]

	n := len(times)
	if len(names) < n {
		n = len(names)
	}
	if len(texts) < n {
		n = len(texts)
	}
	if n > 10 {
		n = 10
	}

	entries := make([]model.ChangelogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, model.ChangelogEntry{
			Time:   int64(times[i]),
			Author: names[i],
			Text:   strings.TrimSpace(texts[i]),
		})
	}
	return entries
}
