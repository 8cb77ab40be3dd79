package rpmpkg

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldSpec struct {
	tag  uint32
	typ  uint32
	str  string
	arr  []string
	ints []int32
}

// buildHeaderSection renders one header section (preamble + index +
// data) from a list of fields, mirroring the on-disk layout
// parseHeaderSection expects.
func buildHeaderSection(fields []fieldSpec) []byte {
	var data []byte
	var entries []byte

	for _, f := range fields {
		offset := uint32(len(data))
		var count uint32

		switch f.typ {
		case typeInt32:
			for _, v := range f.ints {
				b := make([]byte, 4)
				binary.BigEndian.PutUint32(b, uint32(v))
				data = append(data, b...)
			}
			count = uint32(len(f.ints))
		case typeString, typeI18NString:
			data = append(data, []byte(f.str)...)
			data = append(data, 0)
			count = 1
		case typeStringArray:
			for _, s := range f.arr {
				data = append(data, []byte(s)...)
				data = append(data, 0)
			}
			count = uint32(len(f.arr))
		}

		entry := make([]byte, indexEntrySize)
		binary.BigEndian.PutUint32(entry[0:4], f.tag)
		binary.BigEndian.PutUint32(entry[4:8], f.typ)
		binary.BigEndian.PutUint32(entry[8:12], offset)
		binary.BigEndian.PutUint32(entry[12:16], count)
		entries = append(entries, entry...)
	}

	preamble := make([]byte, headerPreambleSize)
	copy(preamble[0:3], headerMagic)
	binary.BigEndian.PutUint32(preamble[8:12], uint32(len(fields)))
	binary.BigEndian.PutUint32(preamble[12:16], uint32(len(data)))

	out := append([]byte{}, preamble...)
	out = append(out, entries...)
	out = append(out, data...)
	return out
}

func buildRPM(mainFields []fieldSpec) []byte {
	buf := make([]byte, leadSize)
	copy(buf[0:4], leadMagic)

	sig := buildHeaderSection(nil)
	buf = append(buf, sig...)

	for len(buf)%8 != 0 {
		buf = append(buf, 0)
	}

	main := buildHeaderSection(mainFields)
	buf = append(buf, main...)
	return buf
}

func TestExtractHeaderBadMagic(t *testing.T) {
	_, err := ExtractHeader([]byte("not an rpm"))
	assert.Error(t, err)
}

func TestExtractHeaderTruncatedLead(t *testing.T) {
	buf := append([]byte{}, leadMagic...)
	_, err := ExtractHeader(buf)
	assert.Error(t, err)
}

func TestExtractHeaderBasicFields(t *testing.T) {
	buf := buildRPM([]fieldSpec{
		{tag: tagName, typ: typeString, str: "foo"},
		{tag: tagVersion, typ: typeString, str: "1.0"},
		{tag: tagRelease, typ: typeString, str: "1"},
		{tag: tagEpoch, typ: typeInt32, ints: []int32{1}},
		{tag: tagSummary, typ: typeI18NString, str: "a package"},
		{tag: tagArch, typ: typeString, str: "x86_64"},
		{tag: tagLicense, typ: typeString, str: "MIT"},
		{tag: tagBuildTime, typ: typeInt32, ints: []int32{1700000000}},
		{tag: tagProvideName, typ: typeStringArray, arr: []string{"foo"}},
		{tag: tagRequireName, typ: typeStringArray, arr: []string{"glibc", "libc.so.6"}},
	})

	h, err := ExtractHeader(buf)
	require.NoError(t, err)

	assert.Equal(t, "foo", h.Name)
	assert.Equal(t, "1.0", h.Version)
	assert.Equal(t, "1", h.Release)
	assert.Equal(t, 1, h.Epoch)
	assert.Equal(t, "a package", h.Summary)
	assert.Equal(t, "x86_64", h.Arch)
	assert.Equal(t, "MIT", h.License)
	assert.Equal(t, int64(1700000000), h.BuildTime)
	assert.Equal(t, []string{"foo"}, h.Provides)
	assert.Equal(t, []string{"glibc", "libc.so.6"}, h.Requires)
}

func TestExtractHeaderFileList(t *testing.T) {
	buf := buildRPM([]fieldSpec{
		{tag: tagName, typ: typeString, str: "foo"},
		{tag: tagDirNames, typ: typeStringArray, arr: []string{"/usr/bin/", "/usr/share/foo/"}},
		{tag: tagBaseNames, typ: typeStringArray, arr: []string{"foo", "README"}},
		{tag: tagDirIndexes, typ: typeInt32, ints: []int32{0, 1}},
	})

	h, err := ExtractHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/foo", "/usr/share/foo/README"}, h.Files)
}

func TestExtractHeaderChangelogTrimsToTenMostRecent(t *testing.T) {
	times := make([]int32, 12)
	names := make([]string, 12)
	texts := make([]string, 12)
	// RPM stores changelog entries newest first.
	for i := range times {
		times[i] = int32(1700000000 - i)
		names[i] = "author"
		texts[i] = "entry"
	}

	buf := buildRPM([]fieldSpec{
		{tag: tagName, typ: typeString, str: "foo"},
		{tag: tagChangelogTime, typ: typeInt32, ints: times},
		{tag: tagChangelogName, typ: typeStringArray, arr: names},
		{tag: tagChangelogText, typ: typeStringArray, arr: texts},
	})

	h, err := ExtractHeader(buf)
	require.NoError(t, err)
	assert.Len(t, h.Changelog, 10)
	assert.Equal(t, int64(1700000000), h.Changelog[0].Time)
}

func TestExtractHeaderNoFilesWhenBaseNamesAbsent(t *testing.T) {
	buf := buildRPM([]fieldSpec{
		{tag: tagName, typ: typeString, str: "foo"},
	})

	h, err := ExtractHeader(buf)
	require.NoError(t, err)
	assert.Nil(t, h.Files)
}
