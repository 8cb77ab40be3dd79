package archive

import (
	"fmt"
	"strconv"
	"strings"
)

const blockSize = 512

// TarEntry is one regular file decoded from a tar stream.
type TarEntry struct {
	Name string
	Data []byte
}

// skip typeflags: directory, GNU long name, POSIX extended headers.
const (
	typeDirectory    = '5'
	typeGNULongName  = 'L'
	typeExtendedPax  = 'x'
	typeExtendedPax2 = 'g'
	typeRegular      = '0'
	typeRegularOld   = 0
)

// ParseTar decodes a POSIX/UStar tar stream, surfacing only regular
// file entries. A block of all zero bytes terminates the archive.
func ParseTar(buf []byte) ([]TarEntry, error) {
	var entries []TarEntry
	off := 0

	for off+blockSize <= len(buf) {
		header := buf[off : off+blockSize]

		if isZeroBlock(header) {
			break
		}

		name := cstring(header[0:100])
		sizeField := strings.TrimSpace(strings.TrimRight(string(header[124:136]), "\x00"))
		size, err := parseOctal(sizeField)
		if err != nil {
			return nil, fmt.Errorf("archive: bad tar size for %q: %w", name, err)
		}

		typeflag := header[156]

		if string(header[257:263]) == "ustar\x00" || string(header[257:262]) == "ustar" {
			prefix := cstring(header[345:500])
			if prefix != "" {
				name = prefix + "/" + name
			}
		}
		name = strings.TrimPrefix(name, "./")

		off += blockSize

		dataEnd := off + size
		if dataEnd > len(buf) {
			dataEnd = len(buf)
		}
		data := buf[off:dataEnd]

		switch typeflag {
		case typeDirectory, typeGNULongName, typeExtendedPax, typeExtendedPax2:
			// not surfaced, fall through to advance past payload
		case typeRegular, typeRegularOld:
			entries = append(entries, TarEntry{Name: name, Data: data})
		}

		advance := size
		if rem := advance % blockSize; rem != 0 {
			advance += blockSize - rem
		}
		off += advance
	}

	return entries, nil
}

func isZeroBlock(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func cstring(b []byte) string {
	if idx := indexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	return strings.TrimSpace(string(b))
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func parseOctal(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// FindByBasename returns the first entry whose base name equals name.
func FindByBasename(entries []TarEntry, name string) (TarEntry, bool) {
	for _, e := range entries {
		base := e.Name
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		if base == name {
			return e, true
		}
	}
	return TarEntry{}, false
}
