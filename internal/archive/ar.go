// Package archive decodes the two container formats a .deb's control
// metadata is nested in: the common Unix AR archive format and POSIX
// tar. Both parsers work against an in-memory buffer produced by a
// bounded range-fetch, never against a full file on disk.
package archive

import (
	"fmt"
	"strconv"
	"strings"
)

const arMagic = "!<arch>\n"

// Member is one decoded AR archive member: its name and its payload
// bytes, already stripped of any BSD long-name prefix.
type Member struct {
	Name string
	Data []byte
}

// ParseAR decodes an AR archive. It stops without error at the first
// 60-byte header that is not fully inside buf. It fails on a missing
// magic, an unparsable or negative member size, a member whose data
// extends beyond buf, and a bad BSD long-name length.
func ParseAR(buf []byte) ([]Member, error) {
	if len(buf) < len(arMagic) || string(buf[:len(arMagic)]) != arMagic {
		return nil, fmt.Errorf("archive: bad AR magic")
	}

	var members []Member
	off := len(arMagic)

	for off+60 <= len(buf) {
		header := buf[off : off+60]
		off += 60

		name := strings.TrimRight(string(header[0:16]), " ")
		name = strings.TrimSuffix(name, "/")

		sizeField := strings.TrimSpace(string(header[48:58]))
		size, err := strconv.Atoi(sizeField)
		if err != nil {
			return nil, fmt.Errorf("archive: bad AR member size for %q: %w", name, err)
		}
		if size < 0 {
			return nil, fmt.Errorf("archive: negative AR member size for %q", name)
		}

		if off+size > len(buf) {
			return nil, fmt.Errorf("archive: AR member %q size %d extends beyond buffer", name, size)
		}

		data := buf[off : off+size]

		if strings.HasPrefix(name, "#1/") {
			longLen, err := strconv.Atoi(strings.TrimPrefix(name, "#1/"))
			if err != nil || longLen < 0 || longLen > size {
				return nil, fmt.Errorf("archive: bad BSD long name length in %q", name)
			}
			name = strings.TrimRight(string(data[:longLen]), "\x00")
			data = data[longLen:]
		}

		members = append(members, Member{Name: name, Data: data})

		off += size
		if size%2 != 0 {
			off++
		}
	}

	return members, nil
}

// Find returns the first member whose name has the given prefix.
func Find(members []Member, prefix string) (Member, bool) {
	for _, m := range members {
		if strings.HasPrefix(m.Name, prefix) {
			return m, true
		}
	}
	return Member{}, false
}
