// Package compress decompresses the codecs a .deb control archive or
// an RPM payload may use, bounded to an in-memory buffer rather than a
// file on disk: gzip, xz, and zstd. It also exposes the gzip
// compressor used for synthesized index artifacts.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format identifies a supported decompression codec.
type Format string

const (
	FormatNone Format = ""
	FormatGzip Format = "gz"
	FormatXZ   Format = "xz"
	FormatZstd Format = "zst"
)

// DetectBySuffix maps a control.tar.* member name to a Format, the way
// the deb extractor selects a decompressor by archive-member suffix.
func DetectBySuffix(memberName string) (Format, bool) {
	switch {
	case memberName == "control.tar":
		return FormatNone, true
	case strings.HasSuffix(memberName, ".gz"):
		return FormatGzip, true
	case strings.HasSuffix(memberName, ".xz"):
		return FormatXZ, true
	case strings.HasSuffix(memberName, ".zst"):
		return FormatZstd, true
	default:
		return "", false
	}
}

// Magic bytes for each supported codec, per the external-interface
// compression-magic table.
var (
	GzipMagic = []byte{0x1F, 0x8B}
	XZMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	ZstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// DefaultMaxDecompressedSize bounds decompression output to deny
// compression-bomb attacks on untrusted upstream data.
const DefaultMaxDecompressedSize = 4 << 20 // 4 MiB

var (
	xzReaderOnce sync.Once
	xzReaderErr  error
)

// warmXZ instantiates the xz reader machinery exactly once per
// process; later callers block on the same sync.Once rather than
// racing to initialize it in parallel.
func warmXZ() error {
	xzReaderOnce.Do(func() {
		_, xzReaderErr = xz.NewReader(bytes.NewReader(nil))
		if xzReaderErr == io.EOF || xzReaderErr == io.ErrUnexpectedEOF {
			xzReaderErr = nil
		}
	})
	return xzReaderErr
}

// Decompress decompresses data according to format, bounded to maxSize
// bytes of output. If maxSize is 0, DefaultMaxDecompressedSize is used.
func Decompress(format Format, data []byte, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}

	var reader io.Reader
	switch format {
	case FormatNone:
		return data, nil
	case FormatGzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compress: gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case FormatXZ:
		if err := warmXZ(); err != nil {
			return nil, fmt.Errorf("compress: xz init: %w", err)
		}
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compress: xz: %w", err)
		}
		reader = xr
	case FormatZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, fmt.Errorf("compress: unsupported codec %q", format)
	}

	limited := io.LimitReader(reader, maxSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("compress: decompress: %w", err)
	}
	if int64(len(out)) > maxSize {
		return nil, fmt.Errorf("compress: decompressed output exceeds %d bytes", maxSize)
	}
	return out, nil
}

// Gzip compresses data, producing output whose first two bytes are
// the gzip magic 1F 8B.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}
