// Package index synthesizes the exact byte-level repository index
// files (Debian Packages/Release, RPM repomd/primary/filelists/other)
// from extracted package metadata, with cross-referencing SHA-256
// digests and sizes.
package index

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dionysius/pkggateway/internal/compress"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GzipCompress compresses data with gzip, re-exported here so callers
// building index artifacts don't need to import the compress package
// directly for this one call.
func GzipCompress(data []byte) []byte {
	return compress.Gzip(data)
}
