package index

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex(t *testing.T) {
	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), SHA256Hex([]byte("hello")))
}

func TestGzipCompressOutputDiffersFromInput(t *testing.T) {
	compressed := GzipCompress([]byte("payload"))
	assert.NotEmpty(t, compressed)
	assert.NotEqual(t, []byte("payload"), compressed)
}
