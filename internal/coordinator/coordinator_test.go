package coordinator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dionysius/pkggateway/internal/cache"
	"github.com/dionysius/pkggateway/internal/feed"
	"github.com/dionysius/pkggateway/internal/model"
	"github.com/dionysius/pkggateway/internal/sign"
)

func newTestCoordinator() *Coordinator {
	return New(feed.New(""), http.DefaultClient, 2, sign.New("", "", ""), cache.New(time.Minute, time.Minute), time.Minute)
}

func buildARMemberBytes(name string, data []byte) []byte {
	header := make([]byte, 60)
	copy(header, fmt.Sprintf("%-16s", name+"/"))
	copy(header[16:], fmt.Sprintf("%-12s", "0"))
	copy(header[28:], fmt.Sprintf("%-6s", "0"))
	copy(header[34:], fmt.Sprintf("%-6s", "0"))
	copy(header[40:], fmt.Sprintf("%-8s", "100644"))
	copy(header[48:], fmt.Sprintf("%-10d", len(data)))
	copy(header[58:], "`\n")

	out := append([]byte{}, header...)
	out = append(out, data...)
	if len(data)%2 != 0 {
		out = append(out, '\n')
	}
	return out
}

func buildTarEntryBytes(name string, data []byte) []byte {
	const blockSize = 512
	header := make([]byte, blockSize)
	copy(header[0:100], name)

	sizeOctal := fmt.Sprintf("%011o", len(data)) + "\x00"
	copy(header[124:136], sizeOctal)
	header[156] = '0'

	out := append([]byte{}, header...)
	out = append(out, data...)
	pad := blockSize - len(data)%blockSize
	if pad == blockSize {
		pad = 0
	}
	out = append(out, make([]byte, pad)...)
	return out
}

// buildMinimalDeb assembles a .deb byte stream with just enough
// structure for debpkg.ExtractControl to decode a control stanza.
func buildMinimalDeb(control string) []byte {
	tar := buildTarEntryBytes("./control", []byte(control))
	tar = append(tar, make([]byte, 512*2)...)

	buf := []byte("!<arch>\n")
	buf = append(buf, buildARMemberBytes("debian-binary", []byte("2.0\n"))...)
	buf = append(buf, buildARMemberBytes("control.tar", tar)...)
	return buf
}

func TestFetchRangeAcceptsPartialContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("partial-body"))
	}))
	defer server.Close()

	c := newTestCoordinator()
	body, err := c.fetchRange(context.Background(), server.URL, 1024)
	require.NoError(t, err)
	assert.Equal(t, []byte("partial-body"), body)
}

func TestFetchRangeAcceptsFullContentTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	c := newTestCoordinator()
	body, err := c.fetchRange(context.Background(), server.URL, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("01234"), body)
}

func TestFetchRangeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestCoordinator()
	_, err := c.fetchRange(context.Background(), server.URL, 10)
	assert.Error(t, err)
}

func TestFetchRangeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestCoordinator()
	_, err := c.fetchRange(context.Background(), server.URL, 10)
	assert.Error(t, err)
}

func TestDecodeDebAssetsDropsAssetWithoutDigest(t *testing.T) {
	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "foo_1.0_amd64.deb", DownloadURL: "http://unused", Digest: ""},
		}},
	}

	entries := c.DecodeDebAssets(context.Background(), releases, "main")
	assert.Empty(t, entries)
}

func TestDecodeDebAssetsDropsUnfetchableAsset(t *testing.T) {
	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "foo_1.0_amd64.deb", DownloadURL: "http://127.0.0.1:1", Digest: "sha256:abc"},
		}},
	}

	entries := c.DecodeDebAssets(context.Background(), releases, "main")
	assert.Empty(t, entries)
}

func TestDecodeDebAssetsIgnoresNonDebAssets(t *testing.T) {
	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "readme.txt", DownloadURL: "http://unused"},
		}},
	}

	entries := c.DecodeDebAssets(context.Background(), releases, "main")
	assert.Empty(t, entries)
}

func TestDecodeDebAssetsSuccess(t *testing.T) {
	deb := buildMinimalDeb("Package: foo\nVersion: 1.0\nArchitecture: amd64\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(deb)
	}))
	defer server.Close()

	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "foo_1.0_amd64.deb", Size: int64(len(deb)), DownloadURL: server.URL, Digest: "sha256:abc123"},
		}},
	}

	entries := c.DecodeDebAssets(context.Background(), releases, "main")
	require.Len(t, entries, 1)
	assert.Equal(t, "foo", entries[0].Control.Package)
	assert.Equal(t, "1.0", entries[0].Control.Version)
	assert.Equal(t, "abc123", entries[0].SHA256)
}

func TestDecodeRpmAssetsDropsUnfetchableAsset(t *testing.T) {
	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "foo-1.0-1.x86_64.rpm", DownloadURL: "http://127.0.0.1:1"},
		}},
	}

	entries := c.DecodeRpmAssets(context.Background(), releases)
	assert.Empty(t, entries)
}

func TestDecodeRpmAssetsIgnoresNonRpmAssets(t *testing.T) {
	c := newTestCoordinator()
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "readme.txt", DownloadURL: "http://unused"},
		}},
	}

	entries := c.DecodeRpmAssets(context.Background(), releases)
	assert.Empty(t, entries)
}

func TestFindAssetByFilename(t *testing.T) {
	releases := []model.Release{
		{ID: 1, Assets: []model.Asset{
			{Name: "foo_1.0_amd64.deb"},
			{Name: "bar_1.0_amd64.deb"},
		}},
	}

	a, ok := FindAssetByFilename(releases, "bar_1.0_amd64.deb")
	assert.True(t, ok)
	assert.Equal(t, "bar_1.0_amd64.deb", a.Name)

	_, ok = FindAssetByFilename(releases, "missing.deb")
	assert.False(t, ok)
}

func TestClearAllCache(t *testing.T) {
	c := newTestCoordinator()
	c.Cache.SetFingerprint("key", "abc")
	c.ClearAllCache()
	_, ok := c.Cache.Fingerprint("key")
	assert.False(t, ok)
}
