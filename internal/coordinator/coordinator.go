// Package coordinator implements the gateway's per-request orchestration:
// cache-or-generate, background validate-and-refresh, and the parallel
// per-asset decode fan-out that builds a repository index from an
// upstream release set.
package coordinator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/dionysius/pkggateway/internal/cache"
	"github.com/dionysius/pkggateway/internal/debpkg"
	"github.com/dionysius/pkggateway/internal/feed"
	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/model"
	"github.com/dionysius/pkggateway/internal/rpmpkg"
	"github.com/dionysius/pkggateway/internal/sign"
)

// Coordinator ties the feed client, HTTP fetcher, decode pools, signer,
// and cache store together to answer repository read operations.
type Coordinator struct {
	Feed       *feed.Client
	HTTPClient *http.Client
	DebPool    pond.ResultPool[*decodedDeb]
	RpmPool    pond.ResultPool[*decodedRpm]
	Signer     *sign.Signer
	Cache      *cache.Store
	ContentTTL time.Duration
}

// New builds a Coordinator, constructing the typed decode pools with
// the given per-request-shape concurrency ceiling.
func New(feedClient *feed.Client, httpClient *http.Client, decodeConcurrency int, signer *sign.Signer, store *cache.Store, contentTTL time.Duration) *Coordinator {
	return &Coordinator{
		Feed:       feedClient,
		HTTPClient: httpClient,
		DebPool:    pond.NewResultPool[*decodedDeb](decodeConcurrency, pond.WithoutPanicRecovery()),
		RpmPool:    pond.NewResultPool[*decodedRpm](decodeConcurrency, pond.WithoutPanicRecovery()),
		Signer:     signer,
		Cache:      store,
		ContentTTL: contentTTL,
	}
}

// Shutdown stops the decode pools, waiting for in-flight tasks to
// drain.
func (c *Coordinator) Shutdown() {
	c.DebPool.StopAndWait()
	c.RpmPool.StopAndWait()
}

// decodedDeb is one successfully decoded .deb asset, or nil for a
// dropped one.
type decodedDeb struct {
	entry model.DebPackageEntry
}

// decodedRpm is one successfully decoded .rpm asset, or nil for a
// dropped one.
type decodedRpm struct {
	entry    model.RpmPackageEntry
	filename string
}

// ReleaseSet is the admitted, fingerprinted upstream state for one
// owner/repo/variant.
type ReleaseSet struct {
	Releases    []model.Release
	Fingerprint string
}

func (c *Coordinator) listReleases(ctx context.Context, owner, repo string, variant model.Variant) (ReleaseSet, error) {
	all, err := c.Feed.ListReleases(ctx, owner, repo)
	if err != nil {
		return ReleaseSet{}, err
	}
	admitted := model.Admitted(all, variant)
	return ReleaseSet{Releases: admitted, Fingerprint: model.Fingerprint(all, variant)}, nil
}

// fingerprintKey is the cache key for a variant's release-set
// fingerprint.
func fingerprintKey(owner, repo string, variant model.Variant) string {
	return fmt.Sprintf("release-ids-hash/%s/%s/%s", variant, owner, repo)
}

// EnsureFresh implements the read-path freshness protocol: if a
// fingerprint is cached it is trusted for this request and a
// validate-and-refresh is kicked off in the background; on a miss the
// releases are listed synchronously and regenerate runs before the
// fingerprint is stored. On a cache hit the returned ReleaseSet
// carries only the cached fingerprint, with no Releases.
func (c *Coordinator) EnsureFresh(ctx context.Context, owner, repo string, variant model.Variant, regenerate func(ReleaseSet) error) (ReleaseSet, error) {
	key := fingerprintKey(owner, repo, variant)

	if fp, ok := c.Cache.Fingerprint(key); ok {
		go c.backgroundRefresh(context.Background(), owner, repo, variant, fp, regenerate)
		return ReleaseSet{Fingerprint: fp}, nil
	}

	set, err := c.listReleases(ctx, owner, repo, variant)
	if err != nil {
		return ReleaseSet{}, err
	}
	if err := regenerate(set); err != nil {
		return ReleaseSet{}, err
	}
	c.Cache.SetFingerprint(key, set.Fingerprint)
	return set, nil
}

func (c *Coordinator) backgroundRefresh(ctx context.Context, owner, repo string, variant model.Variant, cachedFingerprint string, regenerate func(ReleaseSet) error) {
	set, err := c.listReleases(ctx, owner, repo, variant)
	if err != nil {
		slog.Warn("background refresh: list releases failed", "owner", owner, "repo", repo, "error", err)
		return
	}
	if set.Fingerprint == cachedFingerprint {
		return
	}
	if err := regenerate(set); err != nil {
		slog.Warn("background refresh: regenerate failed", "owner", owner, "repo", repo, "error", err)
		return
	}
	c.Cache.SetFingerprint(fingerprintKey(owner, repo, variant), set.Fingerprint)
}

// fetchRange performs a bounded range-fetch: GET with a Range header
// requesting the leading n bytes, accepting both 206 (partial content)
// and 200 (server ignored the range and returned everything, in which
// case the body is truncated to n).
func (c *Coordinator) fetchRange(ctx context.Context, url string, n int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindUpstreamFetch, "coordinator: build range request", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindUpstreamFetch, "coordinator: range fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, gwerrors.New(gwerrors.KindUpstreamRateLimit, "coordinator: upstream rate limited")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, gwerrors.New(gwerrors.KindUpstreamFetch, fmt.Sprintf("coordinator: upstream status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, n))
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindUpstreamFetch, "coordinator: read range body", err)
	}
	return body, nil
}

// DecodeDebAssets fans out a range-fetch + control extraction over
// every .deb asset in releases, concurrently, dropping individual
// failures rather than failing the whole request.
func (c *Coordinator) DecodeDebAssets(ctx context.Context, releases []model.Release, component string) []model.DebPackageEntry {
	group := c.DebPool.NewGroupContext(ctx)

	for _, r := range releases {
		for _, a := range r.Assets {
			if !strings.HasSuffix(a.Name, ".deb") {
				continue
			}
			asset := a
			group.SubmitErr(func() (*decodedDeb, error) {
				sha, ok := asset.SHA256()
				if !ok {
					return nil, nil
				}
				buf, err := c.fetchRange(ctx, asset.DownloadURL, debpkg.RangeFetchSize)
				if err != nil {
					slog.Warn("deb asset decode: range fetch failed", "asset", asset.Name, "error", err)
					return nil, nil
				}
				control, err := debpkg.ExtractControl(buf)
				if err != nil {
					slog.Warn("deb asset decode: control extraction failed", "asset", asset.Name, "error", err)
					return nil, nil
				}
				entry := debpkg.BuildEntry(control, component, asset.Name, asset.Size, sha)
				return &decodedDeb{entry: entry}, nil
			})
		}
	}

	results, _ := group.Wait()

	out := make([]model.DebPackageEntry, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r.entry)
		}
	}
	return out
}

// DecodeRpmAssets fans out a range-fetch + header extraction over
// every .rpm asset in releases.
func (c *Coordinator) DecodeRpmAssets(ctx context.Context, releases []model.Release) []model.RpmPackageEntry {
	group := c.RpmPool.NewGroupContext(ctx)

	for _, r := range releases {
		for _, a := range r.Assets {
			if !strings.HasSuffix(a.Name, ".rpm") {
				continue
			}
			asset := a
			group.SubmitErr(func() (*decodedRpm, error) {
				buf, err := c.fetchRange(ctx, asset.DownloadURL, rpmpkg.RangeFetchSize)
				if err != nil {
					slog.Warn("rpm asset decode: range fetch failed", "asset", asset.Name, "error", err)
					return nil, nil
				}
				header, err := rpmpkg.ExtractHeader(buf)
				if err != nil {
					slog.Warn("rpm asset decode: header extraction failed", "asset", asset.Name, "error", err)
					return nil, nil
				}
				if header.Arch == "" {
					header.Arch = rpmpkg.InferArchitecture(asset.Name)
				}
				sha, checksumType := "", ""
				if hex, ok := asset.SHA256(); ok {
					sha, checksumType = hex, "sha256"
				}
				entry := model.RpmPackageEntry{
					Header:       header,
					Filename:     "Packages/" + asset.Name,
					Size:         asset.Size,
					Checksum:     sha,
					ChecksumType: checksumType,
				}
				return &decodedRpm{entry: entry, filename: asset.Name}, nil
			})
		}
	}

	results, _ := group.Wait()

	out := make([]model.RpmPackageEntry, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r.entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// FindAssetByFilename looks a binary's filename up in the admitted
// release set, for the pool/Packages redirect operations.
func FindAssetByFilename(releases []model.Release, filename string) (model.Asset, bool) {
	for _, r := range releases {
		for _, a := range r.Assets {
			if a.Name == filename {
				return a, true
			}
		}
	}
	return model.Asset{}, false
}

// ClearAllCache drops every cached fingerprint and content entry in
// the store, for all repositories and both variants; it is not scoped
// to the owner/repo of the request that triggered it. Used by the
// ?cache=false query flag.
func (c *Coordinator) ClearAllCache() {
	c.Cache.ClearAll()
}
