// Package feed lists the upstream tagged releases a repository
// exposes, adapting the GitHub releases API to the gateway's own
// model.Release/model.Asset shapes.
package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v80/github"

	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/model"
)

// Client lists releases for a single owner/repo pair.
type Client struct {
	gh *github.Client
}

// New builds a Client. token is the upstream authorization token
// (UPSTREAM_TOKEN); an empty token makes unauthenticated, rate-limited
// requests.
func New(token string) *Client {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh}
}

// ListReleases returns every release of owner/repo, across all pages,
// translated into the gateway's release model.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]model.Release, error) {
	var out []model.Release

	opt := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opt)
		if err != nil {
			if isRateLimit(err) {
				return nil, gwerrors.Wrap(gwerrors.KindUpstreamRateLimit, "feed: github rate limit", err)
			}
			return nil, gwerrors.Wrap(gwerrors.KindUpstreamFetch, "feed: list releases", err)
		}

		for _, r := range releases {
			if r.GetDraft() {
				continue
			}
			out = append(out, translateRelease(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return out, nil
}

func translateRelease(r *github.RepositoryRelease) model.Release {
	assets := make([]model.Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, model.Asset{
			Name:        a.GetName(),
			Size:        int64(a.GetSize()),
			DownloadURL: a.GetBrowserDownloadURL(),
			Digest:      a.GetDigest(),
		})
	}

	return model.Release{
		ID:          r.GetID(),
		Tag:         r.GetTagName(),
		PublishedAt: r.GetPublishedAt().Time,
		Prerelease:  r.GetPrerelease(),
		Assets:      assets,
	}
}

func isRateLimit(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "API rate limit") || strings.Contains(msg, "rate limit exceeded")
}

// ParseDigest splits a GitHub-style "algo:hex" asset digest, defaulting
// to sha256 when no algorithm prefix is present.
func ParseDigest(digest string) (algo, hex string) {
	if digest == "" {
		return "", ""
	}
	if idx := strings.Index(digest, ":"); idx >= 0 {
		return digest[:idx], digest[idx+1:]
	}
	return "sha256", digest
}

// ValidateOwnerRepo applies the gateway's path-segment constraints to
// a candidate owner or repo name: GitHub's own handle rules, ASCII
// alphanumerics plus dot/underscore/hyphen, not leading or trailing on
// a separator.
func ValidateOwnerRepo(segment string, maxLen int) error {
	if segment == "" || len(segment) > maxLen {
		return fmt.Errorf("feed: segment length out of bounds: %q", segment)
	}
	first, last := segment[0], segment[len(segment)-1]
	if !isAlnum(first) || !isAlnum(last) {
		return fmt.Errorf("feed: segment must start and end alphanumeric: %q", segment)
	}
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if !isAlnum(c) && c != '.' && c != '_' && c != '-' {
			return fmt.Errorf("feed: invalid character in segment: %q", segment)
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
