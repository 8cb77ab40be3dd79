package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dionysius/pkggateway/internal/cache"
	"github.com/dionysius/pkggateway/internal/coordinator"
	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/index"
	"github.com/dionysius/pkggateway/internal/model"
	"github.com/dionysius/pkggateway/internal/router"
)

const mainComponent = "main"

// handler dispatches decoded routes to the artifacts the coordinator
// produces, serving cached bytes whenever the release set backing
// them is still current.
type handler struct {
	coordinator *coordinator.Coordinator
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, err := router.Decode(r.URL.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("cache") == "false" {
		h.coordinator.ClearAllCache()
	}

	switch route.Op {
	case router.OpReadme:
		writeText(w, "text/plain; charset=utf-8", []byte("pkggateway\n"))
	case router.OpFavicon:
		w.WriteHeader(http.StatusNoContent)
	case router.OpPublicKey:
		h.servePublicKey(w, r)
	case router.OpInRelease, router.OpRelease, router.OpReleaseGPG, router.OpPackages, router.OpByHash:
		h.serveDeb(w, r, route)
	case router.OpDebRedirect, router.OpRpmRedirect:
		h.serveRedirect(w, r, route)
	case router.OpRepomd, router.OpRepomdAsc, router.OpRpmMetadataXML:
		h.serveRpm(w, r, route)
	default:
		http.NotFound(w, r)
	}
}

func (h *handler) servePublicKey(w http.ResponseWriter, r *http.Request) {
	if !h.coordinator.Signer.Enabled() {
		http.NotFound(w, r)
		return
	}
	armored, err := h.coordinator.Signer.PublicKeyArmored()
	if err != nil {
		writeError(w, err)
		return
	}
	writeText(w, "application/pgp-keys", []byte(armored))
}

func (h *handler) serveRedirect(w http.ResponseWriter, r *http.Request, route router.Route) {
	releases, err := h.coordinator.Feed.ListReleases(r.Context(), route.Owner, route.Repo)
	if err != nil {
		writeError(w, err)
		return
	}
	admitted := model.Admitted(releases, route.Variant)
	asset, ok := coordinator.FindAssetByFilename(admitted, route.Filename)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, asset.DownloadURL, http.StatusFound)
}

func (h *handler) serveDeb(w http.ResponseWriter, r *http.Request, route router.Route) {
	if route.Op != router.OpInRelease && route.Component != "" && route.Component != mainComponent {
		http.NotFound(w, r)
		return
	}

	key := debArtifactKey(route)
	entry, fresh, err := h.ensureContent(r, route.Owner, route.Repo, route.Variant, key, h.regenerateDeb(route.Owner, route.Repo, route.Variant))
	if err != nil {
		writeError(w, err)
		return
	}
	if !fresh {
		http.NotFound(w, r)
		return
	}
	writeBytes(w, entry)
}

func (h *handler) serveRpm(w http.ResponseWriter, r *http.Request, route router.Route) {
	key := rpmArtifactKey(route)
	entry, fresh, err := h.ensureContent(r, route.Owner, route.Repo, route.Variant, key, h.regenerateRpm(route.Owner, route.Repo, route.Variant))
	if err != nil {
		writeError(w, err)
		return
	}
	if !fresh {
		http.NotFound(w, r)
		return
	}
	writeBytes(w, entry)
}

// ensureContent resolves the freshness protocol for one owner/repo
// variant, then looks the requested artifact key up in the content
// cache. ok is false when the key never got populated by regenerate
// (an artifact that genuinely doesn't exist for this repo, e.g. an
// unsupported architecture).
func (h *handler) ensureContent(r *http.Request, owner, repo string, variant model.Variant, key string, regenerate func(coordinator.ReleaseSet) error) (cache.Entry, bool, error) {
	set, err := h.coordinator.EnsureFresh(r.Context(), owner, repo, variant, regenerate)
	if err != nil {
		return cache.Entry{}, false, err
	}

	entry, ok := h.coordinator.Cache.Content(contentCacheKey(owner, repo, variant, key))
	if !ok {
		return cache.Entry{}, false, nil
	}
	if set.Fingerprint != "" && entry.Fingerprint != set.Fingerprint {
		return cache.Entry{}, false, nil
	}
	return entry, true, nil
}

func contentCacheKey(owner, repo string, variant model.Variant, artifact string) string {
	return fmt.Sprintf("content/%s/%s/%s/%s", variant, owner, repo, artifact)
}

func debArtifactKey(route router.Route) string {
	switch route.Op {
	case router.OpInRelease:
		return "deb:InRelease"
	case router.OpRelease:
		return "deb:Release"
	case router.OpReleaseGPG:
		return "deb:Release.gpg"
	case router.OpPackages:
		if route.Gzip {
			return fmt.Sprintf("deb:Packages.gz:%s:%s", route.Component, route.Arch)
		}
		return fmt.Sprintf("deb:Packages:%s:%s", route.Component, route.Arch)
	case router.OpByHash:
		return fmt.Sprintf("deb:byhash:%s:%s:%s", route.Component, route.Arch, route.HashHex)
	}
	return ""
}

func rpmArtifactKey(route router.Route) string {
	switch route.Op {
	case router.OpRepomd:
		return "rpm:repomd.xml"
	case router.OpRepomdAsc:
		return "rpm:repomd.xml.asc"
	case router.OpRpmMetadataXML:
		if route.Gzip {
			return fmt.Sprintf("rpm:%s.xml.gz", route.XMLKind)
		}
		return fmt.Sprintf("rpm:%s.xml", route.XMLKind)
	}
	return ""
}

// regenerateDeb builds every Debian artifact for owner/repo and stores
// each under its content key, all stamped with the same fingerprint.
// It runs detached from any one request's context: EnsureFresh may
// invoke it from a background goroutine after the triggering request
// has already completed.
func (h *handler) regenerateDeb(owner, repo string, variant model.Variant) func(coordinator.ReleaseSet) error {
	return func(set coordinator.ReleaseSet) error {
		ctx := context.Background()
		store := func(key string, body []byte, contentType string) {
			h.coordinator.Cache.SetContent(contentCacheKey(owner, repo, variant, key), cache.Entry{
				Body:        body,
				ContentType: contentType,
				Fingerprint: set.Fingerprint,
				GeneratedAt: time.Now(),
			})
		}

		decoded := h.coordinator.DecodeDebAssets(ctx, set.Releases, mainComponent)
		admitted := index.AdmittedDebEntries(decoded)
		archs := index.SupportedArchitectures(admitted)

		var indexEntries []model.ReleaseIndexEntry
		for _, arch := range archs {
			byArch := index.FilterByArch(admitted, arch)
			packages := index.GeneratePackages(byArch)
			packagesGz := index.GzipCompress(packages)

			store(fmt.Sprintf("deb:Packages:%s:%s", mainComponent, arch), packages, "text/plain; charset=utf-8")
			store(fmt.Sprintf("deb:Packages.gz:%s:%s", mainComponent, arch), packagesGz, "application/gzip")

			hash := index.SHA256Hex(packages)
			store(fmt.Sprintf("deb:byhash:%s:%s:%s", mainComponent, arch, hash), packages, "text/plain; charset=utf-8")

			relPath := fmt.Sprintf("%s/binary-%s/Packages", mainComponent, arch)
			indexEntries = append(indexEntries,
				model.ReleaseIndexEntry{Path: relPath, Size: int64(len(packages)), SHA256: hash},
				model.ReleaseIndexEntry{Path: relPath + ".gz", Size: int64(len(packagesGz)), SHA256: index.SHA256Hex(packagesGz)},
			)
		}

		opts := index.DefaultReleaseOptions(owner, repo)
		release := index.GenerateRelease(opts, archs, model.MostRecentPublish(set.Releases), indexEntries)
		store("deb:Release", release, "text/plain; charset=utf-8")

		if h.coordinator.Signer.Enabled() {
			if inRelease, err := h.coordinator.Signer.Cleartext(release); err == nil {
				store("deb:InRelease", inRelease, "text/plain; charset=utf-8")
			} else {
				return err
			}
			if detached, err := h.coordinator.Signer.DetachedText(release); err == nil {
				store("deb:Release.gpg", detached, "application/pgp-signature")
			} else {
				return err
			}
		}

		return nil
	}
}

// regenerateRpm builds every RPM artifact for owner/repo and stores
// each under its content key, all stamped with the same fingerprint.
// Like regenerateDeb, it runs detached from any one request's context.
func (h *handler) regenerateRpm(owner, repo string, variant model.Variant) func(coordinator.ReleaseSet) error {
	return func(set coordinator.ReleaseSet) error {
		ctx := context.Background()
		store := func(key string, body []byte, contentType string) {
			h.coordinator.Cache.SetContent(contentCacheKey(owner, repo, variant, key), cache.Entry{
				Body:        body,
				ContentType: contentType,
				Fingerprint: set.Fingerprint,
				GeneratedAt: time.Now(),
			})
		}

		entries := h.coordinator.DecodeRpmAssets(ctx, set.Releases)
		checksums := make(map[string]string, len(entries))
		for _, e := range entries {
			checksums[e.Filename] = e.Checksum
		}

		revision := model.MostRecentPublish(set.Releases)
		primary := index.GeneratePrimaryXML(entries, checksums)
		filelists := index.GenerateFilelistsXML(entries, checksums)
		other := index.GenerateOtherXML(entries, checksums)

		primaryGz, primaryData := index.BuildRepomdData("primary", primary, revision)
		filelistsGz, filelistsData := index.BuildRepomdData("filelists", filelists, revision)
		otherGz, otherData := index.BuildRepomdData("other", other, revision)

		store("rpm:primary.xml", primary, "application/xml")
		store("rpm:primary.xml.gz", primaryGz, "application/gzip")
		store("rpm:filelists.xml", filelists, "application/xml")
		store("rpm:filelists.xml.gz", filelistsGz, "application/gzip")
		store("rpm:other.xml", other, "application/xml")
		store("rpm:other.xml.gz", otherGz, "application/gzip")

		repomd := index.GenerateRepomdXML([]index.RepomdData{primaryData, filelistsData, otherData}, revision)
		store("rpm:repomd.xml", repomd, "application/xml")

		if h.coordinator.Signer.Enabled() {
			if asc, err := h.coordinator.Signer.DetachedBinary(repomd); err == nil {
				store("rpm:repomd.xml.asc", asc, "application/pgp-signature")
			} else {
				return err
			}
		}

		return nil
	}
}

func writeBytes(w http.ResponseWriter, entry cache.Entry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Write(entry.Body)
}

func writeText(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := gwerrors.HTTPStatus(err)
	http.Error(w, err.Error(), status)
}
