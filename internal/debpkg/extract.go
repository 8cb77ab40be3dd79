package debpkg

import (
	"fmt"

	"github.com/dionysius/pkggateway/internal/archive"
	"github.com/dionysius/pkggateway/internal/compress"
	"github.com/dionysius/pkggateway/internal/control"
	"github.com/dionysius/pkggateway/internal/gwerrors"
	"github.com/dionysius/pkggateway/internal/model"
)

// ExtractControl decodes the control-file stanza out of a .deb's
// leading bytes: find the control.tar* AR member, decompress it by
// its suffix, parse it as tar, and decode the "control" file within.
func ExtractControl(buf []byte) (model.DebianControl, error) {
	members, err := archive.ParseAR(buf)
	if err != nil {
		return model.DebianControl{}, gwerrors.Wrap(gwerrors.KindCorruptArchive, "deb: AR parse failed", err)
	}

	member, ok := archive.Find(members, "control.tar")
	if !ok {
		return model.DebianControl{}, gwerrors.New(gwerrors.KindCorruptArchive, "deb: no control.tar member found")
	}

	format, ok := compress.DetectBySuffix(member.Name)
	if !ok {
		return model.DebianControl{}, gwerrors.New(gwerrors.KindUnsupportedCodec, fmt.Sprintf("deb: unsupported control archive codec for %q", member.Name))
	}

	tarData, err := compress.Decompress(format, member.Data, 0)
	if err != nil {
		return model.DebianControl{}, gwerrors.Wrap(gwerrors.KindCorruptArchive, "deb: control.tar decompress failed", err)
	}

	entries, err := archive.ParseTar(tarData)
	if err != nil {
		return model.DebianControl{}, gwerrors.Wrap(gwerrors.KindCorruptArchive, "deb: control.tar is not a valid tar stream", err)
	}

	controlEntry, ok := archive.FindByBasename(entries, "control")
	if !ok {
		return model.DebianControl{}, gwerrors.New(gwerrors.KindCorruptArchive, "deb: no control file found in control archive")
	}

	fields := control.Parse(string(controlEntry.Data))
	return control.DecodeDebianControl(fields), nil
}

// BuildEntry assembles a model.DebPackageEntry from a decoded control
// record and the asset it was extracted from, resolving the
// filename-wins architecture rule and the pool path.
func BuildEntry(c model.DebianControl, component, assetName string, assetSize int64, sha256Hex string) model.DebPackageEntry {
	c.Architecture = ResolveArchitecture(c.Architecture, assetName)

	return model.DebPackageEntry{
		Control:  c,
		PoolPath: model.PoolPath(component, c.Package, assetName),
		Size:     assetSize,
		SHA256:   sha256Hex,
	}
}
