package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	text := "Package: foo\n" +
		"Version: 1.0\n" +
		"Description: a package\n" +
		" continued line\n" +
		" .\n" +
		" more\n"

	f := Parse(text)

	assert.Equal(t, "foo", f.Get("package"))
	assert.Equal(t, "1.0", f.Get("version"))
	assert.Equal(t, "a package\ncontinued line\n\nmore", f.Get("description"))
}

func TestParseFoldsKeysToLowercase(t *testing.T) {
	f := Parse("Package: foo\n")
	assert.Equal(t, "foo", f.Get("Package"))
	assert.Equal(t, "foo", f.Get("PACKAGE"))
}

func TestParseIgnoresContinuationWithoutPriorField(t *testing.T) {
	f := Parse(" orphan continuation\nPackage: foo\n")
	assert.Equal(t, "foo", f.Get("package"))
}

func TestParseIgnoresLinesWithoutColon(t *testing.T) {
	f := Parse("not a field\nPackage: foo\n")
	assert.Equal(t, "foo", f.Get("package"))
}

func TestGetMissingField(t *testing.T) {
	f := Parse("Package: foo\n")
	assert.Equal(t, "", f.Get("version"))
}

func TestDecodeDebianControlDefaults(t *testing.T) {
	f := Parse("Package: foo\nVersion: 1.0\n")
	c := DecodeDebianControl(f)

	assert.Equal(t, "foo", c.Package)
	assert.Equal(t, "1.0", c.Version)
	assert.Equal(t, "all", c.Architecture)
	assert.Equal(t, "optional", c.Priority)
	assert.Equal(t, 0, c.InstalledSize)
}

func TestDecodeDebianControlExplicitFields(t *testing.T) {
	f := Parse("Package: foo\n" +
		"Version: 1.0\n" +
		"Architecture: amd64\n" +
		"Priority: required\n" +
		"Installed-Size: 42\n" +
		"Maintainer: me <me@example.com>\n" +
		"Depends: libc6\n")
	c := DecodeDebianControl(f)

	assert.Equal(t, "amd64", c.Architecture)
	assert.Equal(t, "required", c.Priority)
	assert.Equal(t, 42, c.InstalledSize)
	assert.Equal(t, "me <me@example.com>", c.Maintainer)
	assert.Equal(t, "libc6", c.Depends)
}

func TestDecodeDebianControlInvalidInstalledSize(t *testing.T) {
	f := Parse("Package: foo\nInstalled-Size: notanumber\n")
	c := DecodeDebianControl(f)
	assert.Equal(t, 0, c.InstalledSize)
}
