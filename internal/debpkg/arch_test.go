package debpkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferArchitecture(t *testing.T) {
	cases := map[string]string{
		"foo_1.0_amd64.deb":   "amd64",
		"foo_1.0_x86_64.deb":  "amd64",
		"foo_1.0_arm64.deb":   "arm64",
		"foo_1.0_aarch64.deb": "arm64",
		"foo_1.0_i386.deb":    "i386",
		"foo_1.0_armhf.deb":   "armhf",
		"foo_1.0_all.deb":     "all",
		"foo_1.0.deb":         "amd64",
	}
	for name, want := range cases {
		assert.Equal(t, want, InferArchitecture(name), name)
	}
}

func TestInferArchitectureX86_64NotDoubleMatchedAsI386(t *testing.T) {
	assert.Equal(t, "amd64", InferArchitecture("foo_1.0_x86_64.deb"))
}

func TestResolveArchitecture(t *testing.T) {
	assert.Equal(t, "amd64", ResolveArchitecture("", "foo_1.0_amd64.deb"))
	assert.Equal(t, "arm64", ResolveArchitecture("all", "foo_1.0_arm64.deb"))
	assert.Equal(t, "amd64", ResolveArchitecture("amd64", "foo_1.0_arm64.deb"))
	assert.Equal(t, "all", ResolveArchitecture("all", "foo_1.0_all.deb"))
}
