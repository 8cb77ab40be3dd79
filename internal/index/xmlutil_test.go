package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&apos;", EscapeXML(`&<>"'`))
	assert.Equal(t, "a\tb\nc\rd", EscapeXML("a\tb\nc\rd"))
	assert.Equal(t, "plain text", EscapeXML("plain text"))
}

func TestEscapeXMLStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "ab", EscapeXML("a\x00\x0Bb"))
}
