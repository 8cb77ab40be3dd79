package sign

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateArmoredKey(t *testing.T, passphrase string) (string, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("gateway test", "", "test@example.com", nil)
	require.NoError(t, err)

	if passphrase != "" {
		require.NoError(t, entity.PrivateKey.Encrypt([]byte(passphrase)))
	}

	var privBuf bytes.Buffer
	privWriter, err := armor.Encode(&privBuf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(privWriter, nil))
	require.NoError(t, privWriter.Close())

	var pubBuf bytes.Buffer
	pubWriter, err := armor.Encode(&pubBuf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(pubWriter))
	require.NoError(t, pubWriter.Close())

	return privBuf.String(), pubBuf.String()
}

func TestEnabled(t *testing.T) {
	assert.False(t, New("", "", "").Enabled())
	assert.True(t, New("key material", "", "").Enabled())
	assert.False(t, New("   ", "", "").Enabled())
}

func TestEnabledNilReceiver(t *testing.T) {
	var s *Signer
	assert.False(t, s.Enabled())
}

func TestCleartext(t *testing.T) {
	priv, _ := generateArmoredKey(t, "")
	s := New(priv, "", "")

	out, err := s.Cleartext([]byte("Origin: owner/repo\n"))
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "-----BEGIN PGP SIGNED MESSAGE-----"))
	assert.Contains(t, text, "Origin: owner/repo")
	assert.Contains(t, text, "-----BEGIN PGP SIGNATURE-----")
}

func TestDetachedText(t *testing.T) {
	priv, _ := generateArmoredKey(t, "")
	s := New(priv, "", "")

	out, err := s.DetachedText([]byte("Origin: owner/repo\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "-----BEGIN PGP SIGNATURE-----")
}

func TestDetachedBinary(t *testing.T) {
	priv, _ := generateArmoredKey(t, "")
	s := New(priv, "", "")

	out, err := s.DetachedBinary([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Contains(t, string(out), "-----BEGIN PGP SIGNATURE-----")
}

func TestCleartextWithPassphrase(t *testing.T) {
	priv, _ := generateArmoredKey(t, "s3cret")
	s := New(priv, "s3cret", "")

	_, err := s.Cleartext([]byte("data"))
	require.NoError(t, err)
}

func TestCleartextWrongPassphrase(t *testing.T) {
	priv, _ := generateArmoredKey(t, "s3cret")
	s := New(priv, "wrong", "")

	_, err := s.Cleartext([]byte("data"))
	assert.Error(t, err)
}

func TestPublicKeyArmoredUsesConfiguredKey(t *testing.T) {
	s := New("anything", "", "-----BEGIN PGP PUBLIC KEY BLOCK-----\nconfigured\n")
	out, err := s.PublicKeyArmored()
	require.NoError(t, err)
	assert.Contains(t, out, "configured")
}

func TestPublicKeyArmoredDerivesFromPrivate(t *testing.T) {
	priv, pub := generateArmoredKey(t, "")
	s := New(priv, "", "")

	out, err := s.PublicKeyArmored()
	require.NoError(t, err)
	assert.Contains(t, out, "-----BEGIN PGP PUBLIC KEY BLOCK-----")
	assert.NotEqual(t, pub, "")
}

func TestFingerprint(t *testing.T) {
	priv, _ := generateArmoredKey(t, "")
	s := New(priv, "", "")

	fp, err := s.Fingerprint()
	require.NoError(t, err)
	assert.Len(t, fp, 49)
	assert.Equal(t, strings.ToUpper(fp), fp)
	assert.Regexp(t, `^[0-9A-F]{4}( [0-9A-F]{4}){9}$`, fp)

	stripped := strings.ReplaceAll(fp, " ", "")
	assert.Len(t, stripped, 40)
}

func TestSigningEntityUnreadableKey(t *testing.T) {
	s := New("not a valid key", "", "")
	_, err := s.Cleartext([]byte("data"))
	assert.Error(t, err)
}
