// Package sign produces the three OpenPGP signature shapes the gateway
// needs: a cleartext-signed envelope for InRelease, a detached text
// signature for Release.gpg, and a detached binary signature for
// repomd.xml.asc.
package sign

import (
	"bytes"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/dionysius/pkggateway/internal/gwerrors"
)

// Signer holds a decrypted-on-demand OpenPGP signing identity. The key
// material and passphrase are kept as configured text; the private key
// is decrypted fresh on every signing call, so a Signer is safe to
// share across goroutines.
type Signer struct {
	armoredPrivateKey string
	passphrase        string
	armoredPublicKey  string
}

// New builds a Signer from an armored private key and optional
// passphrase. An empty privateKey means signing is disabled; callers
// should check Enabled before calling any sign method.
func New(armoredPrivateKey, passphrase, armoredPublicKey string) *Signer {
	return &Signer{
		armoredPrivateKey: armoredPrivateKey,
		passphrase:        passphrase,
		armoredPublicKey:  armoredPublicKey,
	}
}

// Enabled reports whether a private key is configured.
func (s *Signer) Enabled() bool {
	return s != nil && strings.TrimSpace(s.armoredPrivateKey) != ""
}

func (s *Signer) signingEntity() (*openpgp.Entity, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(s.armoredPrivateKey))
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: unreadable private key", err)
	}

	var entity *openpgp.Entity
	for _, e := range entities {
		if e.PrivateKey != nil {
			entity = e
			break
		}
	}
	if entity == nil {
		return nil, gwerrors.New(gwerrors.KindSigningFailure, "sign: key ring has no private key")
	}

	if entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt([]byte(s.passphrase)); err != nil {
			return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: wrong passphrase", err)
		}
	}
	for _, subkey := range entity.Subkeys {
		if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
			_ = subkey.PrivateKey.Decrypt([]byte(s.passphrase))
		}
	}

	return entity, nil
}

// Cleartext produces an InRelease-style cleartext-signed envelope: the
// input verbatim between "BEGIN/END PGP SIGNED MESSAGE" markers,
// followed by an armored signature block.
func (s *Signer) Cleartext(text []byte) ([]byte, error) {
	entity, err := s.signingEntity()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	w, err := clearsign.Encode(&out, entity.PrivateKey, nil)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: clearsign encode", err)
	}
	if _, err := w.Write(text); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: clearsign write", err)
	}
	if err := w.Close(); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: clearsign close", err)
	}

	return out.Bytes(), nil
}

// DetachedText produces a Release.gpg-style detached signature over
// the text form of the input (canonical line endings, sigclass 0x01),
// ASCII-armored.
func (s *Signer) DetachedText(text []byte) ([]byte, error) {
	entity, err := s.signingEntity()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := openpgp.ArmoredDetachSignText(&out, entity, bytes.NewReader(text), nil); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: detached text sign", err)
	}

	return out.Bytes(), nil
}

// DetachedBinary produces a repomd.xml.asc-style detached signature
// over the raw bytes of the input (sigclass 0x00), ASCII-armored.
func (s *Signer) DetachedBinary(data []byte) ([]byte, error) {
	entity, err := s.signingEntity()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&out, entity, bytes.NewReader(data), nil); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: detached binary sign", err)
	}

	return out.Bytes(), nil
}

// PublicKeyArmored returns the configured public key if one was given,
// otherwise extracts and re-armors the public half of the private key.
func (s *Signer) PublicKeyArmored() (string, error) {
	if strings.TrimSpace(s.armoredPublicKey) != "" {
		return s.armoredPublicKey, nil
	}

	entity, err := s.signingEntity()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return "", gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: armor encode", err)
	}
	if err := entity.Serialize(w); err != nil {
		return "", gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: public key serialize", err)
	}
	if err := w.Close(); err != nil {
		return "", gwerrors.Wrap(gwerrors.KindSigningFailure, "sign: armor close", err)
	}

	return buf.String(), nil
}

// Fingerprint returns the uppercase hex fingerprint of the signing
// key, regrouped as ten groups of four characters separated by
// single spaces (the standard OpenPGP display format), e.g. for
// display in repository documentation.
func (s *Signer) Fingerprint() (string, error) {
	entity, err := s.signingEntity()
	if err != nil {
		return "", err
	}
	return formatFingerprint(entity.PrimaryKey), nil
}

func formatFingerprint(key *packet.PublicKey) string {
	hex := strings.ToUpper(bytesToHex(key.Fingerprint[:]))

	var grouped strings.Builder
	for i, r := range hex {
		if i > 0 && i%4 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}
	return grouped.String()
}

func bytesToHex(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
