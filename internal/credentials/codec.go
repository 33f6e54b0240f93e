package credentials

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"voipbits/internal/errors"
	"voipbits/internal/models"
)

// ParsePrivateKey loads the relay's RSA private key from its at-rest
// form: PKCS#8 DER wrapped in base64.
func ParsePrivateKey(material string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(material))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "private key is not valid base64")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "private key is not valid PKCS#8")
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "private key is not an RSA key")
	}

	return key, nil
}

// Decode recovers a line credential from an encrypted envelope. The
// envelope travels through transports that mangle '+' into spaces, so
// that substitution is undone before base64 decoding. Decryption
// failure is deterministic; there is nothing to retry.
func Decode(key *rsa.PrivateKey, envelope string) (models.LineCredential, error) {
	envelope = strings.Trim(envelope, "\r\n")
	envelope = strings.ReplaceAll(envelope, " ", "+")

	ciphertext, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return models.LineCredential{}, errors.NewMalformedCredentialError("envelope is not valid base64", err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(nil, key, ciphertext)
	if err != nil {
		return models.LineCredential{}, errors.NewMalformedCredentialError("envelope decryption failed", err)
	}

	// Lossy decode: invalid byte sequences are replaced, never rejected.
	cred := strings.ToValidUTF8(string(plaintext), string(utf8.RuneError))

	parts := strings.Split(cred, ":")
	if len(parts) != 3 {
		return models.LineCredential{}, errors.NewMalformedCredentialError(
			fmt.Sprintf("expected 3 credential fields, got %d", len(parts)), nil)
	}

	return models.LineCredential{
		DID:      parts[0],
		Username: parts[1],
		Password: parts[2],
	}, nil
}
