package encryption

import (
	"errors"
	"io"
)

// ErrKeysExist is returned by Setup when a key pair is already present.
var ErrKeysExist = errors.New("encryption keys already exist")

// Encryptor seals blob content at rest. Sealing needs only the public
// key, so uploads never prompt. Reading sealed content needs the private
// key, which is itself protected by a passphrase and unlocked once per
// session.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with
	// passphrase. It refuses to replace existing keys.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a context that can open
	// sealed content. Returns an error if the passphrase is wrong.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
