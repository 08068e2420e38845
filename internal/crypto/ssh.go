// Package crypto signs and verifies account ids with ssh keys.
//
// Signers come from private key files or from a running ssh-agent. Public
// keys used for verification are the signers' own keys plus any loaded
// from authorized_keys-format files. A signature is stored as the
// fingerprint of the signing key and the base64 wire encoding of the
// ssh signature, neither of which ever contains a comma.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// ErrNoSigner indicates no private key is available to sign with.
var ErrNoSigner = errors.New("no ssh key available for signing")

// PassphraseFunc asks for the passphrase protecting a private key file.
type PassphraseFunc func(path string) ([]byte, error)

// SSH is a CryptoProvider backed by ssh keys.
type SSH struct {
	signers []ssh.Signer
	public  map[string]ssh.PublicKey
}

// New returns an empty provider.
func New() *SSH {
	return &SSH{public: map[string]ssh.PublicKey{}}
}

// AddSigner adds a signer and trusts its public key.
func (s *SSH) AddSigner(signer ssh.Signer) {
	s.signers = append(s.signers, signer)
	s.AddPublicKey(signer.PublicKey())
}

// AddPublicKey trusts a public key for verification.
func (s *SSH) AddPublicKey(key ssh.PublicKey) {
	s.public[ssh.FingerprintSHA256(key)] = key
}

// LoadPrivateKey parses a private key file, asking for a passphrase when
// the key is protected.
func (s *SSH) LoadPrivateKey(path string, passphrase PassphraseFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read private key %s: %w", path, err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == nil {
			return fmt.Errorf("private key %s is passphrase protected: %w", path, err)
		}
		secret, perr := passphrase(path)
		if perr != nil {
			return perr
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, secret)
	}
	if err != nil {
		return fmt.Errorf("failed to parse private key %s: %w", path, err)
	}

	s.AddSigner(signer)
	return nil
}

// LoadPublicKeys trusts every key in an authorized_keys-format file.
func (s *SSH) LoadPublicKeys(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read public keys %s: %w", path, err)
	}

	for len(data) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			break
		}
		s.AddPublicKey(key)
		data = rest
	}
	return nil
}

// LoadAgent adds the signers held by the ssh-agent at SSH_AUTH_SOCK. The
// connection stays open for the life of the process.
func (s *SSH) LoadAgent() error {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return fmt.Errorf("SSH_AUTH_SOCK is not set")
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return fmt.Errorf("failed to connect to ssh-agent: %w", err)
	}

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to list ssh-agent keys: %w", err)
	}
	for _, signer := range signers {
		s.AddSigner(signer)
	}
	return nil
}

// Sign signs value with the first signer.
func (s *SSH) Sign(value string) (string, string, error) {
	if len(s.signers) == 0 {
		return "", "", ErrNoSigner
	}
	signer := s.signers[0]

	signature, err := signer.Sign(rand.Reader, []byte(value))
	if err != nil {
		return "", "", kerrors.New(kerrors.ErrConfiguration, "Couldn't sign value", "error", err)
	}

	fingerprint := ssh.FingerprintSHA256(signer.PublicKey())
	return fingerprint, base64.RawURLEncoding.EncodeToString(ssh.Marshal(signature)), nil
}

// Verify reports whether signature is a valid signature of value by the
// trusted key with the given fingerprint.
func (s *SSH) Verify(value, fingerprint, signature string) bool {
	key, ok := s.public[fingerprint]
	if !ok {
		return false
	}

	blob, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	var sig ssh.Signature
	if err := ssh.Unmarshal(blob, &sig); err != nil {
		return false
	}
	return key.Verify([]byte(value), &sig) == nil
}

// HasPublicKeys reports whether any key is trusted.
func (s *SSH) HasPublicKeys() bool {
	return len(s.public) > 0
}
