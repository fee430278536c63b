package store

import (
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS broker_credentials (
	broker TEXT PRIMARY KEY,
	nonce BLOB NOT NULL,
	ciphertext BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// CredentialRepo persists broker refresh tokens encrypted at rest with
// ChaCha20-Poly1305, keyed from an operator-supplied master key. This
// is the only place the core touches credential material at rest.
type CredentialRepo struct {
	db   *sql.DB
	aead cipher.AEAD
}

// NewCredentialRepo wraps db with a credential repository encrypted
// under masterKey, which must be exactly 32 bytes.
func NewCredentialRepo(db *sql.DB, masterKey []byte) (*CredentialRepo, error) {
	aead, err := chacha20poly1305.New(masterKey)
	if err != nil {
		return nil, fmt.Errorf("store: building credential cipher: %w", err)
	}
	if _, err := db.Exec(credentialsSchema); err != nil {
		return nil, fmt.Errorf("store: migrating credentials schema: %w", err)
	}
	return &CredentialRepo{db: db, aead: aead}, nil
}

// Put encrypts and stores a broker's refresh token, replacing any
// prior value.
func (r *CredentialRepo) Put(broker string, token []byte, now int64) error {
	nonce := make([]byte, r.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("store: generating nonce: %w", err)
	}
	ciphertext := r.aead.Seal(nil, nonce, token, []byte(broker))
	_, err := r.db.Exec(`
		INSERT INTO broker_credentials (broker, nonce, ciphertext, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(broker) DO UPDATE SET nonce = excluded.nonce, ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`, broker, nonce, ciphertext, now)
	return err
}

// Get decrypts and returns a broker's stored refresh token.
func (r *CredentialRepo) Get(broker string) ([]byte, error) {
	var nonce, ciphertext []byte
	err := r.db.QueryRow(`SELECT nonce, ciphertext FROM broker_credentials WHERE broker = ?`, broker).
		Scan(&nonce, &ciphertext)
	if err != nil {
		return nil, err
	}
	plaintext, err := r.aead.Open(nil, nonce, ciphertext, []byte(broker))
	if err != nil {
		return nil, fmt.Errorf("store: decrypting credential for %s: %w", broker, err)
	}
	return plaintext, nil
}
