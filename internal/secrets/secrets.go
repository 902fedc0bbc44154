// Package secrets provides encrypted at-rest storage for integration tokens,
// layered on top of the local state store.
//
// Plain preference data (tabs, stats, journal) is stored as readable JSON, but
// OAuth tokens and API keys are sealed with an AEAD before they touch disk.
// The sealing key is a 32-byte random value kept in a separate 0600 file, so
// copying just the state database leaks no credentials.
//
// Secrets never participate in cloud sync: the sync engine only ever reads
// adapter status snapshots, which carry booleans and timestamps.
package secrets

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/zenjispace/zenjid/internal/state"
)

// Vault seals and opens secret values stored in the state store.
type Vault struct {
	store state.Store
	aead  cipher.AEAD
}

// New creates a Vault using the key at keyPath, generating a fresh key file
// (0600) on first run.
func New(store state.Store, keyPath string) (*Vault, error) {
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}

	// XChaCha20-Poly1305: 24-byte nonces are large enough to draw randomly
	// without bookkeeping.
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: creating cipher: %w", err)
	}

	return &Vault{store: store, aead: aead}, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("secrets: key file %s has %d bytes, want %d",
				path, len(key), chacha20poly1305.KeySize)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("secrets: reading key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("secrets: generating key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("secrets: creating key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("secrets: writing key file: %w", err)
	}
	return key, nil
}

// Set seals value and stores it under key.
func (v *Vault) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("secrets: generating nonce: %w", err)
	}

	// Ciphertext layout: nonce || sealed. The key name is bound in as
	// additional data so a sealed value can't be replayed under another key.
	sealed := v.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	encoded := base64.StdEncoding.EncodeToString(sealed)

	return state.SetString(ctx, v.store, key, encoded)
}

// Get opens the secret under key. Returns ("", false, nil) when absent.
func (v *Vault) Get(ctx context.Context, key string) (string, bool, error) {
	encoded, ok, err := state.GetString(ctx, v.store, key)
	if err != nil || !ok {
		return "", false, err
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, fmt.Errorf("secrets: decoding %s: %w", key, err)
	}
	if len(sealed) < v.aead.NonceSize() {
		return "", false, fmt.Errorf("secrets: sealed value for %s is too short", key)
	}

	nonce, ciphertext := sealed[:v.aead.NonceSize()], sealed[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("secrets: opening %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Delete removes the secret under key. Deleting an absent secret is a no-op.
func (v *Vault) Delete(ctx context.Context, key string) error {
	return v.store.Delete(ctx, key)
}
