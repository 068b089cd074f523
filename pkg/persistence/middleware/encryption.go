package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/schema"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelopeMarker names the root of the opaque document that carries the
// ciphertext in the backing store.
const envelopeMarker = "encrypted"

type encryptionMiddleware struct {
	next   ports.DocumentStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts documents at
// rest using AES-GCM (Envelope Encryption). The backing store only ever
// sees an opaque envelope: the document name and timestamp stay in the
// clear so listings remain useful, the tree itself is ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, id string, doc domain.Document) error {
	// 1. Serialize the real document
	plainText, err := domain.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt document: %w", err)
	}

	// 3. Build the envelope: a well-formed document whose single text node
	// carries the ciphertext. Tree, viewport and seed all live inside the
	// blob; only Name and UpdatedAt stay visible for List.
	envelope := domain.Document{
		Schema: domain.SchemaVersion,
		Name:   doc.Name,
		Root: domain.Node{
			ID:   domain.PlaceholderID,
			Kind: domain.KindDocument,
			Name: envelopeMarker,
			Children: []domain.Node{{
				ID:   domain.PlaceholderID,
				Kind: domain.KindText,
				Text: &domain.TextPayload{Content: base64.StdEncoding.EncodeToString(ciphertext)},
			}},
		},
		UpdatedAt: doc.UpdatedAt,
	}

	return m.next.Save(ctx, id, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (domain.Document, error) {
	// 1. Load the envelope
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}

	// 2. Extract the ciphertext. A document saved before encryption was
	// enabled has no envelope; fail secure rather than hand back content
	// that skipped decryption.
	blob, ok := envelopePayload(envelope)
	if !ok {
		return domain.Document{}, errors.New("document is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// 3. Decrypt (try active key, then fallbacks)
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decrypt document: %w", err)
	}

	// 4. Deserialize. schema.Decode also migrates blobs written before a
	// schema bump, since the envelope schema says nothing about the
	// version of the tree inside.
	doc, err := schema.Decode(plainText)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode decrypted document: %w", err)
	}

	return doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

// List delegates to the backing store. Rows describe the envelopes, so node
// counts reflect the opaque wrapper rather than the hidden tree.
func (m *encryptionMiddleware) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	return m.next.List(ctx)
}

// envelopePayload returns the base64 ciphertext if doc is an encryption
// envelope.
func envelopePayload(doc domain.Document) (string, bool) {
	root := doc.Root
	if root.Name != envelopeMarker || len(root.Children) != 1 {
		return "", false
	}
	text := root.Children[0].Text
	if text == nil {
		return "", false
	}
	return text.Content, true
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
