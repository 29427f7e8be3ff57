package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 32

	// scrypt parameters (interactive profile)
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileStore is a file-backed implementation of Store. When a passphrase is
// supplied the file contents are encrypted with an XChaCha20-Poly1305 key
// derived via scrypt; without one, items are persisted as plain JSON.
//
// All faults are logged and swallowed: a corrupt or unreadable file behaves as
// an empty store.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	items      map[string]string
	log        zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file store rooted at path, loading any previously
// persisted items.
func NewFileStore(path, passphrase string, log zerolog.Logger) *FileStore {
	s := &FileStore{
		path:       path,
		passphrase: passphrase,
		items:      make(map[string]string),
		log:        log,
	}
	s.load()
	return s
}

func (s *FileStore) SetItem(key string, value any) {
	encoded, err := encode(value)
	if err != nil {
		s.log.Err(err).Str("key", key).Msg("failed to encode storage item")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = encoded
	s.flush()
}

func (s *FileStore) GetItem(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.items[key]
	if !ok {
		return nil
	}
	return decode(raw)
}

func (s *FileStore) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	s.flush()
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
	s.flush()
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Err(err).Str("path", s.path).Msg("failed to read storage file")
		}
		return
	}

	if s.passphrase != "" {
		data, err = s.decrypt(data)
		if err != nil {
			s.log.Err(err).Str("path", s.path).Msg("failed to decrypt storage file")
			return
		}
	}

	items := make(map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Err(err).Str("path", s.path).Msg("failed to parse storage file")
		return
	}
	s.items = items
}

// flush persists the current items. Callers must hold the mutex.
func (s *FileStore) flush() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.log.Err(err).Msg("failed to serialize storage items")
		return
	}

	if s.passphrase != "" {
		data, err = s.encrypt(data)
		if err != nil {
			s.log.Err(err).Msg("failed to encrypt storage items")
			return
		}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.log.Err(err).Str("path", s.path).Msg("failed to create storage directory")
			return
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Err(err).Str("path", s.path).Msg("failed to write storage file")
	}
}

// encrypt seals plaintext as salt || nonce || ciphertext.
func (s *FileStore) encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func (s *FileStore) decrypt(data []byte) ([]byte, error) {
	if len(data) < saltLength+chacha20poly1305.NonceSizeX {
		return nil, os.ErrInvalid
	}

	salt := data[:saltLength]
	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := data[saltLength : saltLength+aead.NonceSize()]
	ciphertext := data[saltLength+aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

func (s *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(s.passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
