// Package blob stores invoice documents under a filesystem root and hands out
// short-lived signed preview URLs for them.
package blob

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/golang-jwt/jwt/v5"
)

// Route is the path prefix the preview handler is mounted on.
const Route = "/blobs"

var (
	// ErrInvalidPath is returned for empty, absolute or escaping paths.
	ErrInvalidPath = errors.New("invalid blob path")
	// ErrInvalidToken is returned when a preview token does not grant the path.
	ErrInvalidToken = errors.New("invalid or expired blob token")
)

// Claims is the payload of a preview token.
type Claims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Store is a filesystem-backed blob store.
type Store struct {
	root       string
	signingKey []byte
	baseURL    string
	defaultTTL time.Duration
	logger     logging.Logger
}

// Options configures a Store.
type Options struct {
	Root       string
	SigningKey string
	BaseURL    string
	URLTTL     time.Duration
}

// New creates a Store rooted at opts.Root, creating the directory if needed.
func New(opts Options, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("blob root is required")
	}
	if err := os.MkdirAll(opts.Root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	return &Store{
		root:       opts.Root,
		signingKey: []byte(opts.SigningKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		defaultTTL: opts.URLTTL,
		logger:     logger,
	}, nil
}

// Clean validates a relative blob path and returns it in slash form.
func Clean(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

func (s *Store) resolve(p string) (string, string, error) {
	rel, err := Clean(p)
	if err != nil {
		return "", "", err
	}
	return rel, filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// Put writes r under p and returns the number of bytes written.
func (s *Store) Put(p string, r io.Reader) (int64, error) {
	rel, full, err := s.resolve(p)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}
	f, err := os.Create(full) // #nosec G304 -- path is confined to the blob root
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write blob: %w", err)
	}
	s.logger.Debug("Blob stored", logging.F(logging.FieldFile, rel), logging.F("size", n))
	return n, nil
}

// Get opens the blob at p. The caller closes it.
func (s *Store) Get(p string) (*os.File, error) {
	_, full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full) // #nosec G304 -- path is confined to the blob root
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// SignURL returns a preview URL for p valid for ttl, or the store default
// when ttl is zero.
func (s *Store) SignURL(p string, ttl time.Duration) (string, error) {
	rel, err := Clean(p)
	if err != nil {
		return "", err
	}
	if len(s.signingKey) == 0 {
		return "", errors.New("blob signing key is not configured")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()
	claims := Claims{
		Path: rel,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign blob url: %w", err)
	}

	u := &url.URL{Path: Route + "/" + rel, RawQuery: url.Values{"token": {token}}.Encode()}
	return s.baseURL + u.String(), nil
}

// Verify checks that token grants access to p.
func (s *Store) Verify(token, p string) error {
	rel, err := Clean(p)
	if err != nil {
		return err
	}
	if len(s.signingKey) == 0 {
		return ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Path != rel {
		return ErrInvalidToken
	}
	return nil
}

// Remove deletes the blob at p. A missing blob is not an error.
func (s *Store) Remove(p string) error {
	_, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}
