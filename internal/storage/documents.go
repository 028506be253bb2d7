package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// allowed content types, detected from magic bytes and never from the client header
var allowedMIME = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

const maxBaseRunes = 200

var ErrOutsideRoot = errors.New("storage: path escapes upload root")

// Stored describes a file written to the upload root.
type Stored struct {
	RelPath     string
	FileName    string
	Size        int64
	ContentType string
}

// DocumentStore keeps bid documents on the local filesystem under root/<bid_id>/.
type DocumentStore struct {
	root     string
	maxBytes int64
}

func NewDocumentStore(root string, maxBytes int64) (*DocumentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &DocumentStore{root: root, maxBytes: maxBytes}, nil
}

// Save sniffs the content, enforces the size limit and writes the file under a generated name.
// It returns document.ErrEmpty, document.ErrTooLarge or document.ErrUnsupportedType on rejection.
func (s *DocumentStore) Save(ctx context.Context, bidID, originalName string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Stored{}, fmt.Errorf("storage: read header: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Stored{}, document.ErrEmpty
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedMIME[kind.MIME.Value] {
		return Stored{}, document.ErrUnsupportedType
	}

	dir := filepath.Join(s.root, bidID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("storage: create bid dir: %w", err)
	}

	name := uuid.NewString() + "." + kind.Extension
	target := filepath.Join(dir, name)
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return Stored{}, fmt.Errorf("storage: create file: %w", err)
	}

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxBytes + 1}
	written, err := io.Copy(f, &limited)
	closeErr := f.Close()

	if err != nil {
		_ = os.Remove(tmp)
		return Stored{}, fmt.Errorf("storage: write file: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(tmp)
		return Stored{}, document.ErrTooLarge
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return Stored{}, fmt.Errorf("storage: close file: %w", closeErr)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return Stored{}, fmt.Errorf("storage: rename file: %w", err)
	}

	return Stored{
		RelPath:     filepath.ToSlash(filepath.Join(bidID, name)),
		FileName:    sanitizeFilename(originalName, kind.Extension),
		Size:        written,
		ContentType: kind.MIME.Value,
	}, nil
}

// Path resolves a stored relative path, refusing anything outside the root.
func (s *DocumentStore) Path(relPath string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(relPath))

	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(fullAbs, rootAbs+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return fullAbs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.Path(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// sanitizeFilename keeps the client's base name for display, with the detected extension.
func sanitizeFilename(name, ext string) string {
	name = strings.ToValidUTF8(name, "")
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		name = "document"
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "document"
	}
	// column holds text, so cut on a rune boundary
	if r := []rune(base); len(r) > maxBaseRunes {
		base = string(r[:maxBaseRunes])
	}
	return base + "." + ext
}
