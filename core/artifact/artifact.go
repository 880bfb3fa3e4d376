// Package artifact keeps downloaded chat attachments on local disk until the
// workflow that needs them has run.
package artifact

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/m3rciful/aiftbot/core/logger"
)

// Modality identifies the kind of attachment.
type Modality string

const (
	Audio Modality = "audio"
	Image Modality = "image"
	File  Modality = "file"
)

// ErrTooLarge is returned by Save when the attachment exceeds the size cap.
var ErrTooLarge = errors.New("artifact: attachment too large")

// Artifact is a stored attachment. The zero value means "none".
type Artifact struct {
	ID        string
	Modality  Modality
	Name      string
	MIME      string
	Path      string
	Size      int64
	Digest    string
	Duration  time.Duration
	CreatedAt time.Time
}

// IsZero reports whether a is the empty artifact.
func (a Artifact) IsZero() bool {
	return a.ID == ""
}

// Ext returns the lowercased file extension of the original name, with dot.
func (a Artifact) Ext() string {
	return strings.ToLower(filepath.Ext(a.Name))
}

// Meta describes an attachment before it is written.
type Meta struct {
	Name     string
	MIME     string
	Duration time.Duration
}

// Store writes artifacts under a single directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewStore creates dir if needed. maxBytes <= 0 disables the size cap.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact: empty storage dir")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("artifact: create dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save streams r to a new file and returns its descriptor. The file name is a
// random uuid plus the original extension; the digest is BLAKE3-256 of the
// content.
func (s *Store) Save(ctx context.Context, modality Modality, meta Meta, r io.Reader) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	id := uuid.NewString()
	path := filepath.Join(s.dir, id+strings.ToLower(filepath.Ext(meta.Name)))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact: create: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	h := blake3.New()
	n, err := io.Copy(io.MultiWriter(f, h), src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return Artifact{}, err
		}
		return Artifact{}, fmt.Errorf("artifact: write: %w", err)
	}

	a := Artifact{
		ID:        id,
		Modality:  modality,
		Name:      meta.Name,
		MIME:      meta.MIME,
		Path:      path,
		Size:      n,
		Digest:    hex.EncodeToString(h.Sum(nil)),
		Duration:  meta.Duration,
		CreatedAt: s.now(),
	}
	logger.Debug(ctx, "artifact", "artifact.saved",
		slog.String("artifact_id", a.ID),
		slog.String("modality", string(modality)),
		slog.Int64("bytes", n),
		slog.String("digest", a.Digest[:16]),
	)
	return a, nil
}

// Release deletes the artifact's file. Releasing twice is not an error.
func (s *Store) Release(a Artifact) error {
	if a.IsZero() || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("artifact: release %s: %w", a.ID, err)
	}
	return nil
}
