// Package attachment persists image attachments on disk, scoped per conversation.
package attachment

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// DefaultMaxDimension is the longest edge kept before downscaling.
const DefaultMaxDimension = 1568

// Store writes attachments under root/<conversation id>/.
type Store struct {
	root   string
	maxDim int
	logger *slog.Logger
}

// NewStore creates a store rooted at root.
func NewStore(root string, maxDimension int, logger *slog.Logger) *Store {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{root: root, maxDim: maxDimension, logger: logger.With("component", "attachments")}
}

// Root returns the directory attachments are stored under.
func (s *Store) Root() string { return s.root }

// Save decodes data, downscales it when either edge exceeds the maximum and
// writes it under the conversation's directory. PNG and JPEG keep their
// format; everything else is stored as PNG.
func (s *Store) Save(conversationID, filename string, data []byte) (model.Attachment, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Attachment{}, &UnsupportedImageError{Cause: err}
	}

	resized := false
	if b := img.Bounds(); b.Dx() > s.maxDim || b.Dy() > s.maxDim {
		img = scale(img, s.maxDim)
		resized = true
	}

	var (
		buf  bytes.Buffer
		ext  string
		mime string
	)
	switch {
	case format == "jpeg" && !resized:
		buf.Write(data)
		ext, mime = ".jpg", "image/jpeg"
	case format == "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		ext, mime = ".jpg", "image/jpeg"
	case format == "png" && !resized:
		buf.Write(data)
		ext, mime = ".png", "image/png"
	default:
		err = png.Encode(&buf, img)
		ext, mime = ".png", "image/png"
	}
	if err != nil {
		return model.Attachment{}, fmt.Errorf("encode image: %w", err)
	}

	id := uuid.NewString()
	rel := filepath.Join(conversationID, id+ext)
	abs, err := s.resolve(rel)
	if err != nil {
		return model.Attachment{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return model.Attachment{}, fmt.Errorf("create attachment directory: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return model.Attachment{}, fmt.Errorf("write attachment: %w", err)
	}

	if filename == "" {
		filename = id + ext
	}
	b := img.Bounds()
	s.logger.Debug("attachment saved", "conversation", conversationID, "path", rel, "resized", resized)
	return model.Attachment{
		ID:       id,
		Filename: filename,
		MimeType: mime,
		Path:     filepath.ToSlash(rel),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// Load reads the stored bytes of att.
func (s *Store) Load(att model.Attachment) ([]byte, error) {
	abs, err := s.resolve(att.Path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Delete removes one attachment. A missing file is not an error.
func (s *Store) Delete(att model.Attachment) error {
	abs, err := s.resolve(att.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeleteAll removes every attachment of a conversation.
func (s *Store) DeleteAll(conversationID string) error {
	abs, err := s.resolve(conversationID)
	if err != nil {
		return err
	}
	if abs == filepath.Clean(s.root) {
		return &InvalidPathError{Path: conversationID}
	}
	return os.RemoveAll(abs)
}

// resolve joins rel onto the root and rejects anything outside it.
func (s *Store) resolve(rel string) (string, error) {
	root := filepath.Clean(s.root)
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", &InvalidPathError{Path: rel}
	}
	return abs, nil
}

// scale fits img inside a maxDim square, keeping the aspect ratio.
func scale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
