package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/minpen/minpen/internal/typeid"
)

var (
	ErrUnsupported = errors.New("only PNG and JPEG images are supported")
	ErrNotFound    = errors.New("asset not found")
)

// Info describes a stored image. Width and Height are the pixel size, which
// clients use as the default size of an image segment.
type Info struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Store keeps uploaded images as PNG files named by asset id.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save decodes a PNG or JPEG image and stores it re-encoded as PNG.
func (s *Store) Save(r io.Reader, name string) (Info, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode image: %w", ErrUnsupported)
	}
	if format != "png" && format != "jpeg" {
		return Info{}, ErrUnsupported
	}

	id := typeid.NewAssetID()
	path := s.path(id)
	out, err := os.Create(path)
	if err != nil {
		return Info{}, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return Info{}, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return Info{}, fmt.Errorf("close asset file: %w", err)
	}

	b := img.Bounds()
	return Info{
		ID:     id,
		URL:    "/assets/" + id + ".png",
		Width:  b.Dx(),
		Height: b.Dy(),
		Name:   name,
	}, nil
}

// Delete removes a stored asset.
func (s *Store) Delete(id string) error {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return ErrNotFound
	}
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}
