package images

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// Source supplies candidate image identifiers and their pixel payloads
type Source interface {
	List() ([]pairing.ImageID, error)
	Read(id pairing.ImageID) (*File, error)
}

// File is an image payload read from a source
type File struct {
	ID       pairing.ImageID
	Path     string
	MIMEType string
	Data     []byte
}

// Info describes an image without its payload
type Info struct {
	ID     pairing.ImageID `json:"id"`
	URL    string          `json:"url"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
}

// DirSource loads images from a flat directory
type DirSource struct {
	Dir        string
	Extensions []string
	Max        int
}

// NewDirSource creates a DirSource. Max <= 0 means no cap.
func NewDirSource(dir string, extensions []string, max int) *DirSource {
	return &DirSource{
		Dir:        dir,
		Extensions: extensions,
		Max:        max,
	}
}

// List returns the sorted names of matching files, capped at Max
func (d *DirSource) List() ([]pairing.ImageID, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var ids []pairing.ImageID
	for _, e := range entries {
		if e.IsDir() || !d.matches(e.Name()) {
			continue
		}
		ids = append(ids, pairing.ImageID(e.Name()))
	}
	slices.Sort(ids)

	if d.Max > 0 && len(ids) > d.Max {
		slog.Debug("Capping image list", "dir", d.Dir, "found", len(ids), "max", d.Max)
		ids = ids[:d.Max]
	}
	return ids, nil
}

func (d *DirSource) matches(name string) bool {
	if len(d.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range d.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// Path resolves an identifier to a file inside Dir
func (d *DirSource) Path(id pairing.ImageID) (string, error) {
	name := string(id)
	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid image name: %q", name)
	}
	if !d.matches(name) {
		return "", fmt.Errorf("unsupported image type: %q", name)
	}
	return filepath.Join(d.Dir, name), nil
}

// Read loads an image payload and sniffs its MIME type
func (d *DirSource) Read(id pairing.ImageID) (*File, error) {
	path, err := d.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &File{
		ID:       id,
		Path:     path,
		MIMEType: http.DetectContentType(data),
		Data:     data,
	}, nil
}

// Info returns the image dimensions
func (d *DirSource) Info(id pairing.ImageID) (*Info, error) {
	path, err := d.Path(id)
	if err != nil {
		return nil, err
	}
	width, height, err := getImageDimensions(path)
	if err != nil {
		slog.Warn("Failed to get image dimensions", "image", id, "error", err)
		width, height = 0, 0
	}
	return &Info{
		ID:     id,
		URL:    "/images/" + string(id),
		Width:  width,
		Height: height,
	}, nil
}

func getImageDimensions(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return img.Width, img.Height, nil
}
