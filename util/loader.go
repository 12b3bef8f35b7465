// Package util - Frame replay from directories of numbered images.
package util

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "github.com/chai2010/webp"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
}

// Decode decodes the file's bytes into an image.
func (f ImageFile) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.Path)
	}
	return img, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are expected to be named frame-<n>.<ext> and are returned in frame
// order. Files without a frame number sort after numbered ones, by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read frames from %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "read %s", imgPath)
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frameNumber(file.Name()),
			})
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if (a.Frame < 0) != (b.Frame < 0) {
			return a.Frame >= 0
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})

	return images, nil
}

// frameNumber extracts n from frame-<n>.<ext>, or -1.
func frameNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.Atoi(strings.TrimPrefix(base, "frame-"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
