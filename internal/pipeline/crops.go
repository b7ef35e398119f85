package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// CropSink receives band crops as PNG data
type CropSink interface {
	// Save stores a crop under name
	Save(name string, png []byte) (string, error)
}

// DirCropSink implements the CropSink interface using a local directory
type DirCropSink struct {
	basePath string
}

// NewDirCropSink creates a new DirCropSink, creating basePath if needed
func NewDirCropSink(basePath string) (*DirCropSink, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating crop directory: %w", err)
	}

	return &DirCropSink{
		basePath: basePath,
	}, nil
}

// Save writes png to basePath/name
func (d *DirCropSink) Save(name string, png []byte) (string, error) {
	path := filepath.Join(d.basePath, filepath.Base(name))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("writing crop: %w", err)
	}
	return path, nil
}
