// Package seed imports a YAML catalog of artists and items into the store.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sixtrece/beats-server/internal/validation"
)

// Catalog is the root of a seed file.
type Catalog struct {
	Artists []ArtistEntry `yaml:"artists" json:"artists" validate:"dive"`
	Items   []ItemEntry   `yaml:"items" json:"items" validate:"dive"`
}

// ArtistEntry declares an artist. Artists referenced only by items are
// created on demand without a profile image.
type ArtistEntry struct {
	Name            string `yaml:"name" json:"name" validate:"required"`
	ProfileImageRef string `yaml:"profile_image_ref" json:"profile_image_ref"`
}

// ItemEntry declares one beat.
type ItemEntry struct {
	Title    string   `yaml:"title" json:"title" validate:"required"`
	Artist   string   `yaml:"artist" json:"artist" validate:"required"`
	Price    float64  `yaml:"price" json:"price" validate:"gte=0"`
	CoverRef string   `yaml:"cover_ref" json:"cover_ref"`
	AudioRef string   `yaml:"audio_ref" json:"audio_ref" validate:"required"`
	Genre    string   `yaml:"genre" json:"genre"`
	BPM      int      `yaml:"bpm" json:"bpm" validate:"gte=0"`
	Duration string   `yaml:"duration" json:"duration"`
	Author   string   `yaml:"author" json:"author"`
	Likes    int64    `yaml:"likes" json:"likes" validate:"gte=0"`
	Tags     []string `yaml:"tags" json:"tags" validate:"dive,nocontrol"`
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(r io.Reader, v *validation.Validator) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return &cat, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := v.Validate(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// LoadFile reads a catalog from path.
func LoadFile(path string, v *validation.Validator) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(bytes.NewReader(data), v)
}
