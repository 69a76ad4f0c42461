package pool

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/x448/float16"

	"github.com/view111111/lungsound-pipeline/internal/spectrogram"
)

// Cache persists pools between runs so rendering can be skipped when a
// complete artifact already exists. Files are written to a temporary
// name and renamed into place, so a file that exists is complete.
type Cache struct {
	Dir string
}

// Artifact names used by the pipeline.
const (
	TrainSegments = "train_data"
	TestSegments  = "test_data"
	TrainLabels   = "train_label"
	TestLabels    = "test_label"
	TrainImages   = "image_train_data"
	TestImages    = "image_test_data"

	// AugmentedImages holds the train pool after mixup; regenerated on
	// every run since the augmentation seed may change.
	AugmentedImages = "image_train_data_mixup"
)

// cachedImage is the on-disk form of one representation: image pixels
// and the auxiliary vector packed as IEEE 754 half-precision bits.
type cachedImage struct {
	Size int
	Data []uint16
	Aux  []uint16
}

type cachedPool struct {
	Samples []cachedImage
	Labels  [][]float64
}

type cachedSegments struct {
	Samples [][]float32
}

type cachedLabels struct {
	Labels [][]float64
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.Dir, name+".gob")
}

// Has reports whether a complete artifact exists under name.
func (c *Cache) Has(name string) bool {
	info, err := os.Stat(c.path(name))
	return err == nil && info.Mode().IsRegular()
}

func (c *Cache) write(name string, v any) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir %s: %w", c.Dir, err)
	}

	tmp := c.path(name) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmp, c.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish cache file: %w", err)
	}
	return nil
}

func (c *Cache) read(name string, v any) error {
	f, err := os.Open(c.path(name))
	if err != nil {
		return fmt.Errorf("failed to open cache artifact %s: %w", name, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// SavePool writes a rendered pool under name.
func (c *Cache) SavePool(name string, p *Pool) error {
	if err := p.Validate(); err != nil {
		return err
	}

	cp := cachedPool{
		Samples: make([]cachedImage, p.Len()),
		Labels:  p.Labels,
	}
	for i, img := range p.Images {
		cp.Samples[i] = cachedImage{
			Size: img.Size,
			Data: packHalf(img.Data),
			Aux:  packHalf(p.Aux[i]),
		}
	}
	return c.write(name, cp)
}

// LoadPool reads a rendered pool previously written under name.
func (c *Cache) LoadPool(name string) (*Pool, error) {
	var cp cachedPool
	if err := c.read(name, &cp); err != nil {
		return nil, err
	}

	p := New(len(cp.Samples))
	for i, s := range cp.Samples {
		img := &spectrogram.Image{Size: s.Size, Data: unpackHalf(s.Data)}
		if err := p.Append(img, unpackHalf(s.Aux), cp.Labels[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SaveSegments writes raw segment samples under name. Labels travel in
// a separate artifact so each file mirrors one pipeline tensor.
func (c *Cache) SaveSegments(name string, segments [][]float64) error {
	cs := cachedSegments{
		Samples: make([][]float32, len(segments)),
	}
	for i, seg := range segments {
		row := make([]float32, len(seg))
		for j, v := range seg {
			row[j] = float32(v)
		}
		cs.Samples[i] = row
	}
	return c.write(name, cs)
}

// LoadSegments reads raw segments previously written under name.
func (c *Cache) LoadSegments(name string) ([][]float64, error) {
	var cs cachedSegments
	if err := c.read(name, &cs); err != nil {
		return nil, err
	}

	segments := make([][]float64, len(cs.Samples))
	for i, row := range cs.Samples {
		seg := make([]float64, len(row))
		for j, v := range row {
			seg[j] = float64(v)
		}
		segments[i] = seg
	}
	return segments, nil
}

// SaveLabels writes label vectors under name.
func (c *Cache) SaveLabels(name string, labels [][]float64) error {
	return c.write(name, cachedLabels{Labels: labels})
}

// LoadLabels reads label vectors previously written under name.
func (c *Cache) LoadLabels(name string) ([][]float64, error) {
	var cl cachedLabels
	if err := c.read(name, &cl); err != nil {
		return nil, err
	}
	return cl.Labels, nil
}

func packHalf(values []float64) []uint16 {
	out := make([]uint16, len(values))
	for i, v := range values {
		out[i] = float16.Fromfloat32(float32(v)).Bits()
	}
	return out
}

func unpackHalf(bits []uint16) []float64 {
	out := make([]float64, len(bits))
	for i, b := range bits {
		out[i] = float64(float16.Frombits(b).Float32())
	}
	return out
}
