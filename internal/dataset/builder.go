package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/view111111/lungsound-pipeline/internal/annotation"
	"github.com/view111111/lungsound-pipeline/internal/audio"
	"github.com/view111111/lungsound-pipeline/internal/metrics"
	"github.com/view111111/lungsound-pipeline/internal/pool"
	"github.com/view111111/lungsound-pipeline/internal/segment"
	"github.com/view111111/lungsound-pipeline/internal/spectrogram"
)

// classNames labels the diagnostic classes for logs and metrics.
var classNames = [segment.NumClasses]string{"normal", "crackles", "wheezes", "both"}

// Builder turns a directory of annotated recordings into rendered
// train and test pools. Every stage checks the cache first: a complete
// image pool short-circuits everything, cached segments skip the audio
// decoding, and a cold start scans the corpus from scratch.
type Builder struct {
	DataDir         string
	SampleRate      int
	TestFraction    float64
	SplitSeed       uint64
	Renderer        spectrogram.Renderer
	FFTVectorLength int
	Cache           *pool.Cache
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	ShowProgress    bool
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Build produces the rendered train and test pools.
func (b *Builder) Build() (train, test *pool.Pool, err error) {
	if b.Cache.Has(pool.TrainImages) && b.Cache.Has(pool.TestImages) {
		b.logger().Info("Loading rendered pools from cache", "dir", b.Cache.Dir)
		if b.Metrics != nil {
			b.Metrics.RecordCacheHit()
		}

		train, err = b.Cache.LoadPool(pool.TrainImages)
		if err != nil {
			return nil, nil, err
		}
		test, err = b.Cache.LoadPool(pool.TestImages)
		if err != nil {
			return nil, nil, err
		}
		return train, test, nil
	}
	if b.Metrics != nil {
		b.Metrics.RecordCacheMiss()
	}

	trainSegs, trainLabels, testSegs, testLabels, err := b.segments()
	if err != nil {
		return nil, nil, err
	}

	b.logger().Info("Rendering pools",
		"train_segments", len(trainSegs),
		"test_segments", len(testSegs),
		"image_size", b.Renderer.Size())

	train, err = b.renderPool(trainSegs, trainLabels, "rendering train images")
	if err != nil {
		return nil, nil, err
	}
	test, err = b.renderPool(testSegs, testLabels, "rendering test images")
	if err != nil {
		return nil, nil, err
	}

	if err := b.Cache.SavePool(pool.TrainImages, train); err != nil {
		return nil, nil, err
	}
	if err := b.Cache.SavePool(pool.TestImages, test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// segments returns the split raw segments, loading them from cache
// when all four artifacts are present and extracting them from the
// corpus otherwise.
func (b *Builder) segments() (trainSegs, trainLabels, testSegs, testLabels [][]float64, err error) {
	if b.Cache.Has(pool.TrainSegments) && b.Cache.Has(pool.TestSegments) &&
		b.Cache.Has(pool.TrainLabels) && b.Cache.Has(pool.TestLabels) {
		b.logger().Info("Loading segments from cache", "dir", b.Cache.Dir)
		if b.Metrics != nil {
			b.Metrics.RecordCacheHit()
		}

		if trainSegs, err = b.Cache.LoadSegments(pool.TrainSegments); err != nil {
			return nil, nil, nil, nil, err
		}
		if trainLabels, err = b.Cache.LoadLabels(pool.TrainLabels); err != nil {
			return nil, nil, nil, nil, err
		}
		if testSegs, err = b.Cache.LoadSegments(pool.TestSegments); err != nil {
			return nil, nil, nil, nil, err
		}
		if testLabels, err = b.Cache.LoadLabels(pool.TestLabels); err != nil {
			return nil, nil, nil, nil, err
		}
		return trainSegs, trainLabels, testSegs, testLabels, nil
	}

	buckets, err := b.extract()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	trainSplit, testSplit := Split(buckets, b.TestFraction, b.SplitSeed)
	trainSegs, trainLabels = flatten(trainSplit)
	testSegs, testLabels = flatten(testSplit)

	if err := b.Cache.SaveSegments(pool.TrainSegments, trainSegs); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := b.Cache.SaveLabels(pool.TrainLabels, trainLabels); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := b.Cache.SaveSegments(pool.TestSegments, testSegs); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := b.Cache.SaveLabels(pool.TestLabels, testLabels); err != nil {
		return nil, nil, nil, nil, err
	}
	return trainSegs, trainLabels, testSegs, testLabels, nil
}

// extract scans the corpus directory and slices every recording into
// class buckets. Recordings that fail to decode or whose annotation
// file fails to parse are logged, counted, and skipped; a corpus with
// no usable recording is an error.
func (b *Builder) extract() (segment.Buckets, error) {
	recordings, err := b.scan()
	if err != nil {
		return nil, err
	}

	b.logger().Info("Extracting segments", "recordings", len(recordings), "dir", b.DataDir)
	bar := b.progress(len(recordings), "extracting segments")

	buckets := segment.NewBuckets()
	processed := 0
	for _, rec := range recordings {
		if bar != nil {
			bar.Add(1)
		}

		anns, err := annotation.ParseFile(rec.annotationPath)
		if err != nil {
			b.logger().Warn("Skipping recording with bad annotations",
				"file", rec.annotationPath, "error", err)
			if b.Metrics != nil {
				b.Metrics.RecordAnnotationError()
			}
			continue
		}

		samples, err := audio.LoadRecording(rec.audioPath, b.SampleRate)
		if err != nil {
			b.logger().Warn("Skipping undecodable recording",
				"file", rec.audioPath, "error", err)
			if b.Metrics != nil {
				b.Metrics.RecordRecordingFailed()
			}
			continue
		}

		var before [segment.NumClasses]int
		for label := range before {
			before[label] = len(buckets[label])
		}

		buckets = segment.Extract(buckets, anns, samples, b.SampleRate)
		processed++
		if b.Metrics != nil {
			b.Metrics.RecordRecordingProcessed()
			for label, prev := range before {
				for _, seg := range buckets[label][prev:] {
					b.Metrics.RecordSegmentExtracted(classNames[label], len(seg.Samples) == 0)
				}
			}
		}
	}

	if processed == 0 {
		return nil, fmt.Errorf("no usable recordings in %s", b.DataDir)
	}

	for label := 0; label < segment.NumClasses; label++ {
		b.logger().Info("Class bucket filled",
			"class", classNames[label], "segments", len(buckets[label]))
	}
	return buckets, nil
}

type recording struct {
	audioPath      string
	annotationPath string
}

// scan pairs every audio file in the corpus directory with its
// same-named annotation file, in sorted order.
func (b *Builder) scan() ([]recording, error) {
	entries, err := os.ReadDir(b.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", b.DataDir, err)
	}

	var recordings []recording
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".wav" && ext != ".flac" {
			continue
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		annPath := filepath.Join(b.DataDir, base+".txt")
		if _, err := os.Stat(annPath); err != nil {
			b.logger().Warn("Recording has no annotation file", "file", entry.Name())
			continue
		}

		recordings = append(recordings, recording{
			audioPath:      filepath.Join(b.DataDir, entry.Name()),
			annotationPath: annPath,
		})
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].audioPath < recordings[j].audioPath
	})
	return recordings, nil
}

// renderPool renders each segment to its image and auxiliary FFT
// vector representation.
func (b *Builder) renderPool(segs, labels [][]float64, desc string) (*pool.Pool, error) {
	p := pool.New(len(segs))
	bar := b.progress(len(segs), desc)

	for i, seg := range segs {
		start := time.Now()
		img, err := b.Renderer.Render(seg)
		if err != nil {
			return nil, fmt.Errorf("failed to render segment %d: %w", i, err)
		}
		aux := spectrogram.FFTVector(seg, b.FFTVectorLength)

		if err := p.Append(img, aux, labels[i]); err != nil {
			return nil, err
		}
		if b.Metrics != nil {
			b.Metrics.RecordImageRendered(time.Since(start).Seconds(), b.Renderer.Iterations())
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return p, nil
}

func (b *Builder) progress(n int, desc string) *progressbar.ProgressBar {
	if !b.ShowProgress {
		return nil
	}
	return progressbar.Default(int64(n), desc)
}
