package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/mewkiz/flac"
)

// resampleQuality trades accuracy for speed in beep's resampler; 4 is
// the library's recommended middle ground.
const resampleQuality = 4

// LoadRecording decodes an audio recording, downmixes it to mono by
// averaging channels, and resamples it to targetRate when the file
// rate differs. Supported formats are WAV and FLAC, chosen by file
// extension. Any read or decode failure is fatal for the recording and
// surfaced immediately.
func LoadRecording(path string, targetRate int) ([]float64, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target rate must be positive, got %d", targetRate)
	}

	var (
		samples []float64
		rate    int
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, rate, err = loadWAV(path)
	case ".flac":
		samples, rate, err = loadFLAC(path)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording %s: %w", path, err)
	}

	if rate != targetRate {
		samples = resample(samples, rate, targetRate)
	}
	return samples, nil
}

func loadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("wav decode: %w", err)
	}
	defer stream.Close()

	out := make([]float64, 0, stream.Len())
	buf := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, fmt.Errorf("wav stream: %w", err)
	}

	return out, int(format.SampleRate), nil
}

func loadFLAC(path string) ([]float64, int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("flac parse: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	numChannels := int(info.NChannels)
	scale := float64(int64(1) << (info.BitsPerSample - 1))

	var out []float64
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("flac frame: %w", err)
		}

		numFrames := len(frame.Subframes[0].Samples)
		for i := 0; i < numFrames; i++ {
			var sum float64
			for ch := 0; ch < numChannels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			out = append(out, sum/float64(numChannels)/scale)
		}
	}

	return out, int(info.SampleRate), nil
}

// resample converts mono samples between rates through beep's
// windowed-sinc resampler.
func resample(samples []float64, fromRate, toRate int) []float64 {
	src := &monoStreamer{samples: samples}
	r := beep.Resample(resampleQuality, beep.SampleRate(fromRate), beep.SampleRate(toRate), src)

	estimate := int(float64(len(samples))*float64(toRate)/float64(fromRate)) + 1
	out := make([]float64, 0, estimate)
	buf := make([][2]float64, 512)
	for {
		n, ok := r.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}
		if !ok {
			break
		}
	}
	return out
}

// monoStreamer adapts a mono sample slice to beep's stereo streamer
// interface by duplicating the channel.
type monoStreamer struct {
	samples []float64
	pos     int
}

func (m *monoStreamer) Stream(buf [][2]float64) (int, bool) {
	if m.pos >= len(m.samples) {
		return 0, false
	}

	n := 0
	for n < len(buf) && m.pos < len(m.samples) {
		v := m.samples[m.pos]
		buf[n][0], buf[n][1] = v, v
		n++
		m.pos++
	}
	return n, true
}

func (m *monoStreamer) Err() error {
	return nil
}
