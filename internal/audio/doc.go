// Package audio loads lung-sound recordings and converts them to mono
// float samples at the pipeline rate. It decodes WAV and FLAC input,
// resamples when needed, and encodes PCM WAV for exported fixtures.
package audio
