// Package spectrogram renders variable-length audio segments into
// fixed-size square time-frequency images.
package spectrogram
