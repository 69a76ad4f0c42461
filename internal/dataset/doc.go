// Package dataset assembles the training and evaluation pools from a
// directory of annotated recordings. It pairs audio files with their
// annotation files, extracts labeled respiratory cycle segments, splits
// them per class with a seeded shuffle, renders the spectrogram pools,
// and caches every intermediate artifact so repeated runs skip the
// expensive stages.
package dataset
