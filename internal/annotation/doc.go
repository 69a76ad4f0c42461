// Package annotation parses per-recording respiratory event annotations.
package annotation
