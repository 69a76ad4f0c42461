// Package segment slices recordings into labeled respiratory event segments.
package segment
