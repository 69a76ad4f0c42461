// Package pool holds ordered collections of rendered representations
// and label vectors, and their on-disk cache format.
package pool
