// Package mixup balances class counts and synthesizes convex-combination
// training samples from paired pool views.
package mixup
