// Package evaluate scores predicted class probabilities against true
// labels with the ICBHI benchmark metrics.
package evaluate
