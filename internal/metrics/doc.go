// Package metrics derives approach distances and movement speeds from a
// session's position samples once they are aligned with the stimulus stream.
package metrics
