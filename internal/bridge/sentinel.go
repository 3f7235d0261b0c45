// Package bridge invokes the external coding agent for one bead and returns
// a structured result. Completion is signaled by a sentinel embedded in the
// output stream, not by the process exit code alone: the agent may still be
// flushing output, or may be a long-lived session, when the task is done.
package bridge

import "regexp"

// Sentinels embedded in agent output. Matched anywhere in the stream,
// case-sensitive.
var (
	completedRe = regexp.MustCompile(`\[\[AXON_STATUS:COMPLETED\]\]`)
	failedRe    = regexp.MustCompile(`\[\[AXON_STATUS:FAILED:([^\]]*)\]\]`)
)

// CompletedSentinel is the exact marker the agent must emit on success.
const CompletedSentinel = "[[AXON_STATUS:COMPLETED]]"

// scanWindow bounds how much stream tail is kept for sentinel matching.
// Large enough for either sentinel plus a generous failure reason; the
// window slides so memory stays constant on long-lived sessions.
const scanWindow = 1024

// sentinelScanner detects sentinels across chunk boundaries with a bounded
// sliding window instead of an unbounded accumulating buffer.
type sentinelScanner struct {
	window []byte
}

// Feed appends a chunk and reports the first sentinel seen.
func (s *sentinelScanner) Feed(chunk []byte) (completed bool, failReason string, failed bool) {
	s.window = append(s.window, chunk...)

	if completedRe.Match(s.window) {
		completed = true
	}
	if m := failedRe.FindSubmatch(s.window); m != nil {
		failed = true
		failReason = string(m[1])
	}

	if n := len(s.window); n > scanWindow {
		s.window = s.window[n-scanWindow:]
	}
	return completed, failReason, failed
}

// StripSentinels removes both sentinel markers from agent output.
func StripSentinels(text string) string {
	text = completedRe.ReplaceAllString(text, "")
	text = failedRe.ReplaceAllString(text, "")
	return text
}

// FindFailure returns the failure reason if a failure sentinel appears in
// the text.
func FindFailure(text string) (string, bool) {
	if m := failedRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}
