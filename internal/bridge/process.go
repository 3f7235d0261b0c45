package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultTimeout       = 30 * time.Minute
	defaultGrace         = 2 * time.Second
	defaultMaxTranscript = 1 << 20 // 1 MiB retained for the returned text
)

// Result is the structured outcome of one agent invocation.
type Result struct {
	// Completed is true when the completion sentinel was seen, or the
	// process exited zero with no failure sentinel.
	Completed bool
	// Output is the accumulated stdout with sentinels stripped.
	Output string
	// Stderr is the accumulated standard error.
	Stderr string
	// FailureReason carries the failure sentinel's reason or a synthetic
	// description (non-zero exit, timeout).
	FailureReason string
	// TimedOut is true when the wall-clock timeout expired.
	TimedOut bool
}

// Process runs the coding agent as a subprocess speaking the sentinel
// protocol: the prompt is delivered on stdin, stdout is scanned
// incrementally for the completion sentinel, stderr for the failure
// sentinel. A wall-clock timeout races the subprocess; on expiry the process
// is killed and the result is a timeout failure, never left hanging.
type Process struct {
	// Path is the agent executable.
	Path string
	// Args are passed before the prompt is written to stdin.
	Args []string
	// Timeout bounds the whole invocation (default 30m).
	Timeout time.Duration
	// Grace is how long to wait after a graceful signal before SIGKILL.
	Grace time.Duration
	// MaxTranscript caps the stdout retained for Result.Output.
	MaxTranscript int
}

func (p *Process) timeout() time.Duration {
	if p.Timeout <= 0 {
		return defaultTimeout
	}
	return p.Timeout
}

func (p *Process) grace() time.Duration {
	if p.Grace <= 0 {
		return defaultGrace
	}
	return p.Grace
}

func (p *Process) maxTranscript() int {
	if p.MaxTranscript <= 0 {
		return defaultMaxTranscript
	}
	return p.MaxTranscript
}

// Run invokes the agent with the prompt on stdin and supervises it until a
// sentinel, natural exit, timeout, or context cancellation.
func (p *Process) Run(ctx context.Context, prompt, workDir string) (*Result, error) {
	cmd := exec.Command(p.Path, p.Args...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start agent process: %w", err)
	}

	go func() {
		io.WriteString(stdin, prompt)
		stdin.Close()
	}()

	var (
		mu         sync.Mutex
		transcript bytes.Buffer
		stderrBuf  bytes.Buffer
		failReason string
		sawFailure bool
	)

	// completionCh fires once when the completion sentinel appears on
	// stdout. stdoutDone closes when the stream is drained.
	completionCh := make(chan struct{}, 1)
	stdoutDone := make(chan struct{})
	stderrDone := make(chan struct{})

	go func() {
		defer close(stdoutDone)
		scanner := &sentinelScanner{}
		buf := make([]byte, 4096)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				mu.Lock()
				if transcript.Len() < p.maxTranscript() {
					transcript.Write(buf[:n])
				}
				mu.Unlock()
				completed, reason, failed := scanner.Feed(buf[:n])
				if failed {
					mu.Lock()
					sawFailure, failReason = true, reason
					mu.Unlock()
				}
				if completed {
					select {
					case completionCh <- struct{}{}:
					default:
					}
					return
				}
			}
			if readErr != nil {
				return
			}
		}
	}()

	go func() {
		defer close(stderrDone)
		scanner := &sentinelScanner{}
		buf := make([]byte, 4096)
		for {
			n, readErr := stderr.Read(buf)
			if n > 0 {
				mu.Lock()
				if stderrBuf.Len() < p.maxTranscript() {
					stderrBuf.Write(buf[:n])
				}
				mu.Unlock()
				if _, reason, failed := scanner.Feed(buf[:n]); failed {
					mu.Lock()
					sawFailure, failReason = true, reason
					mu.Unlock()
				}
			}
			if readErr != nil {
				return
			}
		}
	}()

	// Wait closes the pipes and discards whatever is still buffered in
	// them, so it must not run until both readers have drained. A fast
	// exit would otherwise race the readers and drop tail output,
	// including a late failure sentinel.
	exitCh := make(chan error, 1)
	go func() {
		<-stdoutDone
		<-stderrDone
		exitCh <- cmd.Wait()
	}()

	timer := time.NewTimer(p.timeout())
	defer timer.Stop()

	snapshot := func() (string, string) {
		mu.Lock()
		defer mu.Unlock()
		return transcript.String(), stderrBuf.String()
	}

	select {
	case <-completionCh:
		// Task is done; do not wait for natural exit. Graceful signal
		// first, forced kill if the agent is unresponsive.
		p.terminate(cmd, exitCh)
		out, errOut := snapshot()
		mu.Lock()
		failed, reason := sawFailure, failReason
		mu.Unlock()
		if failed {
			return &Result{Output: StripSentinels(out), Stderr: errOut, FailureReason: reason}, nil
		}
		return &Result{Completed: true, Output: StripSentinels(out), Stderr: errOut}, nil

	case exitErr := <-exitCh:
		out, errOut := snapshot()
		mu.Lock()
		failed, reason := sawFailure, failReason
		mu.Unlock()
		// Late sentinel check: the reader may have matched just before exit.
		if !failed {
			if r, ok := FindFailure(errOut); ok {
				failed, reason = true, r
			}
		}
		switch {
		case failed:
			return &Result{Output: StripSentinels(out), Stderr: errOut, FailureReason: reason}, nil
		case completedRe.MatchString(out):
			return &Result{Completed: true, Output: StripSentinels(out), Stderr: errOut}, nil
		case exitErr == nil:
			// Exit code is the secondary signal when no sentinel appeared.
			return &Result{Completed: true, Output: out, Stderr: errOut}, nil
		default:
			return &Result{
				Output:        out,
				Stderr:        errOut,
				FailureReason: fmt.Sprintf("agent exited without completion sentinel: %v", exitErr),
			}, nil
		}

	case <-timer.C:
		p.terminate(cmd, exitCh)
		out, errOut := snapshot()
		return &Result{
			Output:        StripSentinels(out),
			Stderr:        errOut,
			TimedOut:      true,
			FailureReason: fmt.Sprintf("agent timed out after %s", p.timeout()),
		}, nil

	case <-ctx.Done():
		p.terminate(cmd, exitCh)
		out, errOut := snapshot()
		return &Result{Output: StripSentinels(out), Stderr: errOut, FailureReason: ctx.Err().Error()}, nil
	}
}

// terminate signals the process to stop, escalating to SIGKILL after the
// grace window. The wait after the kill is bounded: exitCh fires only once
// the pipe readers drain, and an orphaned grandchild can hold a pipe open
// past the agent's death.
func (p *Process) terminate(cmd *exec.Cmd, exitCh <-chan error) {
	if cmd.Process == nil {
		return
	}
	cmd.Process.Signal(os.Interrupt)
	select {
	case <-exitCh:
	case <-time.After(p.grace()):
		cmd.Process.Kill()
		select {
		case <-exitCh:
		case <-time.After(p.grace()):
		}
	}
}
