package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// WriterNotifier prints alerts to a writer and reads confirmations as y/n lines from
// a reader. A nil reader declines every confirmation. At most one read is outstanding:
// a prompt cancelled through its context hands its pending read to the next prompt.
type WriterNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	in      *bufio.Reader
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewWriterNotifier returns a WriterNotifier.
func NewWriterNotifier(out io.Writer, in io.Reader) *WriterNotifier {
	n := &WriterNotifier{out: out}
	if in != nil {
		n.in = bufio.NewReader(in)
	}
	return n
}

// Alert implements Notifier.
func (n *WriterNotifier) Alert(_ context.Context, msg Message, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintln(n.out, prefixed(msg, title))
	return err
}

// Confirm implements Notifier.
func (n *WriterNotifier) Confirm(ctx context.Context, msg Message, title string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprint(n.out, prefixed(msg, title)+" [y/N] "); err != nil {
		return false, err
	}
	if n.in == nil {
		_, _ = fmt.Fprintln(n.out)
		return false, nil
	}

	done := n.pending
	n.pending = nil
	if done == nil {
		done = make(chan readResult, 1)
		go func() {
			line, err := n.in.ReadString('\n')
			done <- readResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		n.pending = done
		return false, ctx.Err()
	case r := <-done:
		if r.err != nil && r.err != io.EOF {
			return false, r.err
		}
		switch strings.ToLower(strings.TrimSpace(r.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
