package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestMessageString(t *testing.T) {
	cases := []struct {
		msg  Message
		want string
	}{
		{msg: Message{Key: "save.failed"}, want: "save.failed"},
		{msg: Message{Key: "save.failed", Args: []any{"order", 3}}, want: "save.failed [order, 3]"},
		{msg: Message{Key: "ignored", Text: "Saved."}, want: "Saved."},
	}
	for _, tc := range cases {
		if got := tc.msg.String(); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
}

func TestWriterNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewWriterNotifier(&out, strings.NewReader("y\nno\n"))
	ctx := context.Background()

	if err := n.Alert(ctx, Message{Key: "error"}, TitleError); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if !strings.HasPrefix(out.String(), "[Error] error\n") {
		t.Fatalf("unexpected alert output %q", out.String())
	}

	ok, err := n.Confirm(ctx, Message{Text: "Leave?"}, "")
	if err != nil || !ok {
		t.Fatalf("expected yes, got %v %v", ok, err)
	}
	ok, err = n.Confirm(ctx, Message{Text: "Leave?"}, "")
	if err != nil || ok {
		t.Fatalf("expected no, got %v %v", ok, err)
	}
}

func TestWriterNotifierWithoutInputDeclines(t *testing.T) {
	var out bytes.Buffer
	ok, err := NewWriterNotifier(&out, nil).Confirm(context.Background(), Message{Text: "Leave?"}, TitleConfirm)
	if err != nil || ok {
		t.Fatalf("expected decline, got %v %v", ok, err)
	}
}

func TestWriterNotifierCancelledPromptHandsOverRead(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	var out bytes.Buffer
	n := NewWriterNotifier(&out, pr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Confirm(ctx, Message{Text: "Leave?"}, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	for _, tc := range []struct {
		line string
		want bool
	}{
		{line: "yes\n", want: true},
		{line: "n\n", want: false},
	} {
		go func() { _, _ = io.WriteString(pw, tc.line) }()

		answered := make(chan bool, 1)
		go func() {
			ok, err := n.Confirm(context.Background(), Message{Text: "Leave?"}, "")
			if err != nil {
				t.Errorf("confirm: %v", err)
			}
			answered <- ok
		}()
		select {
		case ok := <-answered:
			if ok != tc.want {
				t.Fatalf("line %q: got %v", tc.line, ok)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("line %q was not delivered to the prompt", tc.line)
		}
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{Answer: true}
	_ = r.Alert(context.Background(), Message{Key: "a"}, TitleError)
	if got := r.Alerts(); len(got) != 1 || got[0].Message.Key != "a" || got[0].Title != TitleError {
		t.Fatalf("unexpected alerts %+v", got)
	}
	if ok, _ := r.Confirm(context.Background(), Message{}, ""); !ok {
		t.Fatal("expected configured answer")
	}
	r.Reset()
	if len(r.Alerts()) != 0 {
		t.Fatal("reset must clear alerts")
	}
}
