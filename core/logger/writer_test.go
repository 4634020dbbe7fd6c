package logger

import (
	"io"
	"testing"
)

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestAsyncWriterLatchesSinkFailure(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{failingSink{}}, 16)
	if err := aw.Write([]byte("line\n")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := aw.Close(); err == nil {
		t.Fatal("close must surface the sink failure")
	}
}
