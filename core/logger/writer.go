package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter decouples log formatting from sink IO. Lines are copied onto
// a channel and a single goroutine fans them out to every sink, so a slow
// log file never stalls the handler path.
type asyncWriter struct {
	lines  chan []byte
	flushC chan chan error
	closed chan struct{}
	stop   sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer
	fail  error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	sinks := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, bufio.NewWriterSize(w, bufSize))
		}
	}
	aw := &asyncWriter{
		lines:  make(chan []byte, 256),
		flushC: make(chan chan error),
		closed: make(chan struct{}),
		sinks:  sinks,
	}
	go aw.run()
	return aw
}

func (w *asyncWriter) run() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flushSinks()
				close(w.closed)
				return
			}
			if len(line) > 0 {
				w.writeSinks(line)
			}
		case ack := <-w.flushC:
			ack <- w.flushSinks()
		}
	}
}

// Write copies the line and hands it to the fan-out goroutine. Once the
// channel is full it blocks rather than dropping log output.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.lines <- line
	return nil
}

// Flush forces buffered content out to every sink.
func (w *asyncWriter) Flush() error {
	if err := w.err(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushC <- ack
	return <-ack
}

// Close drains pending lines and reports the first write failure, if any.
func (w *asyncWriter) Close() error {
	w.stop.Do(func() { close(w.lines) })
	<-w.closed
	return w.err()
}

func (w *asyncWriter) writeSinks(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			w.record(err)
			return
		}
		if err := sink.Flush(); err != nil {
			w.record(err)
			return
		}
	}
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fail
}

// record keeps the first failure. Callers must hold mu.
func (w *asyncWriter) record(err error) {
	if w.fail == nil {
		w.fail = err
	}
}
