package logging

import (
	"io"
	"os"
	"sync"
)

// AsyncWriter hands lines to a single goroutine so callers never block on disk.
type AsyncWriter struct {
	buffer  chan []byte
	out     io.Writer
	closer  io.Closer
	done    chan struct{}
	drained chan struct{}
	once    sync.Once
}

func NewAsyncWriter(path string, bufferSize int) (*AsyncWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return newAsyncWriter(file, file, bufferSize), nil
}

func newAsyncWriter(out io.Writer, closer io.Closer, bufferSize int) *AsyncWriter {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	aw := &AsyncWriter{
		buffer:  make(chan []byte, bufferSize),
		out:     out,
		closer:  closer,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}

	go aw.writeLoop()

	return aw
}

// Write drops data when the buffer is full.
func (aw *AsyncWriter) Write(data []byte) bool {
	select {
	case <-aw.done:
		return false
	default:
	}
	select {
	case aw.buffer <- data:
		return true
	default:
		return false
	}
}

func (aw *AsyncWriter) writeLoop() {
	defer close(aw.drained)
	for {
		select {
		case data := <-aw.buffer:
			aw.out.Write(data)
		case <-aw.done:
			for len(aw.buffer) > 0 {
				data := <-aw.buffer
				aw.out.Write(data)
			}
			return
		}
	}
}

// Close flushes pending data before closing the file.
func (aw *AsyncWriter) Close() error {
	var err error
	aw.once.Do(func() {
		close(aw.done)
		<-aw.drained
		if aw.closer != nil {
			err = aw.closer.Close()
		}
	})
	return err
}
