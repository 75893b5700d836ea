package log

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

var (
	fileSinkMutex sync.Mutex
	fileSink      *os.File
)

// WithFileSink tees all log output into the file at path for the rest
// of the process lifetime (or until CloseFileSink), so a benchmarking
// run leaves a complete transcript next to its other artifacts.
func WithFileSink(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.WithStack(err)
	}

	fileSinkMutex.Lock()
	defer fileSinkMutex.Unlock()
	if fileSink != nil {
		_ = fileSink.Close()
	}
	fileSink = f
	return nil
}

func CloseFileSink() {
	fileSinkMutex.Lock()
	defer fileSinkMutex.Unlock()
	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
}

func writeToFileSink(s string) {
	fileSinkMutex.Lock()
	defer fileSinkMutex.Unlock()
	if fileSink != nil {
		_, _ = fileSink.WriteString(s)
	}
}
