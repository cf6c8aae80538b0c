package hid

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var (
	// ErrWriteBusy means the host has not drained the previous report yet.
	// Recoverable by retrying.
	ErrWriteBusy = errors.New("hid: endpoint busy")

	// ErrLinkDown means the gadget endpoint pipe is gone, typically because
	// the USB cable was pulled or carries power only.
	ErrLinkDown = errors.New("hid: link down")

	// ErrNotReady means the gadget set has not been enabled yet.
	ErrNotReady = errors.New("hid: gadget not ready")
)

// reportWriter delivers a single HID report to the host.
type reportWriter interface {
	WriteReport(report []byte) error
	Close() error
}

// devWriter writes reports to a /dev/hidgN character device. A deadline
// bounds every write so that a host that stopped reading cannot block the
// relay loop; the blocked write surfaces as ErrWriteBusy instead.
type devWriter struct {
	path    string
	f       *os.File
	timeout time.Duration

	// write latency accounting, logged at debug level
	count         int64
	avg, min, max int64
}

func openDevWriter(path string, timeout time.Duration) (*devWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening %s (are you running as root?): %w", path, err)
	}
	return &devWriter{path: path, f: f, timeout: timeout}, nil
}

func (w *devWriter) WriteReport(report []byte) error {
	start := hrtime.Now()

	if err := w.f.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		return fmt.Errorf("%s: %w", w.path, err)
	}
	if _, err := w.f.Write(report); err != nil {
		return w.classify(err)
	}

	w.observeLatency(hrtime.Since(start).Nanoseconds())
	return nil
}

func (w *devWriter) classify(err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, unix.EAGAIN):
		return fmt.Errorf("%s: %w", w.path, ErrWriteBusy)
	case errors.Is(err, unix.EPIPE), errors.Is(err, unix.ESHUTDOWN), errors.Is(err, unix.ENODEV):
		return fmt.Errorf("%s: %w", w.path, ErrLinkDown)
	}
	return fmt.Errorf("writing to %s: %w", w.path, err)
}

func (w *devWriter) observeLatency(latency int64) {
	if w.count == 0 || latency < w.min {
		w.min = latency
	}
	if latency > w.max {
		w.max = latency
	}
	w.avg = (w.avg + latency) / 2
	w.count++
	if w.count%50 == 0 {
		log.Debugf("%s latency: now=%d, avg=%d, min=%d, max=%d μs",
			w.path, latency/1000, w.avg/1000, w.min/1000, w.max/1000)
	}
}

func (w *devWriter) Close() error {
	return w.f.Close()
}
