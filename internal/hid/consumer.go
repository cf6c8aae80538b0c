package hid

import (
	"encoding/binary"
	"sync"
)

// Consumer sends 16-bit usage reports on the HID consumer page. The report
// carries a single usage; zero means "nothing pressed".
type Consumer struct {
	mu sync.Mutex
	w  reportWriter
}

func newConsumer(w reportWriter) *Consumer {
	return &Consumer{w: w}
}

// Press sends the usage.
func (c *Consumer) Press(code uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var report [2]byte
	binary.LittleEndian.PutUint16(report[:], code)
	return c.w.WriteReport(report[:])
}

// Release sends the empty usage. The consumer report holds one usage at a
// time, so releasing any key releases the report.
func (c *Consumer) Release(code uint16) error {
	return c.ReleaseAll()
}

// ReleaseAll sends the empty usage.
func (c *Consumer) ReleaseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.w.WriteReport([]byte{0, 0})
}
