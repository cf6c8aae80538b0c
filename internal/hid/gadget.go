// Package hid owns the USB HID gadget: the configfs function tree, the UDC
// binding, and the keyboard / mouse / consumer-control report sinks.
package hid

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map"
)

const (
	defaultConfigFSRoot = "/sys/kernel/config/usb_gadget"
	defaultUDCClassRoot = "/sys/class/udc"
	defaultDevRoot      = "/dev"
)

// Boot-protocol report descriptors for the three gadget functions.
var (
	keyboardReportDesc = []byte{
		0x05, 0x01, 0x09, 0x06, 0xa1, 0x01, 0x05, 0x07, 0x19, 0xe0, 0x29, 0xe7,
		0x15, 0x00, 0x25, 0x01, 0x75, 0x01, 0x95, 0x08, 0x81, 0x02, 0x95, 0x01,
		0x75, 0x08, 0x81, 0x03, 0x95, 0x05, 0x75, 0x01, 0x05, 0x08, 0x19, 0x01,
		0x29, 0x05, 0x91, 0x02, 0x95, 0x01, 0x75, 0x03, 0x91, 0x03, 0x95, 0x06,
		0x75, 0x08, 0x15, 0x00, 0x25, 0x65, 0x05, 0x07, 0x19, 0x00, 0x29, 0x65,
		0x81, 0x00, 0xc0,
	}
	mouseReportDesc = []byte{
		0x05, 0x01, 0x09, 0x02, 0xa1, 0x01, 0x09, 0x01, 0xa1, 0x00, 0x05, 0x09,
		0x19, 0x01, 0x29, 0x05, 0x15, 0x00, 0x25, 0x01, 0x95, 0x05, 0x75, 0x01,
		0x81, 0x02, 0x95, 0x01, 0x75, 0x03, 0x81, 0x01, 0x05, 0x01, 0x09, 0x30,
		0x09, 0x31, 0x09, 0x38, 0x15, 0x81, 0x25, 0x7f, 0x75, 0x08, 0x95, 0x03,
		0x81, 0x06, 0xc0, 0xc0,
	}
	consumerReportDesc = []byte{
		0x05, 0x0c, 0x09, 0x01, 0xa1, 0x01, 0x15, 0x00, 0x26, 0xff, 0x03,
		0x19, 0x00, 0x2a, 0xff, 0x03, 0x75, 0x10, 0x95, 0x01, 0x81, 0x00, 0xc0,
	}
)

// GadgetSet owns the three USB HID output endpoints. Enable replaces all
// three sinks together; readers never observe a partially initialized set.
type GadgetSet struct {
	name         string
	writeTimeout time.Duration

	// overridable roots, for tests
	configFSRoot string
	udcClassRoot string
	devRoot      string

	mu       sync.RWMutex
	keyboard *Keyboard
	mouse    *Mouse
	consumer *Consumer
	writers  []reportWriter
}

// NewGadgetSet prepares a gadget set named after the configfs gadget
// directory. Nothing touches the kernel until Enable.
func NewGadgetSet(name string, writeTimeout time.Duration) *GadgetSet {
	return &GadgetSet{
		name:         name,
		writeTimeout: writeTimeout,
		configFSRoot: defaultConfigFSRoot,
		udcClassRoot: defaultUDCClassRoot,
		devRoot:      defaultDevRoot,
	}
}

// Keyboard returns the keyboard sink, or ErrNotReady.
func (g *GadgetSet) Keyboard() (KeySink, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.keyboard == nil {
		return nil, ErrNotReady
	}
	return g.keyboard, nil
}

// Mouse returns the mouse sink, or ErrNotReady.
func (g *GadgetSet) Mouse() (PointerSink, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.mouse == nil {
		return nil, ErrNotReady
	}
	return g.mouse, nil
}

// Consumer returns the consumer-control sink, or ErrNotReady.
func (g *GadgetSet) Consumer() (KeySink, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.consumer == nil {
		return nil, ErrNotReady
	}
	return g.consumer, nil
}

// Enable registers the gadget functions with the kernel and opens fresh
// output sinks. An already bound gadget is unbound first, so the host sees a
// clean disconnect/reconnect; call this once per process lifetime or per
// explicit reset.
func (g *GadgetSet) Enable() error {
	log.Debug("Initializing USB gadgets...")

	if err := g.writeConfigFS(); err != nil {
		return err
	}
	if err := g.unbindUDC(); err != nil {
		log.Debugf("UDC unbind skipped: %v", err)
	}
	// Give the kernel a moment to settle before (re)binding.
	time.Sleep(time.Second)
	if err := g.bindUDC(); err != nil {
		return err
	}
	time.Sleep(time.Second)

	var writers []reportWriter
	closeAll := func() {
		for _, w := range writers {
			w.Close()
		}
	}
	for i := 0; i < 3; i++ {
		w, err := openDevWriter(filepath.Join(g.devRoot, fmt.Sprintf("hidg%d", i)), g.writeTimeout)
		if err != nil {
			closeAll()
			return err
		}
		writers = append(writers, w)
	}

	g.mu.Lock()
	old := g.writers
	g.keyboard = newKeyboard(writers[0])
	g.mouse = newMouse(writers[1])
	g.consumer = newConsumer(writers[2])
	g.writers = writers
	g.mu.Unlock()

	for _, w := range old {
		w.Close()
	}

	log.Infof("Enabled USB gadget %q (keyboard, mouse, consumer control)", g.name)
	return nil
}

// Disable unbinds the gadget from the UDC and drops the sinks.
func (g *GadgetSet) Disable() error {
	g.mu.Lock()
	writers := g.writers
	g.keyboard, g.mouse, g.consumer, g.writers = nil, nil, nil, nil
	g.mu.Unlock()

	for _, w := range writers {
		w.Close()
	}
	return g.unbindUDC()
}

// writeConfigFS lays out the gadget tree. Attribute order matters to the
// kernel, hence the ordered map. Existing files with matching content are
// left alone so a restart does not re-enumerate the host.
func (g *GadgetSet) writeConfigFS() error {
	basepath := filepath.Join(g.configFSRoot, g.name)
	paths := []string{
		basepath,
		basepath + "/strings/0x409",
		basepath + "/configs/c.1/strings/0x409",
		basepath + "/functions/hid.usb0",
		basepath + "/functions/hid.usb1",
		basepath + "/functions/hid.usb2",
	}

	filesStr := orderedmap.New()
	filesStr.Set(basepath+"/idVendor", "0x1d6b")  // Linux Foundation
	filesStr.Set(basepath+"/idProduct", "0x0104") // Multifunction Composite Gadget
	filesStr.Set(basepath+"/bcdDevice", "0x0100")
	filesStr.Set(basepath+"/bcdUSB", "0x0200")
	filesStr.Set(basepath+"/strings/0x409/serialnumber", "00100")
	filesStr.Set(basepath+"/strings/0x409/manufacturer", "quaxalber")
	filesStr.Set(basepath+"/strings/0x409/product", "Bluetooth 2 HID")
	filesStr.Set(basepath+"/configs/c.1/strings/0x409/configuration", "Config 1: Bluetooth 2 HID")
	filesStr.Set(basepath+"/configs/c.1/MaxPower", "250")
	filesStr.Set(basepath+"/functions/hid.usb0/protocol", "1")
	filesStr.Set(basepath+"/functions/hid.usb0/subclass", "1")
	filesStr.Set(basepath+"/functions/hid.usb0/report_length", "8")
	filesStr.Set(basepath+"/functions/hid.usb1/protocol", "2")
	filesStr.Set(basepath+"/functions/hid.usb1/subclass", "1")
	filesStr.Set(basepath+"/functions/hid.usb1/report_length", "4")
	filesStr.Set(basepath+"/functions/hid.usb2/protocol", "0")
	filesStr.Set(basepath+"/functions/hid.usb2/subclass", "0")
	filesStr.Set(basepath+"/functions/hid.usb2/report_length", "2")

	filesBytes := map[string][]byte{
		basepath + "/functions/hid.usb0/report_desc": keyboardReportDesc,
		basepath + "/functions/hid.usb1/report_desc": mouseReportDesc,
		basepath + "/functions/hid.usb2/report_desc": consumerReportDesc,
	}
	symlinks := map[string]string{
		basepath + "/functions/hid.usb0": basepath + "/configs/c.1/hid.usb0",
		basepath + "/functions/hid.usb1": basepath + "/configs/c.1/hid.usb1",
		basepath + "/functions/hid.usb2": basepath + "/configs/c.1/hid.usb2",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Debugf("Creating directory: %s", path)
			if err := os.MkdirAll(path, os.ModeDir|0755); err != nil {
				return fmt.Errorf("creating gadget directory %s: %w", path, err)
			}
		}
	}

	for pair := filesStr.Oldest(); pair != nil; pair = pair.Next() {
		path := pair.Key.(string)
		want := []byte(pair.Value.(string))
		if content, err := os.ReadFile(path); err == nil && bytes.Equal(bytes.TrimSuffix(content, []byte("\n")), want) {
			continue
		}
		log.Debugf("Writing file: %s", path)
		if err := os.WriteFile(path, want, 0644); err != nil {
			log.Warnf("Failed to write file: %s (maybe already set up)", path)
		}
	}

	for path, want := range filesBytes {
		if content, err := os.ReadFile(path); err == nil && bytes.Equal(content, want) {
			continue
		}
		log.Debugf("Writing file: %s", path)
		if err := os.WriteFile(path, want, 0644); err != nil {
			log.Warnf("Failed to write file: %s (maybe already set up)", path)
		}
	}

	for source, target := range symlinks {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			log.Debugf("Creating symlink from %s to: %s", source, target)
			if err := os.Symlink(source, target); err != nil {
				return fmt.Errorf("creating symlink %s -> %s: %w", source, target, err)
			}
		}
	}

	return nil
}

func (g *GadgetSet) bindUDC() error {
	udc, err := g.FirstUDC()
	if err != nil {
		return err
	}
	udcFile := filepath.Join(g.configFSRoot, g.name, "UDC")
	if content, err := os.ReadFile(udcFile); err == nil && strings.TrimSpace(string(content)) == udc {
		return nil
	}
	if err := os.WriteFile(udcFile, []byte(udc), 0644); err != nil {
		return fmt.Errorf("binding gadget to UDC %s: %w", udc, err)
	}
	return nil
}

func (g *GadgetSet) unbindUDC() error {
	udcFile := filepath.Join(g.configFSRoot, g.name, "UDC")
	content, err := os.ReadFile(udcFile)
	if err != nil || strings.TrimSpace(string(content)) == "" {
		return nil
	}
	return os.WriteFile(udcFile, []byte("\n"), 0644)
}

// FirstUDC returns the name of the first USB Device Controller, or an error
// when the system has none (gadget mode not enabled).
func (g *GadgetSet) FirstUDC() (string, error) {
	matches, err := filepath.Glob(filepath.Join(g.udcClassRoot, "*"))
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", g.udcClassRoot, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no UDC found under %s: USB gadget mode may not be enabled", g.udcClassRoot)
	}
	sort.Strings(matches)
	return filepath.Base(matches[0]), nil
}

// UDCStatePath returns the link-state file of the first UDC.
func (g *GadgetSet) UDCStatePath() (string, error) {
	udc, err := g.FirstUDC()
	if err != nil {
		return "", err
	}
	return filepath.Join(g.udcClassRoot, udc, "state"), nil
}
