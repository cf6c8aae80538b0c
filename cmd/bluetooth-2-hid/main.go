package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"

	"github.com/quaxalber/bluetooth-2-hid/internal/config"
	"github.com/quaxalber/bluetooth-2-hid/internal/hid"
	"github.com/quaxalber/bluetooth-2-hid/internal/monitor"
	"github.com/quaxalber/bluetooth-2-hid/internal/relay"
	"github.com/quaxalber/bluetooth-2-hid/internal/shortcut"
)

const version = "0.9.0"

func main() {
	configPath := flag.String("config", "", "path to the config file (default: user config dir)")
	logLevel := flag.String("loglevel", "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	logFile := flag.String("log-file", "", "additionally log to this file")
	listDevices := flag.Bool("list-devices", false, "list available input devices and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bluetooth-2-hid v%s\n", version)
		return
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", *logLevel, err)
	}
	log.SetLevel(level)

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("Could not open log file %q for writing: %v", *logFile, err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if *listDevices {
		if err := printDevices(); err != nil {
			log.Fatalf("Failed listing devices: %v", err)
		}
		return
	}

	cfg := loadConfig(*configPath)
	log.Infof("Launching bluetooth-2-hid v%s", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, cfg)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		configDir, err := config.GetDefaultConfigDir()
		if err != nil {
			log.Debugf("No user config dir (%v), using defaults", err)
			return config.DefaultConfig()
		}
		path = filepath.Join(configDir, "config.toml")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Warnf("Failed to load config %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}
	log.Debugf("Loaded config: %s", path)
	return cfg
}

func run(ctx context.Context, cfg *config.Config) {
	// Setup failures are fatal: without the gadget the system cannot
	// perform its function.
	gadgets := hid.NewGadgetSet(cfg.Gadget.Name, cfg.Write.Timeout)
	if err := gadgets.Enable(); err != nil {
		log.Fatalf("Failed to enable USB gadgets: %v", err)
	}
	defer gadgets.Disable()

	var required []relay.GateComponent
	if cfg.Gate.RequireHostReady {
		required = append(required, relay.GateHostReady)
	}
	if cfg.Gate.RequireDevicesPresent {
		required = append(required, relay.GateDevicesPresent)
	}
	gate := relay.NewGate(required...)

	var toggler *relay.ShortcutToggler
	if cfg.Relay.InterruptShortcut != "" {
		parsed, err := shortcut.NewParser().ParseShortcut(cfg.Relay.InterruptShortcut, true)
		if err != nil {
			log.Fatalf("Invalid interrupt shortcut: %v", err)
		}
		log.Debugf("Configuring global interrupt shortcut: %s", parsed)
		toggler = relay.NewShortcutToggler(parsed.Codes, parsed.Description, gate, gadgets)
	}

	controller := relay.NewController(relay.ControllerConfig{
		DeviceIdentifiers: cfg.Relay.DeviceIdentifiers,
		AutoDiscover:      cfg.Relay.AutoDiscover,
		SkipNamePrefixes:  cfg.Relay.SkipNamePrefixes,
		Relay: relay.RelayOptions{
			Grab:       cfg.Relay.GrabDevices,
			Retries:    cfg.Write.Retries,
			RetryDelay: cfg.Write.RetryDelay,
		},
	}, gadgets, gate, toggler)

	// The controller must accept devices before any monitor can deliver a
	// hot-add, or an event node plugged during startup would be dropped.
	controller.Start(ctx)

	statePath := cfg.UDC.StatePath
	if statePath == "" {
		var err error
		statePath, err = gadgets.UDCStatePath()
		if err != nil {
			log.Fatalf("No UDC detected, USB gadget mode may not be enabled: %v", err)
		}
	}
	log.Debugf("Detected UDC state file: %s", statePath)

	udcMonitor := monitor.NewUDCMonitor(statePath, cfg.UDC.PollInterval, gate)
	go udcMonitor.Run(ctx)

	go func() {
		udevMonitor := monitor.NewUdevMonitor(controller)
		if err := udevMonitor.Run(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("Udev monitor unavailable (%v), falling back to filesystem watcher", err)
			watcher := monitor.NewInputWatcher("/dev/input", controller)
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("Hotplug watcher failed: %v", err)
			}
		}
	}()

	if cfg.Bluetooth.Monitor {
		go func() {
			bluez := monitor.NewBluezMonitor(cfg.Bluetooth.Adapter, controller)
			if err := bluez.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warnf("BlueZ monitor stopped: %v", err)
			}
		}()
	}

	if err := controller.LoadInitialDevices(); err != nil {
		log.Errorf("Failed enumerating initial devices: %v", err)
	}

	<-ctx.Done()
	log.Info("Shutting down...")
	controller.Close()
}

// printDevices lists the available input devices for -list-devices.
func printDevices() error {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		name := p.Name
		id := ""
		if dev, err := evdev.Open(p.Path); err == nil {
			if n, err := dev.Name(); err == nil && n != "" {
				name = n
			}
			if uniq, err := dev.UniqueID(); err == nil && uniq != "" {
				id = uniq
			} else if phys, err := dev.PhysicalLocation(); err == nil {
				id = phys
			}
			dev.Close()
		}
		fmt.Printf("%s\t%s\t%s\n", name, id, p.Path)
	}
	return nil
}
