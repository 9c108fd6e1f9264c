/*
Inspects a pipeline archive: lists its resources, unpacks every pipeline on a
recording device and prints the resource bindings the target backend would use.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima/engine/archive"
	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func main() {
	configPath := flag.String("config", "anima.toml", "path of the loader configuration")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load config '%s': %s", *configPath, err)
	}
	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		core.LogFatal("invalid log level '%s': %s", cfg.LogLevel, err)
	}
	device, err := metadata.DeviceTypeFromString(cfg.Device)
	if err != nil {
		core.LogFatal(err.Error())
	}

	am, err := assets.NewArchiveManager(device, archive.Options{DeduplicateUnpack: cfg.DeduplicateUnpack})
	if err != nil {
		core.LogFatal("failed to start archive manager: %s", err)
	}
	a, err := am.Open(cfg.ArchivePath)
	if err != nil {
		_ = am.Shutdown()
		core.LogFatal("failed to open archive '%s': %s", cfg.ArchivePath, err)
	}

	inspector := newInspector(os.Stdout, cfg)
	inspector.Inspect(cfg.ArchivePath, a)
	if !cfg.Watch {
		_ = am.Shutdown()
		return
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	core.LogInfo("watching '%s' for changes", cfg.ArchivePath)
	for {
		select {
		case <-sigCh:
			if err := am.Shutdown(); err != nil {
				core.LogError(err.Error())
			}
			return
		case path := <-am.Reloads():
			if a, ok := am.Get(path); ok {
				inspector.Inspect(path, a)
			}
		}
	}
}
