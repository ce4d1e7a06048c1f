/*
ignis opens a window, brings up Vulkan and clears the screen to a pulsing
color until the window is closed.
*/
package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/ignis/engine"
	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/platform"
	"github.com/spaghettifunk/ignis/engine/renderer/vulkan"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	config := engine.DefaultConfig()
	if *configPath != "" {
		c, err := engine.LoadConfig(*configPath)
		if err != nil {
			core.LogFatal("failed to load config: %s", err)
		}
		config = c
	}

	if err := run(config, *configPath); err != nil {
		core.LogFatal("%s", err)
	}
}

func run(config *engine.ApplicationConfig, configPath string) (err error) {
	var release core.DeletionQueue
	defer release.Flush()

	events := core.NewEventSystem()
	release.Push(events.Shutdown)

	p := platform.New(events)
	if err := p.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight); err != nil {
		return err
	}
	release.Push(func() { _ = p.Shutdown() })

	context, err := vulkan.NewContext(config.Name, p, config.Validation)
	if err != nil {
		return err
	}
	release.Push(context.Destroy)

	e, err := engine.New(config, p, events, context.Device)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return err
	}
	release.Push(func() {
		err = errors.Join(err, e.Shutdown())
	})

	if configPath != "" {
		watcher, err := engine.NewConfigWatcher(configPath)
		if err != nil {
			core.LogWarn("config hot reload disabled: %s", err)
		} else {
			release.Push(func() { _ = watcher.Close() })
			e.WatchConfig(watcher.Updates())
		}
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigCh:
			// the run loop notices the request between frames
			e.RequestQuit()
		case <-done:
		}
	}()

	if err := e.Run(); err != nil {
		if core.IsDeviceFatal(err) {
			// the device cannot be waited on, so exit before any GPU teardown
			core.LogFatal("%s", err)
		}
		return err
	}
	return nil
}
