package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"streamprobe/internal"
)

// ensureResultsDirs makes sure the results/ and logs/ directories the
// pipeline writes into exist before any component tries to open a file
// in them.
func ensureResultsDirs() error {
	for _, dir := range []string{"results", "logs"} {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.Println("🚀 Starting stream quality probe...")

	if err := ensureResultsDirs(); err != nil {
		log.Fatalf("❌ Failed to create results/logs directories: %v", err)
	}

	probe := NewProbeServer()

	if err := probe.loadConfig(); err != nil {
		log.Fatalf("❌ Error loading config: %v", err)
	}

	internal.InitMetrics()
	probe.startMetricsServer()

	internal.RegisterDefaultHealthChecks()
	internal.StartHealthChecker(30 * time.Second)

	if err := probe.initializeServices(); err != nil {
		log.Fatalf("❌ Error initializing services: %v", err)
	}

	log.Println("✅ Probe started successfully")

	var shutdownOnce sync.Once
	shutdown := func() { shutdownOnce.Do(probe.Shutdown) }

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		probe.waitForEnterOrSignal()
		shutdown()
		close(done)
	}()

	go func() {
		<-signalChan
		log.Println("🛑 Received shutdown signal")
		shutdown()
	}()

	<-done
	log.Println("🛑 Probe has been shut down.")
}
