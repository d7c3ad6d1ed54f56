package main

import (
	"fmt"
	"log"
	"net/http"

	"streamprobe/internal"
)

// loadConfig loads config.json and publishes it on the probe instance.
func (p *ProbeServer) loadConfig() error {
	log.Println("🛠 Loading configuration...")

	cfg, err := internal.LoadConfig("config.json")
	if err != nil {
		return fmt.Errorf("❌ failed to load configuration: %w", err)
	}

	p.mu.Lock()
	p.config = cfg
	p.mu.Unlock()

	go internal.WatchConfig("config.json")

	log.Println("✅ Configuration loaded successfully")

	p.startStatusAPI()
	return nil
}

// startStatusAPI serves the read-only /status and /health endpoints
// described here, separate from the /metrics server.
func (p *ProbeServer) startStatusAPI() {
	mux := internal.SetupRoutes()
	mux.HandleFunc("/health", internal.SimpleHealthHandler())
	mux.HandleFunc("/health/detail", internal.HealthHandler())

	server := &http.Server{
		Addr:    ":8086",
		Handler: mux,
	}

	go func() {
		log.Printf("🌐 Starting status API on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ status API error: %v", err)
		}
	}()

	p.resources.Add(&internal.HttpServerResource{Server: server})
}
