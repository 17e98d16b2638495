package main

import (
	"log"

	"transaction-service/internal/pkg/components"
	"transaction-service/internal/pkg/logging"
)

func main() {
	container, err := components.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	logging.Info("transaction service initialized successfully", map[string]interface{}{
		"port": container.Config().Server.Port,
	})

	if err := container.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
