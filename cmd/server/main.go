package main

import (
	"log"

	_ "taskhub/docs"
	"taskhub/internal/config"
	"taskhub/internal/server"
)

// @title           TaskHub API
// @version         1.0
// @description     Task management backend with roles, subtasks, dependencies and analytics.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
