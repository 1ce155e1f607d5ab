package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamerjani006/anonchat/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting anonchat server...")

	// Load configuration from the environment
	config := server.NewConfigFromEnv()
	server.SetConfig(config)

	// The hub owns all room state; everything else gets it by reference
	hub := server.NewHub()
	go hub.Run()

	// Setup routes and create the server
	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(config.Port, mux)

	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Printf("Received signal %s, shutting down", sig)

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown did not complete cleanly: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown did not complete cleanly: %v", err)
	}
}
