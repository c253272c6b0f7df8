package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mindease/backend/internal/client"
	"github.com/mindease/backend/internal/tui"
)

func main() {
	_ = godotenv.Load()

	defaultServer := os.Getenv("MINDEASE_SERVER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:3000"
	}

	server := flag.String("server", defaultServer, "relay base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	flag.Parse()

	c := client.New(*server, &http.Client{Timeout: *timeout})
	if err := tui.Run(c); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}
