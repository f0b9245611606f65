// Command poolserver runs a demo HTTP server where every connection owns
// a bidirectional bump pool: request scratch grows from the head end and
// resets between requests, while a persistent connection identifier is
// reserved from the tail end.
package main

import (
	"flag"
	"log"

	"github.com/nmxmxh/bumppool/internal/auth"
	"github.com/nmxmxh/bumppool/internal/httpserver"
)

func main() {
	addr := flag.String("addr", ":8443", "listen address")
	flag.Parse()

	store := auth.NewStore()
	if err := store.Add("demo", "hunter2"); err != nil {
		log.Fatalf("poolserver: seed credential store: %v", err)
	}

	cfg := httpserver.DefaultConfig(*addr)
	srv := httpserver.NewServer(cfg, store)

	log.Printf("poolserver: listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("poolserver: %v", err)
	}
}
