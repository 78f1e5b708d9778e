// Command mfserver owns the message-passing facility's shared segment: it
// initializes the segment from a config file, then waits for SIGINT, SIGHUP
// or SIGTERM to tear it down and exit, mirroring original_source/mfserver.c.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorkemsolun/mfqueue/mf"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", "mf.conf", "path to the facility config file")
	pflag.Parse()

	cfg, err := mf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("mfserver: load config: %v", err)
	}

	fmt.Printf("mfserver pid=%d\n", os.Getpid())

	if err := mf.Init(cfg); err != nil {
		log.Fatalf("mfserver: mf.Init failed: %v", err)
	}
	fmt.Println("mfserver initialized successfully.")
	fmt.Printf("mfserver pid=%d\n", os.Getpid())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	sig := <-sigc

	fmt.Printf("caught signal %v, destroying facility\n", sig)
	if err := mf.Destroy(cfg); err != nil {
		log.Printf("mfserver: mf.Destroy failed: %v", err)
	}
	fmt.Println("mfserver terminated")
}
