// Command mfconsumer attaches to a running facility, creates (or opens) a
// queue, and drains it until it sees the end-of-data sentinel byte,
// mirroring original_source/consumer.c.
package main

import (
	"fmt"
	"log"

	"github.com/gorkemsolun/mfqueue/mf"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", "mf.conf", "path to the facility config file")
	queueName := pflag.StringP("queue", "q", "mq1", "queue name to create and consume from")
	queueSizeKiB := pflag.Uint32P("size", "s", 16, "queue body size in KiB, used if the queue does not already exist")
	pflag.Parse()

	cfg, err := mf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("mfconsumer: load config: %v", err)
	}
	f, err := mf.Attach(cfg)
	if err != nil {
		log.Fatalf("mfconsumer: attach: %v", err)
	}
	defer f.Detach()

	if err := f.CreateQueue(*queueName, *queueSizeKiB); err != nil {
		log.Printf("mfconsumer: create %q: %v (continuing, queue may already exist)", *queueName, err)
	}

	qid, err := f.Open(*queueName)
	if err != nil {
		log.Fatalf("mfconsumer: open %q: %v", *queueName, err)
	}

	buf := make([]byte, mf.MaxDataLen)
	received := 0
	for {
		n, err := f.Receive(qid, buf)
		if err != nil {
			log.Fatalf("mfconsumer: receive failed: %v", err)
		}
		fmt.Printf("app received message, datalen=%d\n", n)
		if n == 1 && buf[0] == 0xFF {
			break
		}
		received++
		fmt.Printf("received data message %d\n", received)
	}

	if err := f.Close(qid); err != nil {
		log.Printf("mfconsumer: close: %v", err)
	}
	if err := f.RemoveQueue(*queueName); err != nil {
		log.Printf("mfconsumer: remove %q: %v", *queueName, err)
	}
}
