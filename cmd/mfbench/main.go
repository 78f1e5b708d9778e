// Command mfbench times two facility operations against a running server:
// create/remove cycling over the number of queues given by --queues, and send/receive
// throughput on a single queue, mirroring the timing loop in
// original_source/test-suite.c (which timed mf_max_mq_given_size and
// mf_del_max_mq_given_size across a spread of sizes).
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gorkemsolun/mfqueue/mf"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", "mf.conf", "path to the facility config file")
	queueCount := pflag.IntP("queues", "q", 8, "number of queues to create and remove per timing round")
	messages := pflag.IntP("messages", "m", 10000, "number of send/receive pairs for the throughput round")
	payloadLen := pflag.IntP("payload", "p", 64, "payload size in bytes for the throughput round")
	pflag.Parse()

	cfg, err := mf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("mfbench: load config: %v", err)
	}
	f, err := mf.Attach(cfg)
	if err != nil {
		log.Fatalf("mfbench: attach: %v", err)
	}
	defer f.Detach()

	benchCreateRemove(f, *queueCount)
	benchThroughput(f, *messages, *payloadLen)
}

func benchCreateRemove(f *mf.Facility, n int) {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("mfbench_q%d", i)
	}

	start := time.Now()
	for _, name := range names {
		if err := f.CreateQueue(name, 1); err != nil {
			log.Fatalf("mfbench: create %q: %v", name, err)
		}
	}
	created := time.Since(start)
	fmt.Printf("time to create %d queues: %s\n", n, created)

	start = time.Now()
	for _, name := range names {
		if err := f.RemoveQueue(name); err != nil {
			log.Fatalf("mfbench: remove %q: %v", name, err)
		}
	}
	removed := time.Since(start)
	fmt.Printf("time to remove %d queues: %s\n", n, removed)
}

func benchThroughput(f *mf.Facility, messages, payloadLen int) {
	const queueName = "mfbench_throughput"
	if err := f.CreateQueue(queueName, 64); err != nil {
		log.Fatalf("mfbench: create %q: %v", queueName, err)
	}
	defer f.RemoveQueue(queueName)

	qid, err := f.Open(queueName)
	if err != nil {
		log.Fatalf("mfbench: open %q: %v", queueName, err)
	}
	defer f.Close(qid)

	data := make([]byte, payloadLen)
	out := make([]byte, payloadLen)

	start := time.Now()
	for i := 0; i < messages; i++ {
		if err := f.Send(qid, data); err != nil {
			log.Fatalf("mfbench: send: %v", err)
		}
		if _, err := f.Receive(qid, out); err != nil {
			log.Fatalf("mfbench: receive: %v", err)
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("time for %d send/receive pairs (%d bytes each): %s (%.0f msgs/sec)\n",
		messages, payloadLen, elapsed, float64(messages)/elapsed.Seconds())
}
