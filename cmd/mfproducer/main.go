// Command mfproducer connects to a running facility, opens a queue, and
// sends a requested number of randomly sized messages followed by an
// end-of-data sentinel, mirroring original_source/producer.c.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gorkemsolun/mfqueue/mf"
	"github.com/spf13/pflag"
)

// payload is a stand-in for a real data source: long enough that a small
// queue body will need to wrap several times while draining it.
const payload = "Hello, World!AABBCCDDEEFFGGHHIIUUYYTTHHNNMMOOKKLLPPCCVVDDSSAAQQWWEE11223344556677889900"

func main() {
	configFile := pflag.StringP("config", "c", "mf.conf", "path to the facility config file")
	queueName := pflag.StringP("queue", "q", "mq1", "queue name to send to")
	count := pflag.IntP("count", "n", 10, "number of messages to send")
	pflag.Parse()

	cfg, err := mf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("mfproducer: load config: %v", err)
	}
	f, err := mf.Attach(cfg)
	if err != nil {
		log.Fatalf("mfproducer: attach: %v", err)
	}
	defer f.Detach()

	qid, err := f.Open(*queueName)
	if err != nil {
		log.Fatalf("mfproducer: open %q: %v", *queueName, err)
	}
	defer f.Close(qid)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for sent := 0; sent < *count; sent++ {
		n := 1 + rng.Intn(len(payload))
		data := []byte(payload[:n])
		fmt.Printf("app sending message, datalen=%d\n", n)
		if err := f.Send(qid, data); err != nil {
			log.Fatalf("mfproducer: send failed: %v", err)
		}
		fmt.Printf("sent data message %d\n", sent+1)
	}

	if err := f.Send(qid, []byte{0xFF}); err != nil {
		log.Fatalf("mfproducer: send end-of-data failed: %v", err)
	}
	fmt.Println("sent END OF DATA message")
}
