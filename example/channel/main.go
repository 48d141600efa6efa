package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghalamif/catalink"
)

func main() {
	flow, err := catalink.Conf("../../data/pipeline.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	writer, extracts, closeExtracts := catalink.NewChannelWriter("fanout", 32)

	done := make(chan struct{})
	go func() {
		fanoutWorker("archive", extracts)
		close(done)
	}()

	host, err := flow.Host(catalink.OutputWriter(writer))
	if err != nil {
		log.Fatalf("build host: %v", err)
	}

	ctx := context.Background()
	for cycle := int64(0); cycle < 5; cycle++ {
		info := catalink.ExecInfo{Cycle: cycle, Time: float64(cycle)}
		part := catalink.Partition{Coords: catalink.Coordset{Type: "uniform", Dims: [3]int{5, 5, 5}}}
		if err := host.Publish("uniform", info, part); err != nil {
			log.Fatalf("publish: %v", err)
		}
		if err := host.Step(ctx, info); err != nil {
			log.Fatalf("runtime error: %v", err)
		}
	}

	if err := host.Close(ctx); err != nil {
		log.Printf("close: %v", err)
	}
	closeExtracts()
	<-done
}

func fanoutWorker(name string, extracts <-chan catalink.Extract) {
	for ex := range extracts {
		fmt.Printf("[%s] %s cycle=%d at %s\n", name, ex.Path, ex.Cycle, time.Now().Format(time.RFC3339))
	}
}
