package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/catalink"
)

func main() {
	flow, err := catalink.Conf("../../data/pipeline.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := flow.Host()
	if err != nil {
		log.Fatalf("build host: %v", err)
	}
	defer host.Close(context.Background())

	for cycle := int64(0); cycle < 10 && ctx.Err() == nil; cycle++ {
		info := catalink.ExecInfo{Cycle: cycle, Time: float64(cycle)}
		if err := host.Publish("uniform", info, block(cycle)); err != nil {
			log.Fatalf("publish: %v", err)
		}
		if err := host.Step(ctx, info); err != nil {
			log.Fatalf("step %d: %v", cycle, err)
		}
	}
}

func block(cycle int64) catalink.Partition {
	vals := make([]float64, 4*4*4)
	for i := range vals {
		vals[i] = float64(i) + float64(cycle)
	}
	return catalink.Partition{
		Coords: catalink.Coordset{Type: "uniform", Dims: [3]int{5, 5, 5}, Spacing: [3]float64{1, 1, 1}},
		Fields: map[string]catalink.DataField{"f": {Association: "element", Values: vals}},
	}
}
