package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ghalamif/catalink/pkg/catalink"
)

func main() {
	flow, err := catalink.Conf("../../data/pipeline.yaml", catalink.WithScriptArgs("--channel_names", "uniform"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	callback := func(ex catalink.Extract) error {
		fmt.Printf("%s cycle=%d format=%s partitions=%d path=%s\n",
			ex.Channel,
			ex.Cycle,
			ex.Format,
			len(ex.Dataset.Partitions),
			ex.Path,
		)
		return nil
	}

	host, err := flow.Host(catalink.OutputCallback("stdout", callback))
	if err != nil {
		log.Fatalf("build host: %v", err)
	}
	defer host.Close(context.Background())

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
}
