// package main holds the implementation of the shift-scheduler command.
// It is a thin nextmv-CLI-style wrapper (run.CLI/run.Run, the same idiom
// every demo in this repo's lineage uses) over package schedule: it reads
// a JSON payload.Payload from stdin or a file, drives schedule.Run, and
// streams every payload.ProgressEvent as newline-delimited JSON to
// stdout as the run progresses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nextmv-io/sdk/run"

	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/schedule"
)

func main() {
	err := run.CLI(solver).Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
}

// Option is the run.CLI options struct for this run, following the
// teacher's one-Option-struct-per-run convention.
type Option struct {
	// A duration limit of 0 is treated as infinity, matching Order
	// Fulfillment with MIP/main.go's Option.Limits.Duration.
	Limits struct {
		Duration time.Duration `json:"duration" default:"30s"`
	} `json:"limits"`
}

// solver adapts payload.Payload/Option to schedule.Run, printing every
// progress event to stdout as it arrives and returning the terminal
// Result as run.CLI's own output value.
func solver(ctx context.Context, p payload.Payload, opts Option) (payload.Result, error) {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}

	if opts.Limits.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Limits.Duration)
		defer cancel()
	}

	sink := make(chan payload.ProgressEvent, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		enc := json.NewEncoder(os.Stdout)
		for ev := range sink {
			if err := enc.Encode(ev); err != nil {
				fmt.Fprintln(os.Stderr, "encode progress event:", err)
			}
		}
	}()

	result, err := schedule.Run(ctx, p, sink)
	close(sink)
	<-drained

	return result, err
}
