// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides spsa-bench, a runnable demonstration of the
// coordinator library (pkg/spsa) and its supporting registry/persistence
// stack. It has no HTTP surface and no subcommands: it loads a config,
// builds a Registry, then drives synthetic probe batches against one run
// per configured optimizer variant with a pool of concurrent "worker"
// goroutines, printing a summary on exit or on SIGINT/SIGTERM.
//
// This mirrors cmd/ratelimiter-api/main.go's flag-parse, wire-components,
// start-worker, signal-driven-graceful-stop shape, and
// benchmarks/harness/main.go's variant-sweep structure, without the HTTP
// listener the rate limiter demo starts (this binary is a harness, not a
// server).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"spsatune/internal/config"
	"spsatune/internal/persistence"
	"spsatune/internal/runregistry"
	"spsatune/pkg/spsa"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file; built-in defaults are used if empty")
	numIter := flag.Uint64("num_iter", 4000, "Planned iteration horizon for each synthetic run")
	numParams := flag.Int("num_params", 8, "Number of tuned parameters per synthetic run")
	numWorkers := flag.Int("num_workers", 4, "Number of concurrent goroutines dispatching/reporting against each run")
	pairsPerTask := flag.Uint("pairs_per_task", 4, "Probe game-pairs requested per dispatch")
	stepsPerWorker := flag.Int("steps_per_worker", 200, "Number of dispatch/report cycles each worker goroutine performs")
	variantFlag := flag.String("variant", "", "Override the configured default variant: classic, sf-sgd, or sf-adam")
	seed := flag.Int64("seed", 1, "Seed for the synthetic game-result generator")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spsa-bench: failed to load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *variantFlag != "" {
		cfg.ScheduleDefaults.Variant = *variantFlag
	}

	persister, err := persistence.BuildPersister(cfg.Persistence.Adapter, persistence.Options{RedisAddr: cfg.Persistence.RedisAddr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "spsa-bench: failed to build persister: %v\n", err)
		os.Exit(1)
	}

	registry := runregistry.NewRegistry()
	worker := runregistry.NewWorker(
		registry,
		persister,
		cfg.Registry.CheckpointInterval,
		cfg.Registry.EvictionAge,
		cfg.Registry.EvictionInterval,
		cfg.Registry.Synchronous,
	)
	worker.Start()

	runID := uuid.NewString()
	runCfg := cfg.ScheduleDefaults.RunConfig(*numIter)
	run, err := registry.GetOrCreate(runID, runCfg, syntheticParamSpecs(*numParams))
	if err != nil {
		fmt.Fprintf(os.Stderr, "spsa-bench: failed to create run: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("spsa-bench: run %s variant=%s params=%d workers=%d\n", runID, runCfg.Variant, *numParams, *numWorkers)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		driveWorkers(run, worker, runID, *numWorkers, *stepsPerWorker, uint32(*pairsPerTask), *seed)
		close(done)
	}()

	select {
	case <-done:
		fmt.Println("spsa-bench: synthetic workload complete")
	case <-stop:
		fmt.Println("\nspsa-bench: received shutdown signal")
	}

	worker.Stop()
	printSummary(run)
	printMetrics()
}

// syntheticParamSpecs builds n parameters spanning a representative range
// of bounds, the way a benchmark harness stands in for real tuning inputs
// without simulating actual chess games.
func syntheticParamSpecs(n int) []spsa.ParamSpec {
	specs := make([]spsa.ParamSpec, n)
	for i := range specs {
		specs[i] = spsa.ParamSpec{
			Name: fmt.Sprintf("param_%02d", i),
			Min:  -100,
			Max:  100,
			CEnd: 1.0,
			REnd: 0.002,
		}
	}
	return specs
}

// driveWorkers starts numWorkers goroutines, each repeatedly dispatching a
// probe batch, synthesizing a plausible W-L-D outcome, and reporting it
// back, checkpointing after every accepted report.
func driveWorkers(run *spsa.Run, worker *runregistry.Worker, runID string, numWorkers, steps int, pairs uint32, seed int64) {
	flips := spsa.NewFlipSource(seed)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerSeed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(workerSeed))
			for s := 0; s < steps; s++ {
				dr := run.Dispatch(pairs, flips)
				rep := synthesizeReport(dr.Task, rng)
				if _, err := run.Arrive(rep); err != nil {
					continue
				}
				worker.Checkpoint(runID)
			}
		}(seed + int64(w) + 1)
	}
	wg.Wait()
}

// synthesizeReport draws a plausible win/loss/draw split for the task's
// game count, standing in for an actual game-playing worker: no game
// simulation or Elo modeling happens here, only a random outcome split
// sufficient to exercise Arrive's numerical core.
func synthesizeReport(task spsa.Task, rng *rand.Rand) spsa.Report {
	var wins, losses, draws int64
	n := int64(task.NumGames)
	for i := int64(0); i < n; i++ {
		switch rng.Intn(3) {
		case 0:
			wins++
		case 1:
			losses++
		default:
			draws++
		}
	}
	return spsa.Report{
		K0:          task.K0,
		PackedFlips: task.PackedFlips,
		Signature:   task.Signature,
		Wins:        wins,
		Losses:      losses,
		Draws:       draws,
		NumGames:    task.NumGames,
	}
}

func printSummary(run *spsa.Run) {
	snap := run.Snapshot()
	fmt.Printf("spsa-bench: final iter=%d sf_weight_sum=%.4f history_samples=%d\n", snap.Iter, snap.SFWeightSum, len(snap.History))
	for _, p := range snap.Params {
		fmt.Printf("  %-12s theta=%10.4f\n", p.Name, p.Theta)
	}
}

// printMetrics writes the process's Prometheus counters to stdout in text
// exposition format, the way a caller would use client_golang without
// standing up an HTTP /metrics listener (an explicit Non-goal here).
func printMetrics() {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "spsa-bench: failed to gather metrics: %v\n", err)
		return
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			fmt.Fprintf(os.Stderr, "spsa-bench: failed to encode metrics: %v\n", err)
			return
		}
	}
}
