// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/Fantom-foundation/Stackcheck/go/stackcheck"
	"github.com/Fantom-foundation/Stackcheck/go/stackcheck/gen"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"pgregory.net/rand"
)

var ProbeCmd = withProfiling(cli.Command{
	Action: doProbe,
	Name:   "probe",
	Usage:  "Cross-check the verifier against a reference computation on random programs",
	Flags: []cli.Flag{
		jobsFlag,
		seedFlag,
		countFlag,
	},
})

func doProbe(context *cli.Context) error {
	jobCount := jobsFlag.Fetch(context)
	seed := seedFlag.Fetch(context)
	count := countFlag.Fetch(context)
	out := context.App.Writer

	fmt.Fprintf(out, "Checking %d random programs using %d jobs and seed %d ...\n", count, jobCount, seed)

	// Run a progress printer in the background.
	counter := atomic.Int64{}
	stopProgressPrinter := make(chan struct{})
	var progressGroup sync.WaitGroup
	progressGroup.Add(1)
	go func() {
		defer progressGroup.Done()
		start := time.Now()
		last := int64(0)
		for {
			select {
			case <-stopProgressPrinter:
				return
			case <-time.After(5 * time.Second):
				relativeTime := time.Since(start)
				current := counter.Load()
				diff := current - last
				last = current
				rate := float64(diff) / 5
				fmt.Fprintf(out,
					"[t=%4d:%02d] - Processing ~%s programs per second, total %d\n",
					int(relativeTime.Seconds())/60, int(relativeTime.Seconds())%60,
					unitconv.FormatPrefix(rate, unitconv.SI, 0), current,
				)
			}
		}
	}()

	issues := &issuesCollector{}
	stats := &verdictStats{counts: map[string]int{}}

	var remaining atomic.Int64
	remaining.Store(int64(count))

	var wg sync.WaitGroup
	wg.Add(jobCount)
	for i := 0; i < jobCount; i++ {
		go func(job int) {
			defer wg.Done()
			rnd := rand.New(seed, uint64(job))
			for remaining.Add(-1) >= 0 && issues.NumIssues() == 0 {
				config := gen.DefaultConfig
				config.Cyclic = rnd.Intn(4) == 0
				table, err := gen.Table(rnd, config)
				if err != nil {
					issues.AddIssue(nil, err)
					return
				}
				budget := uint(rnd.Intn(24))
				verdict, err := probeTable(table, budget, config.Cyclic)
				if err != nil {
					issues.AddIssue(table, fmt.Errorf("budget %d: %w", budget, err))
					return
				}
				stats.add(config.Cyclic, verdict)
				counter.Add(1)
			}
		}(i)
	}

	wg.Wait()
	close(stopProgressPrinter)
	progressGroup.Wait()

	// Summarize the result.
	fmt.Fprintf(out, "Random tests completed, %d programs checked\n", counter.Load())
	stats.print(out)
	if issues.NumIssues() == 0 {
		fmt.Fprintf(out, "All checks passed successfully!\n")
		return nil
	}
	if err := issues.export(out); err != nil {
		return err
	}
	return fmt.Errorf("found %d issue(s)", issues.NumIssues())
}

// probeTable checks the verifier on a single table. Acyclic programs are
// compared against the reference computation; for all programs the verdict
// must not depend on the reporting mode.
func probeTable(table *aseba.UnitTable, budget uint, cyclic bool) (bool, error) {
	failFast, err := stackcheck.NewVerifier(stackcheck.Config{}).Check(table, budget)
	if err != nil {
		return false, err
	}
	all, err := stackcheck.NewVerifier(stackcheck.Config{CollectAll: true}).Check(table, budget)
	if err != nil {
		return false, err
	}
	if failFast.Passed() != all.Passed() {
		return false, fmt.Errorf("fail-fast verdict %t differs from collect-all verdict %t", failFast.Passed(), all.Passed())
	}
	if cyclic {
		return failFast.Passed(), nil
	}

	reference, err := gen.NewReference(table)
	if err != nil {
		return false, err
	}
	want, err := reference.Verdict(budget)
	if err != nil {
		return false, err
	}
	if got := failFast.Passed(); got != want {
		return false, fmt.Errorf("unexpected verdict, want %t, got %t", want, got)
	}
	if !want {
		return false, nil
	}
	depths, err := reference.FixedPointDepths()
	if err != nil {
		return false, err
	}
	if !maps.Equal(depths, failFast.Depths) {
		return false, fmt.Errorf("unexpected depths, want %v, got %v", depths, failFast.Depths)
	}
	return true, nil
}

type verdictStats struct {
	counts map[string]int
	mu     sync.Mutex
}

func (s *verdictStats) add(cyclic, passed bool) {
	shape := "acyclic"
	if cyclic {
		shape = "cyclic"
	}
	verdict := "rejected"
	if passed {
		verdict = "accepted"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[shape+", "+verdict]++
}

func (s *verdictStats) print(out io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := maps.Keys(s.counts)
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "  %-20s %d\n", key+":", s.counts[key])
	}
}

type issue struct {
	input *aseba.UnitTable
	err   error
}

type issuesCollector struct {
	issues []issue
	mu     sync.Mutex
}

func (c *issuesCollector) AddIssue(table *aseba.UnitTable, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var clone *aseba.UnitTable
	if table != nil {
		clone = table.Clone()
	}
	c.issues = append(c.issues, issue{clone, err})
}

func (c *issuesCollector) NumIssues() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// export prints all issues and dumps the offending programs into a temporary
// directory, from where they can be fed into the verify command.
func (c *issuesCollector) export(out io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.issues) == 0 {
		return nil
	}
	jsonDir, err := os.MkdirTemp("", "stackcheck_issues_*")
	if err != nil {
		return fmt.Errorf("failed to create output directory for %d issues", len(c.issues))
	}
	for i, issue := range c.issues {
		fmt.Fprintf(out, "----------------------------\n")
		fmt.Fprintf(out, "%s\n", issue.err)
		if issue.input != nil {
			path := filepath.Join(jsonDir, fmt.Sprintf("issue_%06d.json", i))
			if err := aseba.ExportTableJSON(issue.input, path); err == nil {
				fmt.Fprintf(out, "Program dumped to %s\n", path)
			} else {
				fmt.Fprintf(out, "failed to dump program: %v\n", err)
			}
		}
	}
	return nil
}
