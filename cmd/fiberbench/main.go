// fiberbench is a small load probe for taskfiber pools. It floods a
// pool with cooperative tasks and reports wall time, throughput, and
// optionally the execution history of the slowest runs.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	taskfiber "github.com/taskfiber/taskfiber"
	"github.com/taskfiber/taskfiber/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fiberbench",
		Usage: "Load probe for taskfiber pools",
		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Flood a pool with tasks and report throughput",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Value:   4,
				Usage:   "Worker count for the pool",
			},
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Value:   1000,
				Usage:   "Number of tasks to submit",
			},
			&cli.IntFlag{
				Name:  "yields",
				Value: 3,
				Usage: "Voluntary yields per task",
			},
			&cli.DurationFlag{
				Name:  "sleep",
				Value: 0,
				Usage: "Timed wait per task (0 disables)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML pool config (overrides --workers)",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "Dump recent execution records on exit (json or msgpack)",
			},
		},

		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	tasks := c.Int("tasks")
	yields := c.Int("yields")
	sleep := c.Duration("sleep")
	if tasks < 1 {
		return cli.Exit("tasks must be at least 1", 1)
	}

	pool, err := buildPool(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	pool.Start(context.Background())

	var completed atomic.Int64
	start := time.Now()

	for i := 0; i < tasks; i++ {
		_, err := pool.Run(func(ec *taskfiber.ExecContext) {
			for y := 0; y < yields; y++ {
				ec.Yield()
			}
			if sleep > 0 {
				ec.Wait(sleep)
			}
			completed.Add(1)
		})
		if err != nil {
			return cli.Exit(fmt.Sprintf("submit failed: %v", err), 1)
		}
	}

	pool.Terminate()
	elapsed := time.Since(start)

	fmt.Printf("pool=%s workers=%d tasks=%d yields=%d sleep=%v\n",
		pool.ID(), pool.WorkerCount(), tasks, yields, sleep)
	fmt.Printf("completed=%d elapsed=%v throughput=%.0f tasks/s\n",
		completed.Load(), elapsed.Round(time.Millisecond),
		float64(completed.Load())/elapsed.Seconds())

	if format := c.String("history"); format != "" {
		if err := dumpHistory(pool, format); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}

func buildPool(c *cli.Context) (*taskfiber.Pool, error) {
	if path := c.String("config"); path != "" {
		cfg, err := taskfiber.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		return taskfiber.NewPoolFromConfig(cfg), nil
	}

	workers := c.Int("workers")
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1")
	}
	return taskfiber.NewPool("fiberbench", workers), nil
}

func dumpHistory(pool *taskfiber.Pool, format string) error {
	var ser core.RecordSerializer
	switch format {
	case "json":
		ser = core.NewJSONSerializer()
	case "msgpack":
		ser = core.NewMsgpackSerializer()
	default:
		return fmt.Errorf("unknown history format %q (want json or msgpack)", format)
	}

	data, err := pool.ExportRecentRecords(ser, 20)
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	fmt.Printf("history (%s, %d bytes):\n", ser.Name(), len(data))
	os.Stdout.Write(data)
	fmt.Println()
	return nil
}
