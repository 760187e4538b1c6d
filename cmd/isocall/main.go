package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/isocall"
	"github.com/programme-lv/isocall/codec"
	"github.com/programme-lv/isocall/internal/environment"
	"github.com/programme-lv/isocall/report"
	"github.com/programme-lv/isocall/report/natsreport"
	"github.com/programme-lv/isocall/report/sqsreport"
	"github.com/programme-lv/isocall/report/termreport"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	// children of this binary never reach past this line
	isocall.Main()

	level := slog.LevelInfo
	if os.Getenv("ISOCALL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	cmd := &cli.Command{
		Name:  "isocall",
		Usage: "run crash-prone tasks in isolated child processes",
		Commands: []*cli.Command{
			runCmd(),
			scenariosCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run one task in an isolated child and print the outcome",
		ArgsUsage: "TASK [ARG]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Value: "shm", Usage: "shm, socket or discard"},
			&cli.IntFlag{Name: "capacity", Value: isocall.DefaultCapacity, Usage: "shared memory capacity in bytes"},
			&cli.StringFlag{Name: "codec", Value: codec.GobName, Usage: "registered codec name"},
			&cli.BoolFlag{Name: "publish", Usage: "also publish the outcome to NATS/SQS from the environment"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			task := cmd.Args().First()
			if task == "" {
				return fmt.Errorf("task name required, one of: %v", demoTasks)
			}
			var args any
			if cmd.Args().Len() > 1 {
				args = cmd.Args().Get(1)
			}

			opts, err := isolatorOptions(cmd)
			if err != nil {
				return err
			}
			iso := isocall.New(opts...)

			out := iso.Run(ctx, task, args)
			if out.Err != nil {
				return out.Err
			}
			if out.Value != nil {
				fmt.Println(out.Value)
			}
			return nil
		},
	}
}

func scenariosCmd() *cli.Command {
	return &cli.Command{
		Name:      "scenarios",
		Usage:     "run a TOML scenario file and check expected outcomes",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "parallel", Value: 1, Usage: "number of concurrent calls"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("scenario file required")
			}
			scenarios, err := environment.ParseScenarios(path)
			if err != nil {
				return err
			}

			var eg errgroup.Group
			eg.SetLimit(int(cmd.Int("parallel")))
			failed := make([]string, len(scenarios))
			for i, sc := range scenarios {
				eg.Go(func() error {
					iso := isocall.New(scenarioOptions(sc)...)
					out := iso.Run(ctx, sc.Task, scenarioArgs(sc))
					if got := out.Kind.String(); sc.Expect != "" && got != sc.Expect {
						failed[i] = fmt.Sprintf("%s: expected %s, got %s (%v)", sc.Name, sc.Expect, got, out.Err)
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			bad := 0
			for _, f := range failed {
				if f != "" {
					color.Red("FAIL %s", f)
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d scenarios failed", bad, len(scenarios))
			}
			color.Green("all %d scenarios passed", len(scenarios))
			return nil
		},
	}
}

func isolatorOptions(cmd *cli.Command) ([]isocall.Option, error) {
	var opts []isocall.Option
	switch cmd.String("transport") {
	case "shm":
		opts = append(opts, isocall.SharedMemory(int(cmd.Int("capacity"))))
	case "socket":
		opts = append(opts, isocall.Socket())
	case "discard":
		opts = append(opts, isocall.Discard())
	default:
		return nil, fmt.Errorf("unknown transport %q", cmd.String("transport"))
	}
	opts = append(opts, isocall.WithCodec(cmd.String("codec")))
	opts = append(opts, isocall.WithChildStderr(os.Stderr))

	reporters := []report.Reporter{termreport.New()}
	if cmd.Bool("publish") {
		envCfg := environment.ReadEnvConfig()
		if envCfg.NatsUrl != "" {
			nc, err := nats.Connect(envCfg.NatsUrl)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to NATS: %w", err)
			}
			reporters = append(reporters, natsreport.New(nc, envCfg.NatsSubject))
		}
		if envCfg.SqsQueueUrl != "" {
			reporters = append(reporters, sqsreport.New(envCfg.SqsQueueUrl))
		}
	}
	opts = append(opts, isocall.WithReporter(multiReporter(reporters)))
	return opts, nil
}

func scenarioOptions(sc environment.Scenario) []isocall.Option {
	var opts []isocall.Option
	switch sc.Transport {
	case "socket":
		opts = append(opts, isocall.Socket())
	case "discard":
		opts = append(opts, isocall.Discard())
	default:
		capacity := sc.Capacity
		if capacity <= 0 {
			capacity = isocall.DefaultCapacity
		}
		opts = append(opts, isocall.SharedMemory(capacity))
	}
	if sc.Codec != "" {
		opts = append(opts, isocall.WithCodec(sc.Codec))
	}
	return opts
}

func scenarioArgs(sc environment.Scenario) any {
	if sc.Args == "" {
		return nil
	}
	return sc.Args
}

// multiReporter fans lifecycle events out to several reporters.
type multiReporter []report.Reporter

func (m multiReporter) StartCall(callID string, task string, transport string) {
	for _, r := range m {
		r.StartCall(callID, task, transport)
	}
}

func (m multiReporter) SpawnChild(callID string, pid int) {
	for _, r := range m {
		r.SpawnChild(callID, pid)
	}
}

func (m multiReporter) FinishCall(callID string, res report.Result) {
	for _, r := range m {
		r.FinishCall(callID, res)
	}
}
