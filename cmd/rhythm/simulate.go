package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rhythm/pkg/cli"
	"mercator-hq/rhythm/pkg/ratelimit"
	"mercator-hq/rhythm/pkg/telemetry/logging"
)

var simulateFlags struct {
	realtime   bool
	quiet      bool
	shards     int
	maxBuckets int
	logLevel   string
	output     string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario>",
	Short: "Replay a traffic scenario against an in-process limiter",
	Long: `Replay a traffic scenario against an in-process limiter and print each
decision followed by a summary.

Scenarios:
  simple  one key, capacity 4, 1 token per second, a request every 200ms
  burst   two workers sharing a limiter over two keys, capacity 4, 2 tokens per 500ms
  ddos    255 clients connect once, then one address floods the server;
          capacity 10, 1 token per second, a connection every 10ms

Time is simulated unless --realtime is set, so results are reproducible.

Examples:
  # Watch a single key drain and refill
  rhythm simulate simple

  # Only print the summary, with LRU eviction bounding the bucket count
  rhythm simulate ddos --quiet --max-buckets 100

  # Run on the wall clock with a sharded table
  rhythm simulate burst --realtime --shards 8`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: scenarioNames(),
	RunE:      runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().BoolVar(&simulateFlags.realtime, "realtime", false, "sleep on the wall clock instead of simulating time")
	simulateCmd.Flags().BoolVarP(&simulateFlags.quiet, "quiet", "q", false, "print only the summary")
	simulateCmd.Flags().IntVar(&simulateFlags.shards, "shards", 0, "use a sharded table with this many shards")
	simulateCmd.Flags().IntVar(&simulateFlags.maxBuckets, "max-buckets", 0, "cap live buckets with LRU eviction")
	simulateCmd.Flags().StringVar(&simulateFlags.logLevel, "log-level", "warn", "limiter log level (debug, info, warn, error)")
	simulateCmd.Flags().StringVarP(&simulateFlags.output, "output", "o", "text", "summary format: text, json, csv")
	completeFlagValues(simulateCmd, "log-level", logLevelValues)
	completeFlagValues(simulateCmd, "output", outputFormatValues)
}

// scenario is a replayable traffic pattern.
type scenario struct {
	config ratelimit.Config
	run    func(ctx context.Context, env *simEnv, cfg ratelimit.Config) (ratelimit.Stats, error)
}

var scenarios = map[string]scenario{
	"simple": {
		config: ratelimit.Config{Capacity: 4, RefillRate: 1, RefillInterval: time.Second},
		run:    simulateSimple,
	},
	"burst": {
		config: ratelimit.Config{Capacity: 4, RefillRate: 2, RefillInterval: 500 * time.Millisecond},
		run:    simulateBurst,
	},
	"ddos": {
		config: ratelimit.Config{Capacity: 10, RefillRate: 1, RefillInterval: time.Second},
		run:    simulateDDoS,
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, ok := scenarios[args[0]]
	if !ok {
		return cli.NewConfigError("scenario",
			fmt.Sprintf("unknown scenario %q (valid: %s)", args[0], strings.Join(scenarioNames(), ", ")))
	}
	format, err := cli.ParseOutputFormat(simulateFlags.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	logger, err := logging.New(logging.Config{
		Level:  simulateFlags.logLevel,
		Format: string(logging.FormatText),
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewConfigError("log-level", err.Error())
	}

	env := &simEnv{
		clock:      newSimClock(simulateFlags.realtime),
		out:        cmd.OutOrStdout(),
		quiet:      simulateFlags.quiet,
		shards:     simulateFlags.shards,
		maxBuckets: simulateFlags.maxBuckets,
		logger:     logger,
	}
	if env.quiet {
		env.progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	start := time.Now()
	stats, err := sc.run(ctx, env, sc.config)
	if err != nil {
		return cli.NewCommandError("simulate "+args[0], err)
	}

	summary := &cli.Table{Headers: []string{"SCENARIO", "ALLOWED", "DENIED", "BUCKETS", "SIMULATED", "WALL"}}
	summary.Append(
		args[0],
		strconv.FormatUint(stats.Allowed, 10),
		strconv.FormatUint(stats.Denied, 10),
		strconv.Itoa(stats.Buckets),
		env.clock.Elapsed().String(),
		time.Since(start).Round(time.Millisecond).String(),
	)

	if format == cli.FormatText && !env.quiet {
		fmt.Fprintln(env.out)
	}
	return cli.NewFormatter(format).FormatTo(env.out, summary)
}

// simEnv carries what every scenario needs.
type simEnv struct {
	clock      *simClock
	out        io.Writer
	quiet      bool
	shards     int
	maxBuckets int
	logger     *logging.Logger
	progress   cli.ProgressReporter

	mu sync.Mutex
}

// printf writes a decision line unless the run is quiet.
func (e *simEnv) printf(format string, args ...any) {
	if e.quiet {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.out, format, args...)
}

func (e *simEnv) startProgress(total int64) {
	if e.progress != nil {
		e.progress.Start(total)
	}
}

func (e *simEnv) step() {
	if e.progress != nil {
		e.progress.Add(1)
	}
}

func (e *simEnv) finishProgress() {
	if e.progress != nil {
		e.progress.Finish()
	}
}

// newSimLimiter builds a limiter on the environment's clock.
func newSimLimiter[K comparable](env *simEnv, cfg ratelimit.Config) (*ratelimit.RateLimiter[K], error) {
	opts := []ratelimit.Option{
		ratelimit.WithClock(env.clock.Now),
		ratelimit.WithLogger(env.logger.Slog()),
	}
	if env.shards > 0 {
		opts = append(opts, ratelimit.WithShards(env.shards))
	}
	if env.maxBuckets > 0 {
		opts = append(opts, ratelimit.WithMaxBuckets(env.maxBuckets))
	}
	return ratelimit.New[K](cfg, opts...)
}

// simulateSimple sends a request for one key every 200ms.
func simulateSimple(ctx context.Context, env *simEnv, cfg ratelimit.Config) (ratelimit.Stats, error) {
	const requests = 20
	const interval = 200 * time.Millisecond

	limiter, err := newSimLimiter[string](env, cfg)
	if err != nil {
		return ratelimit.Stats{}, err
	}

	env.startProgress(requests)
	defer env.finishProgress()

	for i := 0; i < requests; i++ {
		if err := ctx.Err(); err != nil {
			return limiter.Stats(), err
		}
		if limiter.Request("user") {
			env.printf("Request %d: granted\n", i+1)
		} else {
			env.printf("Request %d: denied\n", i+1)
		}
		env.step()
		env.clock.Sleep(interval)
	}
	return limiter.Stats(), nil
}

// simulateBurst runs workers that share one limiter. Each round every worker
// requests every key concurrently; the round then waits for all of them
// before time moves on.
func simulateBurst(ctx context.Context, env *simEnv, cfg ratelimit.Config) (ratelimit.Stats, error) {
	const workers = 2
	const keys = 2
	const rounds = 20
	const interval = 40 * time.Millisecond

	limiter, err := newSimLimiter[int](env, cfg)
	if err != nil {
		return ratelimit.Stats{}, err
	}

	env.startProgress(rounds)
	defer env.finishProgress()

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return limiter.Stats(), err
		}

		var wg sync.WaitGroup
		for w := 1; w <= workers; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for key := 0; key < keys; key++ {
					if limiter.Request(key) {
						env.printf("Worker %d granted request to %d\n", worker, key)
					} else {
						env.printf("Worker %d denied request to %d\n", worker, key)
					}
				}
			}(w)
		}
		wg.Wait()

		env.step()
		env.clock.Sleep(interval)
	}
	return limiter.Stats(), nil
}

// simulateDDoS connects 255 distinct clients once each, then floods from a
// single address.
func simulateDDoS(ctx context.Context, env *simEnv, cfg ratelimit.Config) (ratelimit.Stats, error) {
	const clients = 255
	const floods = 255
	const spamIP = "12.34.56.78"
	const interval = 10 * time.Millisecond

	limiter, err := newSimLimiter[string](env, cfg)
	if err != nil {
		return ratelimit.Stats{}, err
	}

	connect := func(ip string) {
		if limiter.Request(ip) {
			env.printf("Connected to %s\n", ip)
		} else {
			env.printf("DDoS prevented! Connection to %s denied\n", ip)
		}
		env.step()
		env.clock.Sleep(interval)
	}

	env.startProgress(clients + floods)
	defer env.finishProgress()

	for i := 1; i <= clients; i++ {
		if err := ctx.Err(); err != nil {
			return limiter.Stats(), err
		}
		connect(fmt.Sprintf("169.254.0.%d", i))
	}

	env.printf("\n")

	for i := 0; i < floods; i++ {
		if err := ctx.Err(); err != nil {
			return limiter.Stats(), err
		}
		connect(spamIP)
	}
	return limiter.Stats(), nil
}

// simClock is either the wall clock or a simulated one advanced by Sleep.
type simClock struct {
	realtime bool
	start    time.Time

	mu  sync.Mutex
	now time.Time
}

func newSimClock(realtime bool) *simClock {
	now := time.Now()
	return &simClock{realtime: realtime, start: now, now: now}
}

// Now returns the current time.
func (c *simClock) Now() time.Time {
	if c.realtime {
		return time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep waits d on the wall clock, or moves simulated time forward by d.
func (c *simClock) Sleep(d time.Duration) {
	if c.realtime {
		time.Sleep(d)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Elapsed returns how much clock time the run covered.
func (c *simClock) Elapsed() time.Duration {
	return c.Now().Sub(c.start).Round(time.Millisecond)
}
