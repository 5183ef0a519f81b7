// Command threadpool runs a batch of sleeping work items through a fixed
// pool of workers, then stops the pool after every item has finished.
//
// Configuration comes from an optional YAML or JSON file and THREADPOOL_*
// environment variables. With metrics enabled the process serves Prometheus
// metrics while the batch runs; -serve keeps the endpoint up until the
// process is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fluxorio/threadpool/pkg/config"
	"github.com/fluxorio/threadpool/pkg/core"
	"github.com/fluxorio/threadpool/pkg/core/concurrency"
	"github.com/fluxorio/threadpool/pkg/observability/prometheus"
	"github.com/fluxorio/threadpool/pkg/observability/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("threadpool: %v", err)
	}
}

type options struct {
	configPath string
	items      int
	spacing    time.Duration
	work       time.Duration
	serve      bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("threadpool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML or JSON config file")
	fs.IntVar(&opts.items, "items", 8, "number of work items to submit")
	fs.DurationVar(&opts.spacing, "spacing", 0, "delay between submissions")
	fs.DurationVar(&opts.work, "work", 100*time.Millisecond, "time each item sleeps")
	fs.BoolVar(&opts.serve, "serve", false, "keep serving metrics after the batch until interrupted")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.items < 0 {
		return opts, fmt.Errorf("-items must not be negative, got %d", opts.items)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadPoolConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, err := core.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := core.NewWriterLogger(level, stderr)

	tp, shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warnf("trace flush failed: %v", err)
		}
	}()

	poolOpts := []concurrency.Option{
		concurrency.WithLogger(logger),
		concurrency.WithTracerProvider(tp),
	}

	g, gctx := errgroup.WithContext(ctx)

	var metricsServer *prometheus.Server
	if cfg.Metrics.Enabled {
		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		metricsServer = prometheus.NewServer(cfg.Metrics.Path, prometheus.DefaultRegistry, logger)
		poolOpts = append(poolOpts, concurrency.WithMetrics(prometheus.GetMetrics()))
		g.Go(func() error {
			return metricsServer.Serve(ln)
		})
	}

	g.Go(func() error {
		if metricsServer != nil {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(sctx); err != nil {
					logger.Warnf("metrics server shutdown: %v", err)
				}
			}()
		}

		if err := runBatch(gctx, cfg, opts, poolOpts, &syncWriter{w: stdout}, logger); err != nil {
			return err
		}
		if opts.serve && metricsServer != nil {
			logger.Infof("batch finished, serving metrics until interrupted")
			<-gctx.Done()
		}
		return nil
	})

	return g.Wait()
}

// runBatch submits opts.items sleeping items to a new pool and stops it.
// Cancelling ctx stops further submissions; accepted items still finish.
func runBatch(ctx context.Context, cfg config.PoolConfig, opts options, poolOpts []concurrency.Option, out io.Writer, logger core.Logger) error {
	pool, err := concurrency.NewThreadPool(cfg.Workers, poolOpts...)
	if err != nil {
		return err
	}

	start := time.Now()
	submitErr := submitItems(ctx, pool, opts, out, logger)

	shutdownCtx := context.Background()
	if timeout := cfg.ShutdownTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, timeout)
		defer cancel()
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if submitErr != nil {
		return submitErr
	}

	stats := pool.Stats()
	logger.Infof("ran %d item(s) on %d workers in %v (failed=%d)",
		stats.CompletedTasks, stats.Workers, time.Since(start).Round(time.Millisecond), stats.FailedTasks)
	return nil
}

// submitItems feeds opts.items sleeping items to exec, stopping early when
// ctx is cancelled.
func submitItems(ctx context.Context, exec concurrency.Executor, opts options, out io.Writer, logger core.Logger) error {
	for i := 0; i < opts.items; i++ {
		if i > 0 && opts.spacing > 0 {
			select {
			case <-time.After(opts.spacing):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			logger.Warnf("interrupted after submitting %d of %d items", i, opts.items)
			return nil
		}

		i := i
		task := concurrency.NewNamedTask(fmt.Sprintf("item-%d", i), func(ctx context.Context) error {
			time.Sleep(opts.work)
			worker, _ := core.WorkerIDFrom(ctx)
			fmt.Fprintf(out, "item %d done on worker %d (%s)\n", i, worker, core.ItemIDFrom(ctx))
			return nil
		})
		if err := exec.SubmitTask(task); err != nil {
			return err
		}
	}
	return nil
}

// syncWriter serializes writes from concurrently running items.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
