package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"evrptw_bpc/src/bpc"
	"evrptw_bpc/src/model"
	"evrptw_bpc/src/oracle"
	"evrptw_bpc/src/oracle/highsoracle"
	"evrptw_bpc/src/oracle/lpsolve"
	"evrptw_bpc/src/report"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func newOracle(name string, integer bool) (oracle.Oracle, error) {
	switch strings.ToLower(name) {
	case "highs":
		return highsoracle.New(), nil
	case "simplex":
		return oracle.NewSimplex(), nil
	case "lpsolve":
		if !integer {
			return nil, errors.Wrap(oracle.ErrNotSupported, "lpsolve provides no duals")
		}
		return lpsolve.New(), nil
	}
	return nil, errors.Errorf("unknown oracle %q", name)
}

// applyEnv overrides the configuration with the EVRPTW_* variables.
func applyEnv(cfg *bpc.Config) (dsn string, err error) {
	if v := os.Getenv("EVRPTW_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return "", errors.Wrap(err, "EVRPTW_TIME_LIMIT")
		}
		cfg.TimeLimit = d
	}
	if v := os.Getenv("EVRPTW_ORACLE"); v != "" {
		cfg.LPOracle = v
		cfg.MIPOracle = v
	}
	return os.Getenv("EVRPTW_RESULTS_DSN"), nil
}

func serveMetrics(addr string) {
	bpc.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(bpc.Registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
}

func main() {
	var configPath, metricsAddr, outDir, dsn string
	var verbose, jsonLogs bool
	var timeLimit time.Duration
	var paths []string

	flag.Func("inst", "a list of instance file paths, separated by a whitespace", func(s string) error {
		paths = strings.Fields(s)
		return nil
	})
	flag.StringVar(&configPath, "config", "", "YAML file overriding the default solver configuration")
	flag.DurationVar(&timeLimit, "time", 0, "Time limit per instance (overrides the configuration)")
	flag.BoolVar(&verbose, "v", false, "Log every node")
	flag.BoolVar(&jsonLogs, "log-json", false, "Log in JSON format")
	flag.StringVar(&metricsAddr, "metrics", "", "Address serving Prometheus metrics, e.g. :9090")
	flag.StringVar(&outDir, "out", "", "Directory receiving one YAML result file per instance")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL connection string for storing results")

	flag.Parse()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if jsonLogs {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Must specify at least a path")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env")
	}

	cfg := bpc.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = bpc.LoadConfig(configPath); err != nil {
			log.WithError(err).Fatal("invalid configuration")
		}
	}
	envDSN, err := applyEnv(&cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid environment")
	}
	if dsn == "" {
		dsn = envDSN
	}
	if timeLimit > 0 {
		cfg.TimeLimit = timeLimit
	}

	lp, err := newOracle(cfg.LPOracle, false)
	if err != nil {
		log.WithError(err).Fatal("LP oracle")
	}
	mip, err := newOracle(cfg.MIPOracle, true)
	if err != nil {
		log.WithError(err).Fatal("MIP oracle")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if metricsAddr != "" {
		serveMetrics(metricsAddr)
	}

	var sinks report.MultiSink
	var yamlSink *report.YAMLSink
	if outDir != "" {
		yamlSink = report.NewYAMLSink(outDir)
		sinks = append(sinks, yamlSink)
	}
	if dsn != "" {
		pg, err := report.NewPostgresSink(ctx, dsn)
		if err != nil {
			log.WithError(err).Fatal("results database")
		}
		defer pg.Close()
		sinks = append(sinks, pg)
	}

	for _, p := range paths {
		inst, err := model.LoadInstance(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error for instance \"%v\": %v. Skipping...\n", p, err)
			continue
		}
		if yamlSink != nil {
			yamlSink.Register(inst)
		}

		fmt.Printf("Solving %v...\n", p)
		tree, err := bpc.NewTree(inst, cfg, lp, mip)
		if err != nil {
			log.WithError(err).Fatal("invalid configuration")
		}
		res, err := tree.Solve(ctx)
		switch {
		case errors.Is(err, bpc.ErrTimeLimit):
			fmt.Fprintf(os.Stderr, "Time limit reached for instance \"%v\"\n", p)
		case err != nil:
			fmt.Fprintf(os.Stderr, "An error occured while solving instance \"%v\": %v\n", p, err)
		}
		fmt.Println(res)
		fmt.Println("Charging:", report.NewChargingStats(inst, res.Routes))

		if len(sinks) > 0 {
			if err := sinks.Write(ctx, res); err != nil {
				log.WithError(err).WithField("instance", inst.Name).Error("storing result")
			}
		}
		fmt.Println()
		if ctx.Err() != nil {
			break
		}
	}
}
