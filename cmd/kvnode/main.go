// Command kvnode wires the storage engine (and, depending on config.Mode,
// one of the cluster layers) to a line-oriented stdin/stdout loop through
// the adapter. This is a local development harness, not the production wire
// transport — the TCP listener and framing loop remain an external
// collaborator out of scope for this module.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/adapter"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/primary"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/quorum"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/config"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	configPath := os.Getenv("KVNODE_CONFIG")
	if configPath == "" {
		configPath = "./kvnode.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("mode", string(cfg.Mode)),
		zap.String("node_id", cfg.NodeID))

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	engine, closer, err := openEngine(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open engine", zap.Error(err))
	}
	defer closer()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down gracefully")
		closer()
		os.Exit(0)
	}()

	logger.Info("kvnode ready, reading newline-delimited json requests from stdin")
	runLoop(engine, os.Stdin, os.Stdout, logger)
}

// openEngine opens the adapter.Engine appropriate to cfg.Mode: a bare
// single-node engine, or one of the cluster layers wrapped in its adapter
// shim. The returned closer releases whatever resources were opened.
func openEngine(cfg *config.Config, logger *zap.Logger) (adapter.Engine, func() error, error) {
	switch cfg.Mode {
	case config.ModePrimary:
		c, err := primary.Open(cfg.DataDir, cfg.Cluster.NodeIDs, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open primary-secondary cluster: %w", err)
		}
		return adapter.NewPrimaryCluster(c), c.Close, nil

	case config.ModeQuorum:
		c, err := quorum.Open(cfg.DataDir, cfg.Cluster.NodeIDs, cfg.Cluster.QuorumSize, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open quorum cluster: %w", err)
		}
		return adapter.NewQuorumCluster(c), c.Close, nil

	default:
		m := metrics.New(cfg.NodeID)
		e, err := kvstore.Open(cfg.WalPath, logger, m)
		if err != nil {
			return nil, nil, fmt.Errorf("open engine: %w", err)
		}
		return e, e.Close, nil
	}
}

// runLoop reads one adapter.Request per line from in and writes one
// adapter.Response per line to out, without binding to any particular
// transport.
func runLoop(engine adapter.Engine, in *os.File, out *os.File, logger *zap.Logger) {
	scanner := bufio.NewScanner(in)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		var req adapter.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			logger.Warn("malformed request frame", zap.Error(err))
			writeResponse(writer, adapter.Response{OK: false, Error: "malformed request"})
			continue
		}
		resp := adapter.Handle(engine, req)
		writeResponse(writer, resp)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("stdin scan failed", zap.Error(err))
	}
}

func writeResponse(w *bufio.Writer, resp adapter.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	w.Write(data)
	w.WriteByte('\n')
	w.Flush()
}

func initLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return cfg.Build()
}
