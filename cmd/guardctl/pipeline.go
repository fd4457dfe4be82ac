package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deployguard/deployguard/internal/audit"
	auditsqlite "github.com/deployguard/deployguard/internal/audit/sqlite"
	"github.com/deployguard/deployguard/internal/config"
	"github.com/deployguard/deployguard/internal/cost"
	"github.com/deployguard/deployguard/internal/decision"
	"github.com/deployguard/deployguard/internal/logging"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/slo"
	"github.com/deployguard/deployguard/internal/telemetry"
	"github.com/deployguard/deployguard/internal/telemetry/prometheus"
)

// Compile-time checks that both audit backends satisfy the store contracts.
var (
	_ audit.Sink   = (*audit.JSONLLog)(nil)
	_ audit.Reader = (*audit.JSONLLog)(nil)
	_ audit.Sink   = (*auditsqlite.Store)(nil)
	_ audit.Reader = (*auditsqlite.Store)(nil)
)

// pipeline wires configuration, evaluators, the decision engine and the
// audit store together for one CLI invocation.
type pipeline struct {
	cfg         *config.Config
	logger      *zap.SugaredLogger
	reliability *slo.Evaluator
	cost        *cost.Evaluator
	engine      *decision.Engine
	sink        audit.Sink
	reader      audit.Reader
}

func newPipeline(configPath string) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	sloCfg, err := loadSLOConfig(cfg)
	if err != nil {
		return nil, err
	}

	policies, err := policy.Load(cfg.Paths.Policies)
	if err != nil {
		return nil, err
	}

	files := telemetry.NewFileSource(cfg.Paths.Metrics, cfg.Paths.CostData)

	var metricsSource telemetry.MetricsSource = files
	if cfg.Telemetry.Source == "prometheus" {
		metricsSource = prometheus.NewCollector(
			prometheus.DefaultConfig(cfg.Telemetry.PrometheusURL),
			prometheus.Queries{
				TotalRequests:  cfg.Telemetry.Queries.TotalRequests,
				FailedRequests: cfg.Telemetry.Queries.FailedRequests,
				LatencyP95Ms:   cfg.Telemetry.Queries.LatencyP95Ms,
				LatencyP99Ms:   cfg.Telemetry.Queries.LatencyP99Ms,
				HourlyBurnRate: cfg.Telemetry.Queries.HourlyBurnRate,
			},
			"", // service name comes from the queries' label sets
		)
	}

	reliability := slo.NewEvaluator(sloCfg, metricsSource)
	costEval := cost.NewEvaluator(files, cost.Thresholds{
		WarnPct:  cfg.Cost.WarnPct,
		BlockPct: cfg.Cost.BlockPct,
	})

	sink, reader, err := newAuditStore(cfg)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:         cfg,
		logger:      logger,
		reliability: reliability,
		cost:        costEval,
		engine:      decision.NewEngine(policies, reliability, costEval),
		sink:        sink,
		reader:      reader,
	}, nil
}

func newAuditStore(cfg *config.Config) (audit.Sink, audit.Reader, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err := auditsqlite.NewStore(cfg.Audit.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		return store, store, nil
	default:
		log, err := audit.NewJSONLLog(cfg.Audit.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit log: %w", err)
		}
		return log, log, nil
	}
}

func loadSLOConfig(cfg *config.Config) (*slo.Config, error) {
	return slo.LoadConfig(cfg.Paths.SLOConfig)
}

func (p *pipeline) close() {
	if err := p.sink.Close(); err != nil {
		p.logger.Warnw("failed to close audit store", "error", err)
	}
	_ = p.logger.Sync()
}
