package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/constrictdb/constrict/pkg/config"
	"github.com/constrictdb/constrict/pkg/logging"
	"github.com/constrictdb/constrict/pkg/modelio"
	"github.com/constrictdb/constrict/pkg/models"
	"github.com/constrictdb/constrict/pkg/policy"
	"github.com/constrictdb/constrict/pkg/profiler"
	"github.com/constrictdb/constrict/pkg/profiler/mssql"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	capture := flag.Bool("capture", false, "profile the live database instead of loading a saved snapshot")
	flag.Parse()

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("model_path", cfg.ModelPath),
		zap.String("policy_mode", cfg.Policy.Mode))

	if err := run(cfg, *capture, logger); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, capture bool, logger *zap.Logger) error {
	ctx := context.Background()

	model, err := modelio.LoadModel(cfg.ModelPath)
	if err != nil {
		return err
	}

	snapshot, err := loadOrCapture(ctx, cfg, capture, model, logger)
	if err != nil {
		return err
	}

	options, err := cfg.TighteningOptions()
	if err != nil {
		return err
	}

	engine := policy.NewEngine(logger)
	result, err := engine.Run(model, snapshot, &options)
	if err != nil {
		return err
	}

	for _, line := range result.Report.Summary {
		logger.Info(line)
	}

	return writeReport(cfg.ReportPath, result.Report, logger)
}

// loadOrCapture loads the saved snapshot, or profiles the live database and
// saves the result for later runs.
func loadOrCapture(ctx context.Context, cfg *config.Config, capture bool, model *models.Model, logger *zap.Logger) (*models.ProfilingSnapshot, error) {
	if !capture {
		return profiler.LoadSnapshot(cfg.SnapshotPath)
	}

	prof, err := mssql.NewProfiler(ctx, cfg.Datasource.ConnectionString(), cfg.Datasource.SampleLimit, logger)
	if err != nil {
		return nil, err
	}
	defer prof.Close()

	snapshot, err := prof.Capture(ctx, model)
	if err != nil {
		return nil, err
	}

	if cfg.SnapshotPath != "" {
		if err := profiler.SaveSnapshot(cfg.SnapshotPath, snapshot); err != nil {
			return nil, err
		}
		logger.Info("Snapshot saved", zap.String("path", cfg.SnapshotPath))
	}
	return snapshot, nil
}

func writeReport(path string, report *models.PolicyDecisionReport, logger *zap.Logger) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logger.Info("Report written",
		zap.String("path", path),
		zap.Int("columns_tightened", report.Counts.ColumnsTightened),
		zap.Int("opportunities", report.Counts.OpportunityCount))
	return nil
}
