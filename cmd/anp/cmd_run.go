package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/anp/internal/backend/cpu"
	"github.com/born-ml/anp/internal/config"
	"github.com/born-ml/anp/internal/data"
	"github.com/born-ml/anp/internal/logging"
	"github.com/born-ml/anp/internal/metrics"
	"github.com/born-ml/anp/internal/np"
	"github.com/born-ml/anp/internal/serialization"
	"github.com/born-ml/anp/internal/tokenizer"
	"github.com/born-ml/anp/internal/train"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the Neural Process objective over batches",
		Args:  cobra.NoArgs,
		RunE:  RunHandler,
	}
	runCmd.Flags().String("config", "", "Path to a YAML config file")
	runCmd.Flags().String("text", "", "Text corpus to tokenize instead of synthetic sequences")
	runCmd.Flags().String("records", "", "Write per-replica logging records as JSON lines to this file")
	runCmd.Flags().String("load", "", "Initialize every replica from a SafeTensors checkpoint")
	runCmd.Flags().String("save", "", "Write the model parameters to a SafeTensors checkpoint")
	return runCmd
}

// RunHandler runs the configured number of steps and prints the reduced metrics.
func RunHandler(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	errOut := zapcore.AddSync(cmd.ErrOrStderr())
	logger, err := logging.NewWithWriters(cfg.Log, errOut, errOut)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are not actionable

	backend := cpu.New()
	source, err := newSource(cmd, cfg, backend)
	if err != nil {
		return err
	}

	loadPath, _ := cmd.Flags().GetString("load")
	models := make([]*np.ReferenceModel[*cpu.CPUBackend], cfg.Train.Workers)
	replicas := make([]np.Model[*cpu.CPUBackend], cfg.Train.Workers)
	for i := range replicas {
		// Equal seeds give every replica the same initial weights.
		model, err := np.NewReferenceModel(cfg.Reference(), rand.New(rand.NewSource(cfg.Model.Seed)), backend) //nolint:gosec // reproducible weights
		if err != nil {
			return err
		}
		if loadPath != "" {
			if _, err := serialization.LoadParameters(loadPath, model.Parameters()); err != nil {
				return fmt.Errorf("load %s: %w", loadPath, err)
			}
		}
		models[i], replicas[i] = model, model
	}

	agg := metrics.NewAggregator()
	trainer, err := train.New(replicas, source, agg, logger)
	if err != nil {
		return err
	}
	logger.Info("starting run",
		zap.Stringer("encoder", cfg.Model.Encoder),
		zap.Ints("rs_dim", cfg.Model.RSDim),
		zap.Int("workers", cfg.Train.Workers),
		zap.Int("steps", cfg.Train.Steps),
	)

	recordsPath, err := cmd.Flags().GetString("records")
	if err != nil {
		return err
	}
	if recordsPath == "" {
		if err := trainer.Run(cmd.Context(), cfg.Train.Steps); err != nil {
			return err
		}
	} else if err := runWithRecords(cmd, trainer, cfg.Train.Steps, recordsPath); err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		metadata := map[string]string{
			"run_id":  trainer.RunID().String(),
			"encoder": cfg.Model.Encoder.String(),
		}
		if err := serialization.SaveParameters(savePath, models[0].Parameters(), metadata); err != nil {
			return err
		}
		logger.Info("saved checkpoint", zap.String("path", savePath))
	}

	renderMetrics(cmd.OutOrStdout(), agg.SmoothedValues())
	return nil
}

func runWithRecords(cmd *cobra.Command, trainer *train.Trainer[*cpu.CPUBackend], steps int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := 0; i < steps; i++ {
		result, err := trainer.Step(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range result.Records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("write records: %w", err)
			}
		}
	}
	return f.Close()
}

// newSource builds a corpus source when --text is set and a synthetic one
// otherwise. A corpus overrides the configured vocabulary size.
func newSource(cmd *cobra.Command, cfg *config.Config, backend *cpu.CPUBackend) (data.Source[*cpu.CPUBackend], error) {
	textPath, err := cmd.Flags().GetString("text")
	if err != nil {
		return nil, err
	}
	if textPath == "" {
		rng := rand.New(rand.NewSource(cfg.Model.Seed + 1)) //nolint:gosec // reproducible batches
		return data.NewSynthetic(cfg.Model.VocabSize, cfg.Data.BatchSize, cfg.Data.NumPoints, rng, backend), nil
	}

	text, err := os.ReadFile(textPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(cfg.Data.Tokenizer)
	if err != nil {
		return nil, err
	}
	corpus, err := data.NewCorpus(string(text), tok, cfg.Data.MaxVocab, cfg.Data.BatchSize, cfg.Data.NumPoints, backend)
	if err != nil {
		return nil, err
	}
	cfg.Model.VocabSize = corpus.Vocabulary().Size()
	return corpus, nil
}
