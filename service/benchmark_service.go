package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Jesteban247/Med-vision-detect/config"
	"github.com/Jesteban247/Med-vision-detect/entity"
)

var (
	ErrDatasetConfigServiceNil = errors.New("dataset config service is nil")
	ErrTrainRunsDirRequired    = errors.New("train runs dir is required")
)

const checkpointRelPath = "weights/best.pt"

// stderrSnippetLimit bounds how much of a failed command's stderr reaches the
// console.
const stderrSnippetLimit = 500

// BenchmarkService walks trained experiment directories and benchmarks every
// best.pt checkpoint under each configured quantization profile, scraping the
// tool's console output for metrics.
type BenchmarkService struct {
	Tool          string
	Benchmark     config.BenchmarkConfig
	runner        commandRunner
	datasetConfig *DatasetConfigService
}

func NewBenchmarkService() *BenchmarkService {
	cfg := config.EnsureConfigInitialized()
	return &BenchmarkService{
		Tool:          cfg.Tool,
		Benchmark:     cfg.Benchmark,
		runner:        newExecCommandRunner(),
		datasetConfig: NewDatasetConfigService(),
	}
}

// CollectAll benchmarks every experiment directory under the train runs dir,
// in name order, and returns the rows that produced usable metrics. A missing
// or unreadable runs directory yields zero rows, not an error.
func (s *BenchmarkService) CollectAll() ([]entity.BenchmarkRecord, error) {
	logger := serviceLogger().With("service", "BenchmarkService", "method", "CollectAll")

	if s.runner == nil {
		logger.Warn("collect failed: command runner is nil")
		return nil, ErrCommandRunnerNil
	}
	if s.datasetConfig == nil {
		logger.Warn("collect failed: dataset config service is nil")
		return nil, ErrDatasetConfigServiceNil
	}

	runsDir := strings.TrimSpace(s.Benchmark.TrainRunsDir)
	if runsDir == "" {
		logger.Warn("collect failed: train runs dir is empty")
		return nil, ErrTrainRunsDirRequired
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		logger.Warn("read train runs dir failed, nothing to benchmark", "runs_dir", runsDir, "error", err)
		return nil, nil
	}

	logger.Info("benchmark sweep begin", "runs_dir", runsDir, "entries", len(entries), "profiles", len(s.Benchmark.Profiles))

	var records []entity.BenchmarkRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		records = append(records, s.benchmarkExperiment(entry.Name())...)
	}

	logger.Info("benchmark sweep done", "rows", len(records))
	return records, nil
}

func (s *BenchmarkService) benchmarkExperiment(expName string) []entity.BenchmarkRecord {
	logger := serviceLogger().With(
		"service", "BenchmarkService",
		"method", "benchmarkExperiment",
		"experiment", expName,
		"session_id", uuid.NewString(),
	)

	checkpoint := filepath.Join(strings.TrimSpace(s.Benchmark.TrainRunsDir), expName, checkpointRelPath)
	if _, err := os.Stat(checkpoint); err != nil {
		logger.Warn("checkpoint not found, experiment skipped", "checkpoint", checkpoint)
		fmt.Printf("⚠️  Model not found: %s\n", checkpoint)
		return nil
	}

	marker, ok := s.matchDataset(expName)
	if !ok {
		logger.Warn("no dataset marker matches experiment, skipped")
		fmt.Printf("⚠️  Unknown dataset for: %s\n", expName)
		return nil
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("Benchmarking: %s\n", expName)
	fmt.Println(strings.Repeat("=", 80))

	guard, err := s.datasetConfig.UseTestSplit(marker.ConfigPath)
	if err != nil {
		logger.Error("prepare dataset config failed, experiment skipped", "dataset_config", marker.ConfigPath, "error", err)
		return nil
	}
	defer func() {
		if restoreErr := guard.Restore(); restoreErr != nil {
			logger.Error("restore dataset config failed", "dataset_config", marker.ConfigPath, "error", restoreErr)
		}
	}()

	var records []entity.BenchmarkRecord
	for _, profile := range s.Benchmark.Profiles {
		fmt.Printf("\n🔧 Testing configuration: %s\n", profile.Name)
		record, ok := s.benchmarkProfile(checkpoint, marker.ConfigPath, expName, profile)
		if ok {
			records = append(records, record)
		}
	}
	return records
}

// matchDataset returns the first configured marker whose name occurs in the
// experiment name; marker order decides ties.
func (s *BenchmarkService) matchDataset(expName string) (config.DatasetMarker, bool) {
	for _, marker := range s.Benchmark.Datasets {
		name := strings.TrimSpace(marker.Name)
		if name == "" {
			continue
		}
		if strings.Contains(expName, name) {
			return marker, true
		}
	}
	return config.DatasetMarker{}, false
}

func (s *BenchmarkService) benchmarkProfile(checkpoint, dataYAML, expName string, profile entity.QuantProfile) (entity.BenchmarkRecord, bool) {
	logger := serviceLogger().With(
		"service", "BenchmarkService",
		"method", "benchmarkProfile",
		"experiment", expName,
		"profile", profile.Name,
	)

	args := []string{
		"benchmark",
		"model=" + checkpoint,
		"data=" + dataYAML,
		"imgsz=" + strconv.Itoa(s.Benchmark.ImageSize),
		"half=" + strconv.FormatBool(profile.Half),
		"int8=" + strconv.FormatBool(profile.Int8),
		"device=" + s.Benchmark.Device,
	}

	fmt.Printf("Running: %s %s\n", s.Tool, strings.Join(args, " "))
	logger.Info("benchmark begin")

	stdout, stderr, err := s.runner.Capture(s.Tool, args)
	if err != nil {
		code := exitCodeOf(err)
		logger.Warn("benchmark command failed", "exit_code", code, "error", err)
		fmt.Printf("❌ Command failed with return code %d\n", code)
		fmt.Printf("Error output: %s...\n", truncateRunes(stderr, stderrSnippetLimit))
		return entity.BenchmarkRecord{}, false
	}

	output := stdout + stderr

	summary := ParseValidationSummary(output)
	table := ParseBenchmarkTable(output)

	map5095 := summary.MAP5095
	if map5095 == nil {
		map5095 = table.MAP5095
	}

	if table.SizeMB == nil || map5095 == nil {
		logger.Warn("metrics missing from console output, profile dropped")
		fmt.Printf("❌ Failed to extract metrics for %s. Check debug output above.\n", profile.Name)
		return entity.BenchmarkRecord{}, false
	}

	record := entity.BenchmarkRecord{
		Experiment:      expName,
		Dataset:         datasetColumn(expName),
		Freeze:          s.freezeLabel(expName),
		Quantization:    profile.Name,
		Half:            profile.Half,
		Int8:            profile.Int8,
		ModelSizeMB:     *table.SizeMB,
		MAP50:           summary.MAP50,
		MAP5095:         *map5095,
		InferenceTimeMS: table.InferenceTimeMS,
		FPS:             table.FPS,
	}

	fmt.Printf(
		"✅ Success - mAP50: %s, mAP50-95: %.4f, FPS: %s\n",
		formatOptionalMetric(record.MAP50, 'g', -1),
		record.MAP5095,
		formatOptionalMetric(record.FPS, 'f', 2),
	)
	logger.Info("benchmark success", "size_mb", record.ModelSizeMB, "map50_95", record.MAP5095)
	return record, true
}

// datasetColumn cuts the experiment name at its first underscore.
func datasetColumn(expName string) string {
	name, _, _ := strings.Cut(expName, "_")
	return name
}

func (s *BenchmarkService) freezeLabel(expName string) string {
	marker := strings.TrimSpace(s.Benchmark.FrozenMarker)
	if marker != "" && strings.Contains(expName, marker) {
		return entity.FreezeLabelFrozen
	}
	return entity.FreezeLabelUnfrozen
}

func formatOptionalMetric(v *float64, format byte, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, format, prec, 64)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
