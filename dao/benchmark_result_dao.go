package dao

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jesteban247/Med-vision-detect/config"
	"github.com/Jesteban247/Med-vision-detect/entity"
)

// csvHeader is the column contract of the results artifact. Downstream
// notebooks read these names, do not reorder.
var csvHeader = []string{
	"Experiment",
	"Dataset",
	"Freeze",
	"Quantization",
	"Half_Precision",
	"INT8",
	"Model_Size_MB",
	"mAP50",
	"mAP50-95",
	"Inference_Time_ms",
	"FPS",
}

type BenchmarkResultDAO struct {
	Path string
}

func NewBenchmarkResultDAO() *BenchmarkResultDAO {
	cfg := config.EnsureConfigInitialized()
	return &BenchmarkResultDAO{Path: cfg.Benchmark.ResultsCSV}
}

// SaveAll replaces the CSV artifact with the given rows, header first,
// creating parent directories as needed.
func (d *BenchmarkResultDAO) SaveAll(records []entity.BenchmarkRecord) error {
	logger := daoLogger().With("dao", "BenchmarkResultDAO", "method", "SaveAll")

	path := strings.TrimSpace(d.Path)
	if path == "" {
		logger.Warn("save failed: csv path is empty")
		return ErrCSVPathRequired
	}
	if len(records) == 0 {
		logger.Warn("save failed: no records")
		return ErrNoRecords
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("create results directory failed", "path", path, "error", err)
			return fmt.Errorf("create results directory failed: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		logger.Error("create results file failed", "path", path, "error", err)
		return fmt.Errorf("create results file failed: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header failed: %w", err)
	}
	for _, record := range records {
		if err := w.Write(csvRow(record)); err != nil {
			return fmt.Errorf("write csv row failed: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv failed: %w", err)
	}

	logger.Info("benchmark results saved", "path", path, "rows", len(records))
	return nil
}

// LoadAll reads the artifact back, skipping the header row.
func (d *BenchmarkResultDAO) LoadAll() ([]entity.BenchmarkRecord, error) {
	logger := daoLogger().With("dao", "BenchmarkResultDAO", "method", "LoadAll")

	path := strings.TrimSpace(d.Path)
	if path == "" {
		logger.Warn("load failed: csv path is empty")
		return nil, ErrCSVPathRequired
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Error("open results file failed", "path", path, "error", err)
		return nil, fmt.Errorf("open results file failed: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv failed: %w", err)
	}

	var records []entity.BenchmarkRecord
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		record, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse csv row %d failed: %w", i+1, err)
		}
		records = append(records, record)
	}

	logger.Info("benchmark results loaded", "path", path, "rows", len(records))
	return records, nil
}

func csvRow(r entity.BenchmarkRecord) []string {
	return []string{
		r.Experiment,
		r.Dataset,
		r.Freeze,
		r.Quantization,
		strconv.FormatBool(r.Half),
		strconv.FormatBool(r.Int8),
		formatFloatCell(r.ModelSizeMB),
		formatOptionalCell(r.MAP50),
		formatFloatCell(r.MAP5095),
		formatOptionalCell(r.InferenceTimeMS),
		formatOptionalCell(r.FPS),
	}
}

func recordFromRow(row []string) (entity.BenchmarkRecord, error) {
	if len(row) != len(csvHeader) {
		return entity.BenchmarkRecord{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	half, err := strconv.ParseBool(row[4])
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse half flag failed: %w", err)
	}
	int8Flag, err := strconv.ParseBool(row[5])
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse int8 flag failed: %w", err)
	}
	sizeMB, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse model size failed: %w", err)
	}
	map50, err := parseOptionalCell(row[7])
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse mAP50 failed: %w", err)
	}
	map5095, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse mAP50-95 failed: %w", err)
	}
	inferenceMS, err := parseOptionalCell(row[9])
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse inference time failed: %w", err)
	}
	fps, err := parseOptionalCell(row[10])
	if err != nil {
		return entity.BenchmarkRecord{}, fmt.Errorf("parse fps failed: %w", err)
	}

	return entity.BenchmarkRecord{
		Experiment:      row[0],
		Dataset:         row[1],
		Freeze:          row[2],
		Quantization:    row[3],
		Half:            half,
		Int8:            int8Flag,
		ModelSizeMB:     sizeMB,
		MAP50:           map50,
		MAP5095:         map5095,
		InferenceTimeMS: inferenceMS,
		FPS:             fps,
	}, nil
}

func formatFloatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptionalCell(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloatCell(*v)
}

func parseOptionalCell(cell string) (*float64, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
