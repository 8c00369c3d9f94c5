package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jesteban247/Med-vision-detect/config"
	"github.com/Jesteban247/Med-vision-detect/entity"
)

type fakeCaptureRunner struct {
	calls   [][]string
	respond func(call int, name string, args []string) (string, string, error)
}

func (f *fakeCaptureRunner) Stream(name string, args []string) error {
	return nil
}

func (f *fakeCaptureRunner) Capture(name string, args []string) (string, string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.respond == nil {
		return sampleValidationOutput + sampleBenchmarkTable, "", nil
	}
	return f.respond(len(f.calls)-1, name, args)
}

func mustWriteCheckpoint(t *testing.T, runsDir, expName string) {
	t.Helper()

	dir := filepath.Join(runsDir, expName, "weights")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "best.pt"), []byte("weights"), 0o644))
}

func mustWriteDatasetMarkers(t *testing.T) []config.DatasetMarker {
	t.Helper()

	root := t.TempDir()
	markers := make([]config.DatasetMarker, 0, 3)
	for _, name := range []string{"BreastCancer", "BloodCell", "Fracture"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		path := filepath.Join(dir, "data.yaml")
		content := "train: images/train\nval: images/val\ntest: images/test\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		markers = append(markers, config.DatasetMarker{Name: name, ConfigPath: path})
	}
	return markers
}

func benchmarkServiceForTest(runsDir string, markers []config.DatasetMarker, runner commandRunner) *BenchmarkService {
	return &BenchmarkService{
		Tool: "yolo",
		Benchmark: config.BenchmarkConfig{
			TrainRunsDir: runsDir,
			Datasets:     markers,
			Profiles: []entity.QuantProfile{
				{Name: "FP32", Half: false, Int8: false},
				{Name: "FP16", Half: true, Int8: false},
				{Name: "INT8", Half: false, Int8: true},
			},
			ImageSize:    640,
			Device:       "cpu",
			ResultsCSV:   "runs/benchmark_results.csv",
			FrozenMarker: "freeze_10",
		},
		runner:        runner,
		datasetConfig: NewDatasetConfigService(),
	}
}

func TestBenchmarkServiceCollectAllEndToEnd(t *testing.T) {
	runsDir := t.TempDir()
	for _, exp := range []string{"BloodCell_unfrozen", "BreastCancer_freeze_10", "Fracture_freeze_10"} {
		mustWriteCheckpoint(t, runsDir, exp)
	}
	// 非目录条目应被跳过
	require.NoError(t, os.WriteFile(filepath.Join(runsDir, "notes.txt"), []byte("x"), 0o644))

	markers := mustWriteDatasetMarkers(t)

	var observedVals []string
	runner := &fakeCaptureRunner{}
	runner.respond = func(call int, name string, args []string) (string, string, error) {
		dataPath := strings.TrimPrefix(args[2], "data=")
		doc := mustReadYAMLDoc(t, dataPath)
		observedVals = append(observedVals, doc["val"].(string))
		return sampleValidationOutput + sampleBenchmarkTable, "", nil
	}

	svc := benchmarkServiceForTest(runsDir, markers, runner)
	records, err := svc.CollectAll()
	assert.NoError(t, err)
	require.Len(t, records, 9)
	require.Len(t, runner.calls, 9)

	// 基准测试期间 val 一律指向 test split
	for _, val := range observedVals {
		assert.Equal(t, "images/test", val)
	}
	// 结束后全部恢复
	for _, marker := range markers {
		doc := mustReadYAMLDoc(t, marker.ConfigPath)
		assert.Equal(t, "images/val", doc["val"])
	}

	assert.Equal(t, []string{
		"yolo",
		"benchmark",
		"model=" + filepath.Join(runsDir, "BloodCell_unfrozen", "weights", "best.pt"),
		"data=" + markers[1].ConfigPath,
		"imgsz=640",
		"half=false",
		"int8=false",
		"device=cpu",
	}, runner.calls[0])
	assert.Equal(t, "half=true", runner.calls[1][5])
	assert.Equal(t, "int8=true", runner.calls[2][6])

	first := records[0]
	assert.Equal(t, "BloodCell_unfrozen", first.Experiment)
	assert.Equal(t, "BloodCell", first.Dataset)
	assert.Equal(t, entity.FreezeLabelUnfrozen, first.Freeze)
	assert.Equal(t, "FP32", first.Quantization)
	assert.False(t, first.Half)
	assert.False(t, first.Int8)
	assert.InDelta(t, 5.2, first.ModelSizeMB, 1e-9)
	require.NotNil(t, first.MAP50)
	assert.InDelta(t, 0.901, *first.MAP50, 1e-9)
	// 验证表优先于基准表格的 mAP50-95
	assert.InDelta(t, 0.734, first.MAP5095, 1e-9)
	require.NotNil(t, first.InferenceTimeMS)
	assert.InDelta(t, 4.49, *first.InferenceTimeMS, 1e-9)
	require.NotNil(t, first.FPS)
	assert.InDelta(t, 222.62, *first.FPS, 1e-9)

	frozen := records[3]
	assert.Equal(t, "BreastCancer_freeze_10", frozen.Experiment)
	assert.Equal(t, "BreastCancer", frozen.Dataset)
	assert.Equal(t, entity.FreezeLabelFrozen, frozen.Freeze)
	assert.Equal(t, "FP32", frozen.Quantization)
}

func TestBenchmarkServiceCollectAllMissingCheckpoint(t *testing.T) {
	runsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(runsDir, "BreastCancer_freeze_10"), 0o755))

	markers := mustWriteDatasetMarkers(t)
	before, err := os.ReadFile(markers[0].ConfigPath)
	require.NoError(t, err)

	runner := &fakeCaptureRunner{}
	svc := benchmarkServiceForTest(runsDir, markers, runner)

	records, err := svc.CollectAll()
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, runner.calls)

	after, err := os.ReadFile(markers[0].ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestBenchmarkServiceCollectAllUnknownDataset(t *testing.T) {
	runsDir := t.TempDir()
	mustWriteCheckpoint(t, runsDir, "Mystery_unfrozen")

	runner := &fakeCaptureRunner{}
	svc := benchmarkServiceForTest(runsDir, mustWriteDatasetMarkers(t), runner)

	records, err := svc.CollectAll()
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, runner.calls)
}

func TestBenchmarkServiceCollectAllContinuesAfterCommandFailure(t *testing.T) {
	runsDir := t.TempDir()
	mustWriteCheckpoint(t, runsDir, "BreastCancer_freeze_10")
	markers := mustWriteDatasetMarkers(t)

	runner := &fakeCaptureRunner{}
	runner.respond = func(call int, name string, args []string) (string, string, error) {
		if call == 1 {
			return "", "ONNX export failure", errors.New("exit status 1")
		}
		return sampleValidationOutput + sampleBenchmarkTable, "", nil
	}

	svc := benchmarkServiceForTest(runsDir, markers, runner)
	records, err := svc.CollectAll()
	assert.NoError(t, err)
	require.Len(t, runner.calls, 3)
	require.Len(t, records, 2)
	assert.Equal(t, "FP32", records[0].Quantization)
	assert.Equal(t, "INT8", records[1].Quantization)

	doc := mustReadYAMLDoc(t, markers[0].ConfigPath)
	assert.Equal(t, "images/val", doc["val"])
}

func TestBenchmarkServiceCollectAllTableFallback(t *testing.T) {
	runsDir := t.TempDir()
	mustWriteCheckpoint(t, runsDir, "Fracture_freeze_10")

	runner := &fakeCaptureRunner{}
	runner.respond = func(call int, name string, args []string) (string, string, error) {
		return sampleBenchmarkTable, "", nil
	}

	svc := benchmarkServiceForTest(runsDir, mustWriteDatasetMarkers(t), runner)
	records, err := svc.CollectAll()
	assert.NoError(t, err)
	require.Len(t, records, 3)

	assert.Nil(t, records[0].MAP50)
	assert.InDelta(t, 0.7344, records[0].MAP5095, 1e-9)
	assert.InDelta(t, 5.2, records[0].ModelSizeMB, 1e-9)
}

func TestBenchmarkServiceCollectAllDropsIncompleteMetrics(t *testing.T) {
	runsDir := t.TempDir()
	mustWriteCheckpoint(t, runsDir, "BloodCell_unfrozen")

	runner := &fakeCaptureRunner{}
	runner.respond = func(call int, name string, args []string) (string, string, error) {
		// 只有验证表，没有基准表格，拿不到模型体积
		return sampleValidationOutput, "", nil
	}

	svc := benchmarkServiceForTest(runsDir, mustWriteDatasetMarkers(t), runner)
	records, err := svc.CollectAll()
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, runner.calls, 3)
}

func TestBenchmarkServiceCollectAllMissingRunsDir(t *testing.T) {
	runner := &fakeCaptureRunner{}
	svc := benchmarkServiceForTest(filepath.Join(t.TempDir(), "nope"), mustWriteDatasetMarkers(t), runner)

	records, err := svc.CollectAll()
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, runner.calls)
}

func TestBenchmarkServiceCollectAllValidation(t *testing.T) {
	svc := &BenchmarkService{Tool: "yolo"}
	_, err := svc.CollectAll()
	assert.True(t, errors.Is(err, ErrCommandRunnerNil))

	svc = &BenchmarkService{Tool: "yolo", runner: &fakeCaptureRunner{}}
	_, err = svc.CollectAll()
	assert.True(t, errors.Is(err, ErrDatasetConfigServiceNil))

	svc = &BenchmarkService{
		Tool:          "yolo",
		runner:        &fakeCaptureRunner{},
		datasetConfig: NewDatasetConfigService(),
	}
	_, err = svc.CollectAll()
	assert.True(t, errors.Is(err, ErrTrainRunsDirRequired))
}
