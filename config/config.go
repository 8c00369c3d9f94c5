package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jesteban247/Med-vision-detect/entity"
)

const DefaultConfigPath = "config/config.yaml"

type Config struct {
	Tool      string          `yaml:"tool"`
	Train     TrainConfig     `yaml:"train"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Log       LogConfig       `yaml:"log"`
}

type TrainConfig struct {
	Datasets      []string `yaml:"datasets"`
	FreezeOptions []int    `yaml:"freeze_options"`
	Epochs        int      `yaml:"epochs"`
	ImageSize     int      `yaml:"image_size"`
	Batch         int      `yaml:"batch"`
	AMP           bool     `yaml:"amp"`
	Plots         bool     `yaml:"plots"`
	Device        string   `yaml:"device"`
	Model         string   `yaml:"model"`
	Task          string   `yaml:"task"`
	Mode          string   `yaml:"mode"`
	Project       string   `yaml:"project"`
}

type DatasetMarker struct {
	Name       string `yaml:"name"`
	ConfigPath string `yaml:"config_path"`
}

type BenchmarkConfig struct {
	TrainRunsDir string                `yaml:"train_runs_dir"`
	Datasets     []DatasetMarker       `yaml:"datasets"`
	Profiles     []entity.QuantProfile `yaml:"profiles"`
	ImageSize    int                   `yaml:"image_size"`
	Device       string                `yaml:"device"`
	ResultsCSV   string                `yaml:"results_csv"`
	FrozenMarker string                `yaml:"frozen_marker"`
}

type LogConfig struct {
	Path string `yaml:"path"`
}

var AppConfig *Config

// DefaultConfig mirrors the constants the automation shipped with before the
// lists moved into configuration.
func DefaultConfig() *Config {
	return &Config{
		Tool: "yolo",
		Train: TrainConfig{
			Datasets:      []string{"Data/BreastCancer", "Data/BloodCell", "Data/Fracture"},
			FreezeOptions: []int{10, 0},
			Epochs:        30,
			ImageSize:     640,
			Batch:         32,
			AMP:           true,
			Plots:         true,
			Device:        "0,1",
			Model:         "yolo11n.pt",
			Task:          "detect",
			Mode:          "train",
			Project:       "runs/train",
		},
		Benchmark: BenchmarkConfig{
			TrainRunsDir: "runs/train",
			Datasets: []DatasetMarker{
				{Name: "BreastCancer", ConfigPath: "Data/BreastCancer/data.yaml"},
				{Name: "BloodCell", ConfigPath: "Data/BloodCell/data.yaml"},
				{Name: "Fracture", ConfigPath: "Data/Fracture/data.yaml"},
			},
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
		Log: LogConfig{
			Path: "logs/app.log",
		},
	}
}

func InitConfig(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// LoadConfig reads the YAML document at path on top of the built-in defaults.
// An empty path falls back to DefaultConfigPath, and a missing default file is
// not an error: the defaults already cover every field.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	p := strings.TrimSpace(path)
	explicit := p != ""
	if !explicit {
		p = DefaultConfigPath
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file failed: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %v", err)
	}

	cfg.normalize()
	return cfg, nil
}

// EnsureConfigInitialized 确保全局配置可用；未初始化时退回默认值。
func EnsureConfigInitialized() *Config {
	if AppConfig == nil {
		AppConfig = DefaultConfig()
	}
	return AppConfig
}

// normalize backfills fields an override file may have blanked out.
func (c *Config) normalize() {
	def := DefaultConfig()

	if strings.TrimSpace(c.Tool) == "" {
		c.Tool = def.Tool
	}
	if c.Train.Epochs <= 0 {
		c.Train.Epochs = def.Train.Epochs
	}
	if c.Train.ImageSize <= 0 {
		c.Train.ImageSize = def.Train.ImageSize
	}
	if c.Train.Batch <= 0 {
		c.Train.Batch = def.Train.Batch
	}
	if strings.TrimSpace(c.Train.Task) == "" {
		c.Train.Task = def.Train.Task
	}
	if strings.TrimSpace(c.Train.Mode) == "" {
		c.Train.Mode = def.Train.Mode
	}
	if strings.TrimSpace(c.Train.Project) == "" {
		c.Train.Project = def.Train.Project
	}
	if c.Benchmark.ImageSize <= 0 {
		c.Benchmark.ImageSize = def.Benchmark.ImageSize
	}
	if strings.TrimSpace(c.Benchmark.TrainRunsDir) == "" {
		c.Benchmark.TrainRunsDir = def.Benchmark.TrainRunsDir
	}
	if strings.TrimSpace(c.Benchmark.Device) == "" {
		c.Benchmark.Device = def.Benchmark.Device
	}
	if strings.TrimSpace(c.Benchmark.ResultsCSV) == "" {
		c.Benchmark.ResultsCSV = def.Benchmark.ResultsCSV
	}
	if strings.TrimSpace(c.Benchmark.FrozenMarker) == "" {
		c.Benchmark.FrozenMarker = def.Benchmark.FrozenMarker
	}
	if strings.TrimSpace(c.Log.Path) == "" {
		c.Log.Path = def.Log.Path
	}
}
