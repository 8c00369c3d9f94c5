package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Jesteban247/Med-vision-detect/config"
	"github.com/Jesteban247/Med-vision-detect/entity"
)

var (
	ErrNoTrainDatasets = errors.New("no train datasets configured")
	ErrNoFreezeOptions = errors.New("no freeze options configured")
)

// ExperimentService launches one training subprocess per dataset and freeze
// setting, strictly in order. A failing run does not stop the sweep.
type ExperimentService struct {
	Tool   string
	Train  config.TrainConfig
	runner commandRunner
}

func NewExperimentService() *ExperimentService {
	cfg := config.EnsureConfigInitialized()
	return &ExperimentService{
		Tool:   cfg.Tool,
		Train:  cfg.Train,
		runner: newExecCommandRunner(),
	}
}

func (s *ExperimentService) RunAll() error {
	logger := serviceLogger().With("service", "ExperimentService", "method", "RunAll")

	if s.runner == nil {
		logger.Warn("run all failed: command runner is nil")
		return ErrCommandRunnerNil
	}
	if len(s.Train.Datasets) == 0 {
		logger.Warn("run all failed: no datasets configured")
		return ErrNoTrainDatasets
	}
	if len(s.Train.FreezeOptions) == 0 {
		logger.Warn("run all failed: no freeze options configured")
		return ErrNoFreezeOptions
	}

	logger.Info(
		"training sweep begin",
		"tool", s.Tool,
		"datasets", len(s.Train.Datasets),
		"freeze_options", len(s.Train.FreezeOptions),
	)

	for _, dataset := range s.Train.Datasets {
		dir := strings.TrimSpace(dataset)
		if dir == "" {
			logger.Warn("skip blank dataset entry")
			continue
		}
		for _, freeze := range s.Train.FreezeOptions {
			s.launch(entity.TrainRun{DatasetDir: dir, Freeze: freeze})
		}
	}

	logger.Info("training sweep done")
	return nil
}

func (s *ExperimentService) launch(run entity.TrainRun) {
	logger := serviceLogger().With(
		"service", "ExperimentService",
		"method", "launch",
		"session_id", uuid.NewString(),
	)

	args := s.buildArgs(run)

	logger.Info("train run begin", "run_name", run.RunName(), "dataset", run.DatasetName(), "freeze", run.Freeze)
	fmt.Printf("Running: %s %s\n", s.Tool, strings.Join(args, " "))

	if err := s.runner.Stream(s.Tool, args); err != nil {
		// 单次训练失败不影响后续实验
		logger.Warn("train run exited with error", "run_name", run.RunName(), "exit_code", exitCodeOf(err), "error", err)
		return
	}
	logger.Info("train run success", "run_name", run.RunName())
}

// buildArgs keeps the tool's key=value argument order: fixed hyperparameters,
// freeze only when non-zero, then project and run name.
func (s *ExperimentService) buildArgs(run entity.TrainRun) []string {
	args := []string{
		"task=" + s.Train.Task,
		"mode=" + s.Train.Mode,
		"model=" + s.Train.Model,
		"data=" + run.DataYAMLPath(),
		"epochs=" + strconv.Itoa(s.Train.Epochs),
		"imgsz=" + strconv.Itoa(s.Train.ImageSize),
		"batch=" + strconv.Itoa(s.Train.Batch),
		"amp=" + strconv.FormatBool(s.Train.AMP),
		"plots=" + strconv.FormatBool(s.Train.Plots),
		"device=" + s.Train.Device,
	}
	if run.Freeze > 0 {
		args = append(args, "freeze="+strconv.Itoa(run.Freeze))
	}
	args = append(args,
		"project="+s.Train.Project,
		"name="+run.RunName(),
	)
	return args
}
