package entity

import (
	"fmt"
	"path"
	"path/filepath"
)

// TrainRun is one training launch: a dataset directory paired with a backbone
// freeze depth. Freeze zero means the whole network trains.
type TrainRun struct {
	DatasetDir string `json:"dataset_dir"`
	Freeze     int    `json:"freeze"`
}

func (r TrainRun) DatasetName() string {
	return filepath.Base(filepath.ToSlash(r.DatasetDir))
}

// RunName names the output directory under the training project dir.
func (r TrainRun) RunName() string {
	if r.Freeze > 0 {
		return fmt.Sprintf("%s_freeze_%d", r.DatasetName(), r.Freeze)
	}
	return r.DatasetName() + "_unfrozen"
}

func (r TrainRun) DataYAMLPath() string {
	return path.Join(filepath.ToSlash(r.DatasetDir), "data.yaml")
}
