package entity

// BenchmarkRecord is one benchmarked checkpoint under one quantization
// profile. Pointer fields stay nil when the console output never produced the
// metric; size and mAP50-95 are required before a record is kept at all.
type BenchmarkRecord struct {
	Experiment      string   `json:"experiment"`
	Dataset         string   `json:"dataset"`
	Freeze          string   `json:"freeze"`
	Quantization    string   `json:"quantization"`
	Half            bool     `json:"half"`
	Int8            bool     `json:"int8"`
	ModelSizeMB     float64  `json:"model_size_mb"`
	MAP50           *float64 `json:"map50"`
	MAP5095         float64  `json:"map50_95"`
	InferenceTimeMS *float64 `json:"inference_time_ms"`
	FPS             *float64 `json:"fps"`
}

const (
	FreezeLabelFrozen   = "Frozen"
	FreezeLabelUnfrozen = "Unfrozen"
)
