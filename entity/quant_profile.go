package entity

// QuantProfile is one quantization setting a checkpoint is benchmarked under.
type QuantProfile struct {
	Name string `yaml:"name" json:"name"`
	Half bool   `yaml:"half" json:"half"`
	Int8 bool   `yaml:"int8" json:"int8"`
}
