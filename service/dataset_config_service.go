package service

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrDatasetConfigPathRequired = errors.New("dataset config path is required")

// DatasetConfigService rewrites a dataset's data.yaml so the external tool
// validates on the test split, and undoes the rewrite afterwards.
type DatasetConfigService struct{}

func NewDatasetConfigService() *DatasetConfigService {
	return &DatasetConfigService{}
}

// UseTestSplit points the val split at the test split when the document has
// one, and returns a guard that restores the original document state. The
// guard must be restored on every exit path; without a test split the
// document is left untouched and the guard is a no-op.
func (s *DatasetConfigService) UseTestSplit(configPath string) (*DatasetConfigGuard, error) {
	logger := serviceLogger().With("service", "DatasetConfigService", "method", "UseTestSplit")

	p := strings.TrimSpace(configPath)
	if p == "" {
		logger.Warn("use test split failed: config path is empty")
		return nil, ErrDatasetConfigPathRequired
	}

	doc, err := readYAMLMapping(p)
	if err != nil {
		logger.Error("use test split failed: read dataset config failed", "path", p, "error", err)
		return nil, err
	}

	originalVal, hadVal := doc["val"]
	guard := &DatasetConfigGuard{
		path:        p,
		originalVal: originalVal,
		hadVal:      hadVal,
	}

	testVal, hasTest := doc["test"]
	if !hasTest {
		logger.Warn("dataset config has no test split, val left unchanged", "path", p)
		return guard, nil
	}

	doc["val"] = testVal
	if err := writeYAMLMapping(p, doc); err != nil {
		logger.Error("use test split failed: write dataset config failed", "path", p, "error", err)
		return nil, err
	}
	guard.mutated = true

	logger.Info("dataset config now validates on test split", "path", p)
	return guard, nil
}

// DatasetConfigGuard remembers the val entry as it was before UseTestSplit.
// Restore is idempotent and safe on a nil guard.
type DatasetConfigGuard struct {
	path        string
	originalVal any
	hadVal      bool
	mutated     bool
	restored    bool
}

func (g *DatasetConfigGuard) Restore() error {
	if g == nil || !g.mutated || g.restored {
		return nil
	}
	g.restored = true

	logger := serviceLogger().With("service", "DatasetConfigService", "method", "Restore")

	doc, err := readYAMLMapping(g.path)
	if err != nil {
		logger.Error("restore failed: read dataset config failed", "path", g.path, "error", err)
		return err
	}

	if g.hadVal {
		doc["val"] = g.originalVal
	} else {
		delete(doc, "val")
	}

	if err := writeYAMLMapping(g.path, doc); err != nil {
		logger.Error("restore failed: write dataset config failed", "path", g.path, "error", err)
		return err
	}

	logger.Info("dataset config restored", "path", g.path)
	return nil
}

func readYAMLMapping(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset config failed: %w", err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal dataset config failed: %w", err)
	}
	return doc, nil
}

func writeYAMLMapping(path string, doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal dataset config failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset config failed: %w", err)
	}
	return nil
}
