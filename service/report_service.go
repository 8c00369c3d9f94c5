package service

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Jesteban247/Med-vision-detect/dao"
	"github.com/Jesteban247/Med-vision-detect/entity"
)

var ErrResultDAONil = errors.New("benchmark result dao is nil")

// ReportService turns collected benchmark rows into the CSV artifact and the
// grouped console summaries.
type ReportService struct {
	DAO *dao.BenchmarkResultDAO
}

func NewReportService() *ReportService {
	return &ReportService{DAO: dao.NewBenchmarkResultDAO()}
}

// Publish sorts the rows, persists them through the dao and prints the two
// summary tables. Zero rows print a diagnostic and write nothing.
func (s *ReportService) Publish(records []entity.BenchmarkRecord) error {
	logger := serviceLogger().With("service", "ReportService", "method", "Publish")

	if len(records) == 0 {
		logger.Warn("no benchmark rows collected")
		fmt.Println("\n❌ No results collected. Check if models exist and benchmarks ran successfully.")
		fmt.Println("💡 Possible issues: Missing dependencies (e.g., ONNX for INT8), invalid data paths, or GPU issues.")
		return nil
	}
	if s.DAO == nil {
		logger.Warn("publish failed: result dao is nil")
		return ErrResultDAONil
	}

	sorted := sortRecords(records)

	if err := s.DAO.SaveAll(sorted); err != nil {
		logger.Error("save benchmark results failed", "error", err)
		return err
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("✅ Benchmark complete! Results saved to: %s\n", s.DAO.Path)
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("\n📊 Summary Statistics:")
	fmt.Print(summaryByDatasetQuant(sorted))

	fmt.Println("\n📈 Quantization Impact (Average across all experiments):")
	fmt.Print(summaryByQuant(sorted))

	logger.Info("report published", "path", s.DAO.Path, "rows", len(sorted))
	return nil
}

// sortRecords orders rows by dataset, freeze label and quantization name,
// keeping the collection order among equals.
func sortRecords(records []entity.BenchmarkRecord) []entity.BenchmarkRecord {
	sorted := make([]entity.BenchmarkRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Freeze != b.Freeze {
			return a.Freeze < b.Freeze
		}
		return a.Quantization < b.Quantization
	})
	return sorted
}

type summaryColumn struct {
	header string
	value  func(entity.BenchmarkRecord) *float64
}

func summaryByDatasetQuant(records []entity.BenchmarkRecord) string {
	return groupedMeanTable(
		records,
		[]string{"Dataset", "Quantization"},
		func(r entity.BenchmarkRecord) []string { return []string{r.Dataset, r.Quantization} },
		[]summaryColumn{
			{header: "mAP50", value: func(r entity.BenchmarkRecord) *float64 { return r.MAP50 }},
			{header: "mAP50-95", value: func(r entity.BenchmarkRecord) *float64 { return &r.MAP5095 }},
			{header: "FPS", value: func(r entity.BenchmarkRecord) *float64 { return r.FPS }},
			{header: "Inference_Time_ms", value: func(r entity.BenchmarkRecord) *float64 { return r.InferenceTimeMS }},
		},
	)
}

func summaryByQuant(records []entity.BenchmarkRecord) string {
	return groupedMeanTable(
		records,
		[]string{"Quantization"},
		func(r entity.BenchmarkRecord) []string { return []string{r.Quantization} },
		[]summaryColumn{
			{header: "mAP50", value: func(r entity.BenchmarkRecord) *float64 { return r.MAP50 }},
			{header: "mAP50-95", value: func(r entity.BenchmarkRecord) *float64 { return &r.MAP5095 }},
			{header: "FPS", value: func(r entity.BenchmarkRecord) *float64 { return r.FPS }},
			{header: "Inference_Time_ms", value: func(r entity.BenchmarkRecord) *float64 { return r.InferenceTimeMS }},
			{header: "Model_Size_MB", value: func(r entity.BenchmarkRecord) *float64 { return &r.ModelSizeMB }},
		},
	)
}

// groupedMeanTable renders per-group column means, groups in key order.
// Missing values are skipped; a column with no values in a group prints NaN.
func groupedMeanTable(records []entity.BenchmarkRecord, keyHeaders []string, keyOf func(entity.BenchmarkRecord) []string, columns []summaryColumn) string {
	groups := map[string][]entity.BenchmarkRecord{}
	keyParts := map[string][]string{}
	var keys []string

	for _, r := range records {
		parts := keyOf(r)
		k := strings.Join(parts, "\x1f")
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
			keyParts[k] = parts
		}
		groups[k] = append(groups[k], r)
	}
	sort.Strings(keys)

	headers := append([]string{}, keyHeaders...)
	for _, col := range columns {
		headers = append(headers, col.header)
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, k := range keys {
		cells := append([]string{}, keyParts[k]...)
		for _, col := range columns {
			cells = append(cells, formatMean(groups[k], col.value))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	return buf.String()
}

func formatMean(records []entity.BenchmarkRecord, value func(entity.BenchmarkRecord) *float64) string {
	sum := 0.0
	count := 0
	for _, r := range records {
		if v := value(r); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return "NaN"
	}
	return strconv.FormatFloat(sum/float64(count), 'f', 6, 64)
}
