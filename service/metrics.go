package service

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches the unsigned numeric tokens the external tool prints
// in its tables.
var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// ValidationSummary carries the two mAP columns scraped from the aggregate
// "all" row of the tool's validation table. Both fields are set together or
// not at all.
type ValidationSummary struct {
	MAP50   *float64
	MAP5095 *float64
}

// BenchmarkTableRow carries the PyTorch row of the tool's benchmark table.
type BenchmarkTableRow struct {
	SizeMB          *float64
	MAP5095         *float64
	InferenceTimeMS *float64
	FPS             *float64
}

// ParseValidationSummary scans console output line by line for the first
// "all" row holding at least six numeric tokens and reads mAP50 and mAP50-95
// from the fifth and sixth. Lines that fail to parse are skipped and the
// scan continues.
func ParseValidationSummary(output string) ValidationSummary {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(strings.ToLower(line), "all") {
			continue
		}
		if !strings.ContainsAny(line, "0123456789") {
			continue
		}

		tokens := numberPattern.FindAllString(line, -1)
		if len(tokens) < 6 {
			continue
		}

		map50, err := strconv.ParseFloat(tokens[4], 64)
		if err != nil {
			continue
		}
		map5095, err := strconv.ParseFloat(tokens[5], 64)
		if err != nil {
			continue
		}
		return ValidationSummary{MAP50: &map50, MAP5095: &map5095}
	}
	return ValidationSummary{}
}

// ParseBenchmarkTable scans console output for the first PyTorch row of the
// benchmark table, recognized by the export checkmark and the table pipe,
// and reads size, mAP50-95, inference time and FPS from its second through
// fifth numeric tokens.
func ParseBenchmarkTable(output string) BenchmarkTableRow {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "PyTorch") {
			continue
		}
		if !strings.Contains(line, "✅") || !strings.Contains(line, "|") {
			continue
		}

		tokens := numberPattern.FindAllString(line, -1)
		if len(tokens) < 5 {
			continue
		}

		sizeMB, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil {
			continue
		}
		map5095, err := strconv.ParseFloat(tokens[2], 64)
		if err != nil {
			continue
		}
		inferenceMS, err := strconv.ParseFloat(tokens[3], 64)
		if err != nil {
			continue
		}
		fps, err := strconv.ParseFloat(tokens[4], 64)
		if err != nil {
			continue
		}
		return BenchmarkTableRow{
			SizeMB:          &sizeMB,
			MAP5095:         &map5095,
			InferenceTimeMS: &inferenceMS,
			FPS:             &fps,
		}
	}
	return BenchmarkTableRow{}
}
