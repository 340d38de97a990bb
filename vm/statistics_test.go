package vm

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
)

func sampleStats() *Statistics {
	st := NewStatistics()
	st.TotalCycles = 7
	st.Instructions = 2
	st.Stalls = 1
	st.CacheHits = 3
	st.CacheMisses = 1
	st.InstructionCounts["lw"] = 1
	st.InstructionCounts["add"] = 1
	return st
}

func TestStatisticsWriteJSON(t *testing.T) {
	var sb strings.Builder
	if err := sampleStats().WriteJSON(&sb); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded Statistics
	if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TotalCycles != 7 || decoded.Stalls != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !strings.Contains(sb.String(), "total_cycles") {
		t.Errorf("JSON should use snake_case keys:\n%s", sb.String())
	}
}

func TestStatisticsWriteCSV(t *testing.T) {
	var sb strings.Builder
	if err := sampleStats().WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if rows[0][0] != "metric" || rows[0][1] != "value" {
		t.Errorf("header = %v", rows[0])
	}
	found := false
	for _, row := range rows {
		if row[0] == "stalls" && row[1] == "1" {
			found = true
		}
	}
	if !found {
		t.Errorf("CSV missing stalls row:\n%s", sb.String())
	}
}

func TestStatisticsWriteUnknownFormat(t *testing.T) {
	var sb strings.Builder
	if err := sampleStats().Write(&sb, "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestStatisticsRates(t *testing.T) {
	st := sampleStats()
	if got := st.HitRate(); got != 0.75 {
		t.Errorf("HitRate = %f, want 0.75", got)
	}
	empty := NewStatistics()
	if empty.HitRate() != 0 || empty.Throughput() != 0 {
		t.Error("empty statistics should report zero rates")
	}
}
