package vm

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Statistics accumulates the observable counts of one run: retired
// instructions by mnemonic, stalls, cache behavior and the final throughput.
type Statistics struct {
	TotalCycles  uint64 `json:"total_cycles"`
	Instructions uint64 `json:"instructions"`
	Stalls       uint64 `json:"stalls"`

	CacheHits       uint64 `json:"cache_hits"`
	CacheMisses     uint64 `json:"cache_misses"`
	CacheFills      uint64 `json:"cache_fills"`
	CacheWritebacks uint64 `json:"cache_writebacks"`

	InstructionCounts map[string]uint64 `json:"instruction_counts"`
}

// NewStatistics creates an empty statistics sink.
func NewStatistics() *Statistics {
	return &Statistics{InstructionCounts: make(map[string]uint64)}
}

// retire records one retired instruction.
func (st *Statistics) retire(mnemonic string) {
	st.Instructions++
	st.InstructionCounts[mnemonic]++
}

// finish captures the end-of-run counters from the simulator.
func (st *Statistics) finish(s *Simulator) {
	st.TotalCycles = s.Cycle
	st.Stalls = s.StallCount
	st.CacheHits = s.DCache.Hits
	st.CacheMisses = s.DCache.Misses
	st.CacheFills = s.DCache.Fills
	st.CacheWritebacks = s.DCache.Writebacks
}

// Throughput is retired instructions per cycle.
func (st *Statistics) Throughput() float64 {
	if st.TotalCycles == 0 {
		return 0
	}
	return float64(st.Instructions) / float64(st.TotalCycles)
}

// HitRate is the fraction of cache accesses that hit.
func (st *Statistics) HitRate() float64 {
	total := st.CacheHits + st.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(st.CacheHits) / float64(total)
}

// Write renders the statistics in the requested format: "json", "csv" or
// "text".
func (st *Statistics) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		return st.WriteJSON(w)
	case "csv":
		return st.WriteCSV(w)
	case "text":
		return st.WriteText(w)
	default:
		return fmt.Errorf("unknown statistics format %q (want json, csv or text)", format)
	}
}

// WriteJSON writes the statistics as indented JSON.
func (st *Statistics) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

// WriteCSV writes the statistics as metric,value rows.
func (st *Statistics) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"total_cycles", strconv.FormatUint(st.TotalCycles, 10)},
		{"instructions", strconv.FormatUint(st.Instructions, 10)},
		{"stalls", strconv.FormatUint(st.Stalls, 10)},
		{"cache_hits", strconv.FormatUint(st.CacheHits, 10)},
		{"cache_misses", strconv.FormatUint(st.CacheMisses, 10)},
		{"cache_fills", strconv.FormatUint(st.CacheFills, 10)},
		{"cache_writebacks", strconv.FormatUint(st.CacheWritebacks, 10)},
		{"throughput", strconv.FormatFloat(st.Throughput(), 'f', 4, 64)},
	}
	for _, name := range st.sortedMnemonics() {
		rows = append(rows, []string{"count_" + name, strconv.FormatUint(st.InstructionCounts[name], 10)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes the human-readable end-of-run summary.
func (st *Statistics) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "cycles:           %d\n", st.TotalCycles)
	fmt.Fprintf(w, "instructions:     %d\n", st.Instructions)
	fmt.Fprintf(w, "stalls:           %d\n", st.Stalls)
	fmt.Fprintf(w, "cache hits:       %d\n", st.CacheHits)
	fmt.Fprintf(w, "cache misses:     %d\n", st.CacheMisses)
	fmt.Fprintf(w, "cache writebacks: %d\n", st.CacheWritebacks)
	fmt.Fprintf(w, "hit rate:         %.2f\n", st.HitRate())
	fmt.Fprintf(w, "throughput:       %.4f\n", st.Throughput())
	for _, name := range st.sortedMnemonics() {
		fmt.Fprintf(w, "  %-8s %d\n", name, st.InstructionCounts[name])
	}
	return nil
}

func (st *Statistics) sortedMnemonics() []string {
	names := make([]string, 0, len(st.InstructionCounts))
	for name := range st.InstructionCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
