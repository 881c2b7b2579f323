package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Doc statuses recorded in the report.
const (
	StatusRendered  = "rendered"
	StatusUnchanged = "unchanged"
	StatusInvalid   = "invalid"
	StatusPruned    = "pruned"
)

type ReportSignal struct {
	Code     string `json:"code"`
	Stage    string `json:"stage"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type DocMetric struct {
	ID         string   `json:"id"`
	SourcePath string   `json:"source_path,omitempty"`
	Status     string   `json:"status"`
	Sections   []string `json:"sections,omitempty"`
	Bytes      int      `json:"bytes"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	DocCount          int            `json:"doc_count"`
	FailedStages      int            `json:"failed_stages"`
	DocsByStatus      map[string]int `json:"docs_by_status"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// Report records what one build did. It is written next to the rendered
// docs as pipeline_report.json.
type Report struct {
	Version     string         `json:"version"`
	GeneratedAt string         `json:"generated_at"`
	InputRoot   string         `json:"input_root"`
	OutputDir   string         `json:"output_dir"`
	Stages      []StageMetric  `json:"stages"`
	Docs        []DocMetric    `json:"docs,omitempty"`
	Signals     []ReportSignal `json:"signals,omitempty"`
	Summary     ReportSummary  `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewReport(inputRoot, outputDir string) *Report {
	return &Report{
		Version:     "v1",
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		InputRoot:   inputRoot,
		OutputDir:   outputDir,
		Stages:      []StageMetric{},
		Docs:        []DocMetric{},
		Signals:     []ReportSignal{},
	}
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *Report) EndStage(h StageHandle, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *Report) AddDoc(m DocMetric) {
	if r == nil || strings.TrimSpace(m.ID) == "" {
		return
	}
	r.Docs = append(r.Docs, m)
}

// Count returns how many docs were recorded with status.
func (r *Report) Count(status string) int {
	n := 0
	for _, d := range r.Docs {
		if d.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})

	severityCount := map[string]int{
		"critical": 0,
		"warning":  0,
		"info":     0,
	}
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	byStatus := map[string]int{}
	for _, d := range r.Docs {
		byStatus[d.Status]++
	}

	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		DocCount:          len(r.Docs),
		FailedStages:      failed,
		DocsByStatus:      byStatus,
		SignalsBySeverity: severityCount,
	}
}

func (r *Report) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
