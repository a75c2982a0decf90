package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
)

const telemetryFilename = "telemetry.jsonl"

type telemetryRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Command         string    `json:"command"`
	RunID           string    `json:"run_id"`
	Target          string    `json:"target"`
	Status          string    `json:"status"`
	TestsTotal      int       `json:"tests_total"`
	TestsPassed     int       `json:"tests_passed"`
	FindingsCount   int       `json:"findings_count"`
	CriticalCount   int       `json:"critical_count"`
	RequestsSent    int       `json:"requests_sent"`
	ConfidenceScore *float64  `json:"confidence_score"`
	Grade           string    `json:"grade,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// recordTelemetry appends one line describing run to <dir>/telemetry.jsonl.
func recordTelemetry(dir, command string, run *scan.Run, a scan.Assessment, duration time.Duration) error {
	record := telemetryRecord{
		Timestamp:       time.Now().UTC(),
		Command:         command,
		RunID:           run.ID(),
		Target:          run.Target(),
		Status:          string(run.Status()),
		TestsTotal:      a.TestsTotal,
		TestsPassed:     a.TestsPassed,
		FindingsCount:   len(a.Findings),
		CriticalCount:   a.Tally.Critical,
		RequestsSent:    run.RequestsSent(),
		DurationSeconds: duration.Seconds(),
	}
	if a.Scored {
		score := a.ConfidenceScore
		record.ConfidenceScore = &score
		record.Grade = string(a.Grade)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	telemetryPath := filepath.Join(dir, telemetryFilename)
	f, err := os.OpenFile(telemetryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}

	return nil
}
