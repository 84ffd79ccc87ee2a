package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/FoamNest/internal/model"
)

// JobVersion is the job file format version written by SaveJob.
const JobVersion = "1.0.0"

// Job is a saved nesting job: its settings, input parts and the results of
// the last run.
type Job struct {
	Version       string                   `json:"version"`
	CreatedAt     string                   `json:"created_at"`
	Name          string                   `json:"name"`
	Settings      model.NestSettings       `json:"settings"`
	Parts         []model.Part             `json:"parts"`
	PolygonParts  []model.PolygonPart      `json:"polygon_parts,omitempty"`
	RectResult    *model.NestResult        `json:"rect_result,omitempty"`
	PolygonResult *model.PolygonNestResult `json:"polygon_result,omitempty"`
}

// NewJob creates a job with the current format version.
func NewJob(name string, settings model.NestSettings) Job {
	return Job{
		Version:  JobVersion,
		Name:     name,
		Settings: settings,
		Parts:    []model.Part{},
	}
}

// SaveJob writes the job as JSON, stamping CreatedAt when it is empty.
func SaveJob(path string, job Job) error {
	if job.Version == "" {
		job.Version = JobVersion
	}
	if job.CreatedAt == "" {
		job.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := writeJSON(path, job); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}
	return nil
}

// LoadJob reads a job file written by SaveJob.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("failed to read job file: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("failed to parse job file: %w", err)
	}
	if job.Version == "" {
		return Job{}, fmt.Errorf("invalid job file: missing version field")
	}
	if job.Parts == nil {
		job.Parts = []model.Part{}
	}
	return job, nil
}
