package domain

import (
	"path"
	"strings"
	"time"
)

// UploadedFile is one resume handed to the filing pipeline.
type UploadedFile struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// Extension returns the lower-cased segment after the final dot of the name.
// A name without a dot yields the whole name lower-cased.
func (f UploadedFile) Extension() string {
	name := f.Name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

// BaseName strips any directory components a client may have sent with the filename.
func (f UploadedFile) BaseName() string {
	name := strings.ReplaceAll(f.Name, "\\", "/")
	return path.Base(name)
}

type ResultRecord struct {
	Filename string `json:"Filename"`
	Category string `json:"Category"`
}

type FileStatus string

const (
	FileStatusFiled              FileStatus = "filed"
	FileStatusSkippedUnsupported FileStatus = "skipped_unsupported"
	FileStatusSkippedEmpty       FileStatus = "skipped_empty"
	FileStatusFailedExtract      FileStatus = "failed_extract"
	FileStatusFailedClassify     FileStatus = "failed_classify"
	FileStatusFailedWrite        FileStatus = "failed_write"
)

// Failed reports whether the status carries a warning for the caller.
func (s FileStatus) Failed() bool {
	switch s {
	case FileStatusFailedExtract, FileStatusFailedClassify, FileStatusFailedWrite:
		return true
	default:
		return false
	}
}

// FileOutcome describes what happened to a single input file.
type FileOutcome struct {
	Filename string     `json:"filename"`
	Status   FileStatus `json:"status"`
	Category string     `json:"category,omitempty"`
	Code     int        `json:"code,omitempty"`
	Path     string     `json:"path,omitempty"`
	Warning  string     `json:"warning,omitempty"`
}

type BatchReport struct {
	ID         string         `json:"batch_id"`
	OutputDir  string         `json:"output_dir"`
	Records    []ResultRecord `json:"results"`
	Outcomes   []FileOutcome  `json:"outcomes"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Warnings returns the outcomes that failed for a reason other than missing text.
func (r *BatchReport) Warnings() []FileOutcome {
	out := make([]FileOutcome, 0)
	for _, o := range r.Outcomes {
		if o.Status.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// FeatureVector is a sparse numeric representation of cleaned text.
// Indices are sorted ascending and unique.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// ResumeFiledEvent is published after a resume lands in its category folder.
type ResumeFiledEvent struct {
	BatchID  string    `json:"batch_id"`
	Filename string    `json:"filename"`
	Category string    `json:"category"`
	Code     int       `json:"code"`
	Path     string    `json:"path"`
	FiledAt  time.Time `json:"filed_at"`
}
