package domain

import "testing"

func TestUploadedFileExtension(t *testing.T) {
	cases := map[string]string{
		"cv.PDF":         "pdf",
		"my.resume.docx": "docx",
		"notes.txt":      "txt",
		"README":         "readme",
		"archive.tar.GZ": "gz",
		"trailing.":      "",
	}
	for name, want := range cases {
		if got := (UploadedFile{Name: name}).Extension(); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestUploadedFileBaseName(t *testing.T) {
	cases := map[string]string{
		"cv.pdf":            "cv.pdf",
		"../../etc/cv.pdf":  "cv.pdf",
		`C:\Users\me\a.pdf`: "a.pdf",
	}
	for name, want := range cases {
		if got := (UploadedFile{Name: name}).BaseName(); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestBatchReportWarnings(t *testing.T) {
	report := &BatchReport{Outcomes: []FileOutcome{
		{Filename: "a.pdf", Status: FileStatusFiled},
		{Filename: "b.txt", Status: FileStatusSkippedUnsupported},
		{Filename: "c.pdf", Status: FileStatusFailedExtract, Warning: "corrupt"},
		{Filename: "d.pdf", Status: FileStatusFailedWrite, Warning: "disk full"},
	}}
	warnings := report.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", warnings)
	}
	if warnings[0].Filename != "c.pdf" || warnings[1].Filename != "d.pdf" {
		t.Fatalf("unexpected warnings order: %+v", warnings)
	}
}
