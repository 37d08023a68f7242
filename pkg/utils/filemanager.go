// =============================================================================
// POS Ledger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the batch driver:
//   - Working directory listing
//   - Source file decoding (utf-8, windows-1252, iso-8859-1)
//   - File archival (moving processed group files)
//   - Run summary generation
//
// ARCHIVAL STRATEGY:
//   - Files of a processed group are moved to the archive directory
//   - Skipped groups stay in the working directory for the next batch
//   - Optional YYYY/MM/DD subdirectories keep archives browsable
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a batch run.
type FileManager struct {
	// WorkingDir holds the downloaded exports of one batch.
	WorkingDir string

	// ArchiveDir receives processed group files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/rd5000_B01_P1_rd5000_20240115.csv
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether processed files are moved at all.
	ArchiveOnSuccess bool

	now func() time.Time
}

// NewFileManager creates a new FileManager for the given directories.
// Archiving is off until ArchiveOnSuccess is set.
func NewFileManager(workingDir, archiveDir string) *FileManager {
	return &FileManager{
		WorkingDir: workingDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// ListWorkingFiles returns the names of the regular files directly inside
// the working directory, sorted lexically. Subdirectories are ignored.
//
// RETURNS:
//   - A sorted slice of base names.
//   - An error if the directory cannot be read.
func (fm *FileManager) ListWorkingFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read working directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// =============================================================================
// SOURCE DECODING
// =============================================================================

// ReadSourceFile reads a whole export file and returns it as UTF-8 text.
//
// PARAMETERS:
//   - path: The file to read.
//   - encoding: "utf-8" (or empty), "windows-1252" or "iso-8859-1".
//
// RETURNS:
//   - The decoded content.
//   - An error if the file cannot be read or the encoding is unknown.
func ReadSourceFile(path, encoding string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "windows-1252", "cp1252":
		r = transform.NewReader(f, charmap.Windows1252.NewDecoder())
	case "iso-8859-1", "latin1":
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile moves a processed file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file (the original path when archiving is off).
//   - An error if archival fails.
func (fm *FileManager) ArchiveFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// RUN IDENTIFIERS
// =============================================================================

// NewRunID returns a fresh identifier attached to every log event of a run.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about one batch run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	DryRun    bool

	GroupsProcessed int
	GroupsSkipped   int
	GroupsFailed    int
	RowsWritten     int
	Mismatches      int
	RowFailures     int
	RejectedLines   int
	FilesArchived   int

	// SkippedGroups names each group without a detail file, "branch/pos/date".
	SkippedGroups []string
}

// Duration returns the elapsed run time.
func (s RunSummary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	name := fmt.Sprintf("run_summary_%s_%s.txt", timestamp, shortID(summary.RunID))
	summaryPath := filepath.Join(outputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	mode := "write"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(writer, "POS Ledger - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Groups Processed:   %d\n"+
		"  Groups Skipped:     %d\n"+
		"  Groups Failed:      %d\n"+
		"  Rows Written:       %d\n"+
		"  Date Mismatches:    %d\n"+
		"  Row Failures:       %d\n"+
		"  Rejected Ref Lines: %d\n"+
		"  Files Archived:     %d\n\n",
		summary.RunID,
		mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.Duration().String(),
		summary.GroupsProcessed,
		summary.GroupsSkipped,
		summary.GroupsFailed,
		summary.RowsWritten,
		summary.Mismatches,
		summary.RowFailures,
		summary.RejectedLines,
		summary.FilesArchived)

	if len(summary.SkippedGroups) > 0 {
		writer.WriteString("Skipped Groups (no detail file):\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, g := range summary.SkippedGroups {
			fmt.Fprintf(writer, "  %s\n", g)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "norun"
	}
	return id
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
