// =============================================================================
// Spreadconnect Order Importer - File Utilities
// =============================================================================
//
// This module handles what happens to files around an import run:
//   - Archival of input files after a fully successful import
//   - Per-run submission error logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory only when every
//     order in the file was submitted successfully.
//   - Failed imports leave the input file where it is so the run can be
//     repeated after fixing the cause.
//
// =============================================================================

package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ARCHIVER
// =============================================================================

// Archiver moves processed input files into an archive directory.
type Archiver struct {
	// Dir is the archive root.
	Dir string

	// TimestampSubdirs creates date-based subdirectories,
	// e.g. input_archive/2026/08/24/orders.csv.
	TimestampSubdirs bool
}

// ArchiveInputFile moves a processed input file into the archive and
// returns its new path.
func (a *Archiver) ArchiveInputFile(filePath string) (string, error) {
	archivePath := a.archivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath constructs the destination path for an archived file.
func (a *Archiver) archivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if a.TimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			a.Dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(a.Dir, fileName)
}

// copyFile copies src to dst, preserving contents only.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry describes one failed order submission.
type ErrorLogEntry struct {
	Timestamp      time.Time
	OrderReference string
	Index          int
	Status         int
	Message        string
}

// WriteErrorLog writes submission failures to a uniquely named log file in
// dir and returns the log path. No entries, no file.
func WriteErrorLog(entries []ErrorLogEntry, dir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create error log directory: %w", err)
	}

	logName := fmt.Sprintf("import_errors_%s_%s.txt",
		time.Now().Format("20060102_150405"),
		uuid.New().String(),
	)
	logPath := filepath.Join(dir, logName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Spreadconnect Order Importer - Submission Errors\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Total Failures: %d\n\n", len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Failure #%d\n", i+1)
		fmt.Fprintf(writer, "  Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(writer, "  Order:      %s (input index %d)\n", entry.OrderReference, entry.Index)
		fmt.Fprintf(writer, "  Status:     %d\n", entry.Status)
		fmt.Fprintf(writer, "  Message:    %s\n\n", entry.Message)
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}

	return logPath, nil
}
