package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/Aman-CERP/docrag/internal/store"
)

// MinDiskSpaceBytes is the headroom the vector store needs beyond any
// existing collection database (100MB).
const MinDiskSpaceBytes = 100 * 1024 * 1024

// requiredDiskSpace is the free space a rebuild in dir needs. Replacing a
// collection runs in one transaction, so the write-ahead log can grow to the
// size of the current database.
func requiredDiskSpace(dir string) uint64 {
	required := uint64(MinDiskSpaceBytes)
	if info, err := os.Stat(filepath.Join(dir, store.DatabaseName)); err == nil {
		required += uint64(info.Size())
	}
	return required
}

// CheckDiskSpace checks the free space where the vector store lives.
func (c *Checker) CheckDiskSpace(dir string) CheckResult {
	result := CheckResult{Name: "disk_space", Required: true}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(nearestExisting(dir), &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	available := stat.Bavail * uint64(stat.Bsize)
	required := requiredDiskSpace(dir)
	result.Message = fmt.Sprintf("%s free (needs %s)", formatBytes(available), formatBytes(required))
	if available < required {
		result.Status = StatusFail
		return result
	}
	result.Status = StatusPass
	return result
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
