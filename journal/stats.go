package journal

import (
	"os"
	"path/filepath"
	"time"
)

// Stats summarizes the on-disk journal.
type Stats struct {
	TotalFiles      int
	TotalSizeBytes  int64
	OldestFile      time.Time
	NewestFile      time.Time
	CurrentFileSize int64
	LastSequence    int64
}

// GetStats returns current journal statistics.
func (j *Journal) GetStats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	stats := Stats{
		LastSequence:    j.sequence,
		CurrentFileSize: j.size,
	}

	files, err := filepath.Glob(filepath.Join(j.dir, "frugal-*.journal"))
	if err != nil {
		return stats
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.TotalFiles++
		stats.TotalSizeBytes += info.Size()
		mod := info.ModTime()
		if stats.OldestFile.IsZero() || mod.Before(stats.OldestFile) {
			stats.OldestFile = mod
		}
		if mod.After(stats.NewestFile) {
			stats.NewestFile = mod
		}
	}
	return stats
}
