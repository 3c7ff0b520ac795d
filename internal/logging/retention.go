package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

type RetentionPolicy struct {
	RetentionDays int
}

// RetentionManager deletes rotated copies of a log file. The live file is
// never touched.
type RetentionManager struct {
	policy *RetentionPolicy
	now    func() time.Time
}

func NewRetentionManager(retentionDays int) *RetentionManager {
	return &RetentionManager{
		policy: &RetentionPolicy{RetentionDays: retentionDays},
		now:    time.Now,
	}
}

// Cleanup removes rotated files for logPath older than the retention period
// and returns how many were removed. A non-positive period keeps everything.
func (rm *RetentionManager) Cleanup(logPath string) (int, error) {
	if rm.policy.RetentionDays <= 0 {
		return 0, nil
	}

	dir := filepath.Dir(logPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	ext := filepath.Ext(logPath)
	prefix := strings.TrimSuffix(filepath.Base(logPath), ext) + "-"
	cutoff := rm.now().AddDate(0, 0, -rm.policy.RetentionDays)

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, name)); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}
