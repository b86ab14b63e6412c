package logengine

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RunSidecarJanitor periodically walks root removing .timecache sidecars
// whose log file no longer exists — left behind after a rotated file ages
// out of retention and gets deleted out from under its cache entry.
func RunSidecarJanitor(root string, interval time.Duration, stop <-chan struct{}, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			purgeOrphanedSidecars(root, log)
		}
	}
}

func purgeOrphanedSidecars(root string, log *zap.SugaredLogger) {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".timecache") {
			return nil
		}
		logPath := strings.TrimSuffix(path, ".timecache")
		if _, statErr := os.Stat(logPath); os.IsNotExist(statErr) {
			if removeErr := os.Remove(path); removeErr != nil {
				log.Warnf("sidecar janitor: failed to remove orphaned %s: %v", path, removeErr)
			} else {
				log.Debugf("sidecar janitor: removed orphaned cache %s", path)
			}
		}
		return nil
	})
	if err != nil {
		log.Warnf("sidecar janitor: walk of %s failed: %v", root, err)
	}
}
