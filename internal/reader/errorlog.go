package reader

import (
	"bufio"
	"os"
	"strings"

	"go.uber.org/zap"
)

// errorLogName is the per-folder list of files known to be broken.
// Format: one "<filename>: <message>" entry per line.
const errorLogName = "error.log"

// readErrorLog returns the lowercased file names listed in an error log.
// A missing or unreadable log yields an empty set; malformed lines are
// reported and ignored.
func readErrorLog(path string, logger *zap.Logger) map[string]struct{} {
	skip := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("could not read error log", zap.String("path", path), zap.Error(err))
		return skip
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			logger.Warn("malformed error log line",
				zap.String("path", path),
				zap.Int("line", lineNum),
				zap.String("content", strings.TrimSpace(line)),
			)
			continue
		}
		name := strings.TrimSpace(line[:idx])
		if name == "" {
			logger.Warn("error log line has empty filename",
				zap.String("path", path),
				zap.Int("line", lineNum),
			)
			continue
		}
		skip[strings.ToLower(name)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("could not read error log", zap.String("path", path), zap.Error(err))
	}
	return skip
}
