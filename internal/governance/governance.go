// Package governance persists per-run records for audit traceability.
package governance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Write stores the record as a timestamped JSON file under dir and returns
// the file path.
func Write(dir string, record any, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create governance dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("governance_%d.json", time.Now().Unix()))
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal governance record: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("write governance record: %w", err)
	}
	logger.Info("governance record saved", zap.String("path", path))
	return path, nil
}
