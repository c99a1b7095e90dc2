package governance

import (
	"encoding/json"
	"os"
	"testing"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	record := map[string]any{"run_id": "r-1", "status": "success"}

	path, err := Write(dir, record, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if loaded["run_id"] != "r-1" {
		t.Fatalf("unexpected record: %v", loaded)
	}
}
