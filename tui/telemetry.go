package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Telemetry is local-only: events append to an NDJSON file under the config
// dir so usage can be inspected or piped through jq. Nothing is uploaded.

type telemetryEvent struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Project   string            `json:"project,omitempty"`
	ItemID    string            `json:"item_id,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

type telemetryLogger struct {
	path      string
	sessionID string
	userID    string
	mu        sync.Mutex
}

func newTelemetryLogger(configDir string) *telemetryLogger {
	_ = os.MkdirAll(configDir, 0o755)
	return &telemetryLogger{
		path:      filepath.Join(configDir, "events.ndjson"),
		sessionID: newTelemetrySessionID(),
		userID:    resolveTelemetryUserID(),
	}
}

func (t *telemetryLogger) Emit(name, projectPath, itemID string) {
	t.EmitExtra(name, projectPath, itemID, nil)
}

func (t *telemetryLogger) EmitExtra(name, projectPath, itemID string, extra map[string]string) {
	if t == nil || strings.TrimSpace(name) == "" {
		return
	}
	event := telemetryEvent{
		SessionID: t.sessionID,
		UserID:    t.userID,
		Timestamp: time.Now().UTC(),
		Event:     name,
		ItemID:    itemID,
		Extra:     extra,
	}
	if projectPath != "" {
		event.Project = filepath.Base(projectPath)
	}
	if len(event.Extra) == 0 {
		event.Extra = nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

func newTelemetrySessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("%x", time.Now().UnixNano())
}

func resolveTelemetryUserID() string {
	candidates := []string{
		os.Getenv("VIBE_HUB_USER"),
		os.Getenv("USER"),
		os.Getenv("USERNAME"),
	}
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
