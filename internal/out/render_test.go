package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalez94/neartx/internal/config"
	"github.com/ggonzalez94/neartx/internal/model"
)

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"public_key": "ed25519:abc", "nonce": 2}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"nonce"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["nonce"].(float64) != 2 {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["public_key"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderPlainFlattensNestedData(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data: map[string]any{
			"kind": "submitted",
			"transaction": map[string]any{
				"signer_id": "alice.testnet",
				"nonce":     1000000000000001,
				"actions":   []any{map[string]any{"kind": "Transfer", "deposit": "10"}},
			},
			"memo": "two words",
		},
		Meta: model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	line := buf.String()
	for _, want := range []string{
		"kind=submitted",
		"transaction.signer_id=alice.testnet",
		"transaction.nonce=1000000000000001",
		"transaction.actions.0.kind=Transfer",
		`memo="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in plain output: %s", want, line)
		}
	}
}

func TestRenderPlainList(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"name": "x"}, {"name": "y"}},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, config.Settings{OutputMode: "plain", ResultsOnly: true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "name=x" || lines[1] != "name=y" {
		t.Fatalf("unexpected plain output: %q", buf.String())
	}
}

func TestRenderSelectDottedPaths(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data: map[string]any{
			"transaction_hash": "abc",
			"transaction": map[string]any{
				"nonce":   42,
				"actions": []any{map[string]any{"type": "Transfer"}},
			},
		},
	}
	settings := config.Settings{OutputMode: "json", ResultsOnly: true, SelectFields: []string{"transaction_hash", "transaction.nonce", "transaction.actions.0.type", "missing.path"}}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 3 || out["transaction.nonce"].(float64) != 42 || out["transaction.actions.0.type"] != "Transfer" {
		t.Fatalf("unexpected projection: %s", buf.String())
	}
}

func TestRenderPlainEnvelopeWithWarnings(t *testing.T) {
	env := model.Envelope{
		Version:  "v1",
		Success:  false,
		Data:     map[string]any{"payload_base64": "AAA="},
		Error:    &model.ErrorBody{Code: 12, Type: "network_transport_error", Message: "connection reset"},
		Warnings: []string{"rpc endpoint http://x is not using https"},
		Meta:     model.EnvelopeMeta{Command: "construct-transaction", RequestID: "r1", Network: "custom"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, config.Settings{OutputMode: "plain"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected status, warning and data lines, got %q", buf.String())
	}
	for _, want := range []string{"success=false", "command=construct-transaction", "error.code=12", `error.message="connection reset"`, "network=custom"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("missing %q in status line: %s", want, lines[0])
		}
	}
	if lines[1] != "warning: rpc endpoint http://x is not using https" {
		t.Fatalf("unexpected warning line: %s", lines[1])
	}
	if lines[2] != "payload_base64=AAA=" && lines[2] != `payload_base64="AAA="` {
		t.Fatalf("unexpected data line: %s", lines[2])
	}
}
