package out

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ggonzalez94/neartx/internal/config"
	"github.com/ggonzalez94/neartx/internal/model"
)

// Render writes env as indented JSON or as key=value lines. --select fields
// may be dotted paths into nested data, e.g. transaction.nonce.
func Render(w io.Writer, env model.Envelope, settings config.Settings) error {
	data := normalizeValue(env.Data)
	if len(settings.SelectFields) > 0 {
		data = project(data, settings.SelectFields)
	}

	if settings.OutputMode == "json" {
		if settings.ResultsOnly {
			return writeJSON(w, data)
		}
		env.Data = data
		return writeJSON(w, env)
	}

	if settings.ResultsOnly {
		return writePlain(w, data)
	}
	return writePlainEnvelope(w, env, data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePlainEnvelope prints a status line, one line per warning, then the data.
func writePlainEnvelope(w io.Writer, env model.Envelope, data any) error {
	status := map[string]any{
		"success":    env.Success,
		"command":    env.Meta.Command,
		"request_id": env.Meta.RequestID,
	}
	if env.Meta.Network != "" {
		status["network"] = env.Meta.Network
	}
	if env.Meta.Cache.Status != "" && env.Meta.Cache.Status != "bypass" {
		status["cache"] = env.Meta.Cache.Status
		status["stale"] = env.Meta.Cache.Stale
	}
	if env.Error != nil {
		status["error"] = normalizeValue(env.Error)
	}
	if err := writeLine(w, status); err != nil {
		return err
	}
	for _, warning := range env.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return writePlain(w, data)
}

func writePlain(w io.Writer, data any) error {
	items, ok := data.([]any)
	if !ok {
		return writeLine(w, data)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}
	for _, item := range items {
		if err := writeLine(w, item); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, v any) error {
	line, err := toLine(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, line)
	return err
}

func project(data any, fields []string) any {
	switch t := data.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, projectMap(m, fields))
			}
		}
		return out
	case map[string]any:
		return projectMap(t, fields)
	default:
		return data
	}
}

func projectMap(m map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := lookup(m, f); ok {
			out[f] = v
		}
	}
	return out
}

func lookup(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}
	switch child := m[head].(type) {
	case map[string]any:
		return lookup(child, rest)
	case []any:
		idx, tail, _ := strings.Cut(rest, ".")
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(child) {
			return nil, false
		}
		if tail == "" {
			return child[i], true
		}
		if cm, ok := child[i].(map[string]any); ok {
			return lookup(cm, tail)
		}
	}
	return nil, false
}

// normalizeValue round-trips v through JSON so struct tags decide field names.
func normalizeValue(v any) any {
	buf, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return v
	}
	return out
}

func toLine(v any) (string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		buf, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
	flat := map[string]any{}
	flatten("", m, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+scalar(flat[k]))
	}
	return strings.Join(parts, " "), nil
}

// flatten writes nested objects as dotted keys and list items as key.N.
func flatten(prefix string, v any, dst map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && prefix != "" {
			dst[prefix] = "{}"
			return
		}
		for k, item := range t {
			flatten(join(prefix, k), item, dst)
		}
	case []any:
		if len(t) == 0 {
			dst[prefix] = "[]"
			return
		}
		for i, item := range t {
			flatten(join(prefix, strconv.Itoa(i)), item, dst)
		}
	default:
		dst[prefix] = t
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if t == "" || strings.ContainsAny(t, " \t\n\"=") {
			return strconv.Quote(t)
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
