package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type CommandSchema struct {
	Path        string          `json:"path"`
	Use         string          `json:"use"`
	Short       string          `json:"short"`
	Aliases     []string        `json:"aliases,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	PlanFields  []FieldSchema   `json:"plan_fields,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

type FlagSchema struct {
	Name       string `json:"name"`
	Shorthand  string `json:"shorthand,omitempty"`
	Type       string `json:"type"`
	Usage      string `json:"usage"`
	Default    string `json:"default,omitempty"`
	Required   bool   `json:"required,omitempty"`
	Repeatable bool   `json:"repeatable,omitempty"`
}

// FieldSchema describes one key of a YAML plan file.
type FieldSchema struct {
	Key    string        `json:"key"`
	Type   string        `json:"type"`
	Fields []FieldSchema `json:"fields,omitempty"`
}

// PlanAnnotation marks a command whose --plan-file input has the layout of
// the value registered with RegisterPlan.
const PlanAnnotation = "neartx/plan"

var plans = map[string]any{}

// RegisterPlan associates a plan-file layout with cmd.
func RegisterPlan(cmd *cobra.Command, name string, layout any) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[PlanAnnotation] = name
	plans[name] = layout
}

func Build(root *cobra.Command, commandPath string) (CommandSchema, error) {
	cmd := root
	for _, p := range strings.Fields(strings.TrimSpace(commandPath)) {
		next := findChild(cmd, p)
		if next == nil {
			return CommandSchema{}, fmt.Errorf("command not found: %s", commandPath)
		}
		cmd = next
	}
	return serialize(cmd), nil
}

func findChild(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name || slices.Contains(c.Aliases, name) {
			return c
		}
	}
	return nil
}

func serialize(cmd *cobra.Command) CommandSchema {
	s := CommandSchema{
		Path:    strings.TrimSpace(cmd.CommandPath()),
		Use:     cmd.Use,
		Short:   cmd.Short,
		Aliases: cmd.Aliases,
		Flags:   collectFlags(cmd),
	}
	if name, ok := cmd.Annotations[PlanAnnotation]; ok {
		if layout, ok := plans[name]; ok {
			s.PlanFields = Fields(layout)
		}
	}

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		s.Subcommands = append(s.Subcommands, serialize(sub))
	}
	return s
}

func collectFlags(cmd *cobra.Command) []FlagSchema {
	items := []FlagSchema{}
	cmd.NonInheritedFlags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		typ := f.Value.Type()
		items = append(items, FlagSchema{
			Name:       f.Name,
			Shorthand:  f.Shorthand,
			Type:       typ,
			Usage:      f.Usage,
			Default:    f.DefValue,
			Required:   required,
			Repeatable: strings.HasSuffix(typ, "Array") || strings.HasSuffix(typ, "Slice"),
		})
	})
	return items
}

// Fields walks the yaml tags of a struct value.
func Fields(v any) []FieldSchema {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return structFields(t)
}

func structFields(t reflect.Type) []FieldSchema {
	var out []FieldSchema
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if key == "-" {
			continue
		}
		if key == "" {
			key = strings.ToLower(f.Name)
		}
		item := FieldSchema{Key: key, Type: typeName(f.Type)}
		if elem := structElem(f.Type); elem != nil {
			item.Fields = structFields(elem)
		}
		out = append(out, item)
	}
	return out
}

func structElem(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return typeName(t.Elem())
	case reflect.Slice:
		return "list<" + typeName(t.Elem()) + ">"
	case reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}
