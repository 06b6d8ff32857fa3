package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

type testAction struct {
	Kind   string `yaml:"kind"`
	Amount string `yaml:"amount"`
}

type testPlan struct {
	SignerID string       `yaml:"signer"`
	Actions  []testAction `yaml:"actions"`
	Secret   string       `yaml:"-"`
}

func TestBuildSchema(t *testing.T) {
	root := &cobra.Command{Use: "neartx"}
	child := &cobra.Command{Use: "tx", Short: "stored transactions"}
	leaf := &cobra.Command{Use: "list", Short: "list stored transactions"}
	leaf.Flags().Int("limit", 20, "limit results")
	child.AddCommand(leaf)
	root.AddCommand(child)

	s, err := Build(root, "tx list")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "neartx tx list" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 1 || s.Flags[0].Name != "limit" {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
	if _, err := Build(root, "tx nope"); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestBuildSchemaPlanAndFlagMetadata(t *testing.T) {
	root := &cobra.Command{Use: "neartx"}
	construct := &cobra.Command{Use: "construct-transaction", Aliases: []string{"construct"}}
	construct.Flags().StringArray("action", nil, "action spec")
	construct.Flags().String("signer", "", "signer")
	_ = construct.MarkFlagRequired("signer")
	RegisterPlan(construct, "test-plan", testPlan{})
	root.AddCommand(construct)

	s, err := Build(root, "construct")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	flags := map[string]FlagSchema{}
	for _, f := range s.Flags {
		flags[f.Name] = f
	}
	if !flags["action"].Repeatable || flags["signer"].Repeatable {
		t.Fatalf("unexpected repeatable metadata: %+v", s.Flags)
	}
	if !flags["signer"].Required {
		t.Fatalf("expected signer to be required: %+v", flags["signer"])
	}
	if len(s.PlanFields) != 2 {
		t.Fatalf("unexpected plan fields: %+v", s.PlanFields)
	}
	actions := s.PlanFields[1]
	if actions.Key != "actions" || actions.Type != "list<object>" || len(actions.Fields) != 2 {
		t.Fatalf("unexpected actions field: %+v", actions)
	}
}
