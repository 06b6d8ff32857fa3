package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/execution"
	"github.com/ggonzalez94/neartx/internal/execution/signer"
	"github.com/ggonzalez94/neartx/internal/model"
	"github.com/ggonzalez94/neartx/internal/resolve"
	"github.com/ggonzalez94/neartx/internal/schema"
)

type constructArgs struct {
	mode            string
	network         string
	rpcURL          string
	nonce           string
	blockHash       string
	signer          string
	receiver        string
	actions         []string
	signWith        string
	publicKey       string
	secretKey       string
	credentialsFile string
	reference       string
	planFile        string
}

func (s *runtimeState) newConstructCommand() *cobra.Command {
	var args constructArgs
	cmd := &cobra.Command{
		Use:     "construct-transaction",
		Aliases: []string{"construct"},
		Short:   "Build a transaction, then submit it, export it signed, or export it unsigned",
		Long: `Build a NEAR transaction from flags, a plan file, or interactive prompts.

Actions are given in order with repeatable --action flags:
  transfer:10NEAR
  create-account
  delete-account:bob.testnet
  add-access-key:public-key=ed25519:...;nonce=0;permission=function-call;allowance=1NEAR;receiver=app.testnet;methods=a,b
  delete-access-key:ed25519:...
  finalize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := args.input(cmd)
			if err != nil {
				return err
			}
			return s.runConstruct(in)
		},
	}
	f := cmd.Flags()
	f.StringVar(&args.mode, "mode", "", "online (fetch nonce and block hash) or offline")
	f.StringVar(&args.network, "network", "", networkHelp("Network for online mode"))
	f.StringVar(&args.rpcURL, "rpc-url", "", "Custom JSON-RPC endpoint for online mode")
	f.StringVar(&args.nonce, "nonce", "", "Transaction nonce for offline mode")
	f.StringVar(&args.blockHash, "block-hash", "", "Base58 recent block hash for offline mode")
	f.StringVar(&args.signer, "signer", "", "Sender account ID")
	f.StringVar(&args.receiver, "receiver", "", "Receiver account ID")
	f.StringArrayVar(&args.actions, "action", nil, "Action spec kind[:value|key=value;...] (repeatable, in order)")
	f.StringVar(&args.signWith, "sign-with", "", "embedded (sign with a local key) or external (export unsigned)")
	f.StringVar(&args.publicKey, "public-key", "", "Signer public key")
	f.StringVar(&args.secretKey, "secret-key", "", "Signer secret key (prefer "+signer.EnvSecretKey+")")
	f.StringVar(&args.credentialsFile, "credentials-file", "", "NEAR credentials JSON file with the signer key")
	f.StringVar(&args.reference, "external-reference", "", "Key chain reference for external signing")
	f.StringVar(&args.planFile, "plan-file", "", "YAML plan; flags override its fields")
	f.BoolVar(&s.flags.NoStore, "no-store", false, "Do not record the transaction in the local store")
	schema.RegisterPlan(cmd, "construct-transaction", resolve.Input{})
	return cmd
}

// input merges the plan file, flags and key sources into one resolver input.
func (a constructArgs) input(cmd *cobra.Command) (resolve.Input, error) {
	var in resolve.Input
	if strings.TrimSpace(a.planFile) != "" {
		plan, err := loadPlanFile(a.planFile)
		if err != nil {
			return resolve.Input{}, err
		}
		in = plan
	}

	changed := cmd.Flags().Changed
	set := func(flag string, dst **string, v string) {
		if changed(flag) {
			*dst = &v
		}
	}
	set("mode", &in.Mode, a.mode)
	set("network", &in.Network, a.network)
	set("rpc-url", &in.RPCURL, a.rpcURL)
	set("nonce", &in.Nonce, a.nonce)
	set("block-hash", &in.BlockHash, a.blockHash)
	set("signer", &in.SignerID, a.signer)
	set("receiver", &in.ReceiverID, a.receiver)

	if changed("action") {
		actions := make([]resolve.ActionInput, 0, len(a.actions))
		for i, spec := range a.actions {
			action, err := parseActionSpec(spec)
			if err != nil {
				return resolve.Input{}, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("parse --action #%d", i+1), err)
			}
			actions = append(actions, action)
		}
		in.Actions = actions
	}

	signingFlags := []string{"sign-with", "public-key", "secret-key", "external-reference"}
	for _, flag := range signingFlags {
		if changed(flag) && in.Signing == nil {
			in.Signing = &resolve.SigningInput{}
		}
	}
	if in.Signing != nil {
		set("sign-with", &in.Signing.Strategy, a.signWith)
		set("public-key", &in.Signing.PublicKey, a.publicKey)
		set("secret-key", &in.Signing.SecretKey, a.secretKey)
		set("external-reference", &in.Signing.Reference, a.reference)
	}

	if err := a.applyKeyMaterial(&in); err != nil {
		return resolve.Input{}, err
	}
	return in, nil
}

// applyKeyMaterial fills embedded signing keys from a credentials file, the
// environment or the default credentials directory. Ambient sources are only
// read once embedded signing was requested.
func (a constructArgs) applyKeyMaterial(in *resolve.Input) error {
	explicit := strings.TrimSpace(a.credentialsFile) != ""
	embedded := in.Signing != nil && in.Signing.Strategy != nil &&
		strings.EqualFold(strings.TrimSpace(*in.Signing.Strategy), string(resolve.SigningEmbedded))

	src := signer.KeySources{CredentialsFile: a.credentialsFile}
	if in.Signing != nil && in.Signing.SecretKey != nil {
		if in.Signing.PublicKey != nil {
			return nil
		}
		// Only the public half is missing; derive it.
		src.SecretKey = *in.Signing.SecretKey
	} else if !explicit && !embedded {
		return nil
	}
	if in.Signing != nil && in.Signing.PublicKey != nil {
		src.PublicKey = *in.Signing.PublicKey
	}
	if in.Network != nil {
		src.Network = *in.Network
	}
	if in.SignerID != nil {
		src.AccountID = *in.SignerID
	}
	material, ok, err := signer.LoadKeyMaterial(src)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	log.Debug("Loaded signing key", "source", material.Source, "public_key", material.PublicKey)
	if in.Signing == nil {
		in.Signing = &resolve.SigningInput{}
	}
	if in.Signing.Strategy == nil {
		in.Signing.Strategy = ptr(string(resolve.SigningEmbedded))
	}
	in.Signing.PublicKey = ptr(material.PublicKey)
	in.Signing.SecretKey = ptr(material.SecretKey)
	return nil
}

func loadPlanFile(path string) (resolve.Input, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return resolve.Input{}, clierr.Wrap(clierr.CodeUsage, "read plan file", err)
	}
	var in resolve.Input
	if err := yaml.Unmarshal(buf, &in); err != nil {
		return resolve.Input{}, clierr.Wrap(clierr.CodeUsage, "parse plan file", err)
	}
	return in, nil
}

func (s *runtimeState) runConstruct(in resolve.Input) error {
	resolver := resolve.NewResolver(s.valueSource(), resolve.Networks{
		Allowed: s.settings.AllowedNetworks,
		RPCURLs: s.settings.NetworkRPCURLs,
	}, s.settings.Strict)
	plan, err := resolver.Resolve(in)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	executor := execution.NewExecutor(s.rpcClients(), s.store, s.settings.Timeout)
	outcome, err := executor.Execute(ctx, plan)
	warnings := append(append([]string{}, plan.Warnings...), outcome.Warnings...)
	meta := model.EnvelopeMeta{Network: plan.Mode.Network, RPCURL: plan.Mode.RPCURL}
	if err != nil {
		if outcome.Payload != "" {
			s.captureFailure(outcome, warnings, meta)
		} else {
			s.captureFailure(nil, warnings, meta)
		}
		return err
	}
	return s.emitSuccess(s.lastCommand, outcome, warnings, meta)
}

var primaryField = map[string]string{
	resolve.ActionTransfer:        "amount",
	resolve.ActionDeleteAccount:   "beneficiary",
	resolve.ActionAddAccessKey:    "public-key",
	resolve.ActionDeleteAccessKey: "public-key",
}

// parseActionSpec reads kind[:value] where value is either the kind's
// primary field or key=value pairs separated by ';'.
func parseActionSpec(spec string) (resolve.ActionInput, error) {
	kind, rest, hasValue := strings.Cut(strings.TrimSpace(spec), ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !validActionKind(kind) {
		return resolve.ActionInput{}, fmt.Errorf("unknown action kind %q (want one of %s)", kind, strings.Join(resolve.ActionKinds(), ", "))
	}
	action := resolve.ActionInput{Kind: kind}
	if !hasValue || strings.TrimSpace(rest) == "" {
		return action, nil
	}

	fields := map[string]string{}
	if !strings.Contains(rest, "=") {
		primary, ok := primaryField[kind]
		if !ok {
			return resolve.ActionInput{}, fmt.Errorf("action %q takes no value", kind)
		}
		fields[primary] = strings.TrimSpace(rest)
	} else {
		for _, pair := range strings.Split(rest, ";") {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return resolve.ActionInput{}, fmt.Errorf("expected key=value, got %q", pair)
			}
			fields[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}

	for k, v := range fields {
		if err := assignActionField(&action, k, v); err != nil {
			return resolve.ActionInput{}, err
		}
	}
	return action, nil
}

func validActionKind(kind string) bool {
	for _, k := range resolve.ActionKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func assignActionField(action *resolve.ActionInput, key, value string) error {
	perm := func() *resolve.PermissionInput {
		if action.Permission == nil {
			action.Permission = &resolve.PermissionInput{}
		}
		return action.Permission
	}
	allowed := func(kinds ...string) error {
		for _, k := range kinds {
			if action.Kind == k {
				return nil
			}
		}
		return fmt.Errorf("field %q does not apply to %s", key, action.Kind)
	}

	switch key {
	case "amount", "deposit":
		if err := allowed(resolve.ActionTransfer); err != nil {
			return err
		}
		action.Amount = ptr(value)
	case "beneficiary":
		if err := allowed(resolve.ActionDeleteAccount); err != nil {
			return err
		}
		action.BeneficiaryID = ptr(value)
	case "public-key", "public_key", "key":
		if err := allowed(resolve.ActionAddAccessKey, resolve.ActionDeleteAccessKey); err != nil {
			return err
		}
		action.PublicKey = ptr(value)
	case "nonce":
		if err := allowed(resolve.ActionAddAccessKey); err != nil {
			return err
		}
		action.Nonce = ptr(value)
	case "permission":
		if err := allowed(resolve.ActionAddAccessKey); err != nil {
			return err
		}
		perm().Kind = ptr(value)
	case "allowance":
		if err := allowed(resolve.ActionAddAccessKey); err != nil {
			return err
		}
		perm().Allowance = ptr(value)
	case "receiver":
		if err := allowed(resolve.ActionAddAccessKey); err != nil {
			return err
		}
		perm().ReceiverID = ptr(value)
	case "methods":
		if err := allowed(resolve.ActionAddAccessKey); err != nil {
			return err
		}
		perm().MethodNames = ptr(value)
	default:
		return fmt.Errorf("unknown action field %q", key)
	}
	return nil
}

func ptr(v string) *string { return &v }
