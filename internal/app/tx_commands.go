package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/execution"
	"github.com/ggonzalez94/neartx/internal/model"
	"github.com/ggonzalez94/neartx/internal/policy"
	"github.com/ggonzalez94/neartx/internal/registry"
)

func (s *runtimeState) newTxCommand() *cobra.Command {
	root := &cobra.Command{Use: "tx", Short: "Inspect and resubmit recorded transactions"}

	var status string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.requireStore()
			if err != nil {
				return err
			}
			if status != "" && !validRecordStatus(status) {
				return clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown --status %q", status))
			}
			records, err := store.List(status, limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list transactions", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), records, nil, model.EnvelopeMeta{})
		},
	}
	list.Flags().StringVar(&status, "status", "", "Filter by status: exported, submitted, succeeded, failed")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum records to return")

	show := &cobra.Command{
		Use:   "show <record-id|tx-hash>",
		Short: "Show one recorded transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.requireStore()
			if err != nil {
				return err
			}
			record, err := store.Get(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), record, nil, model.EnvelopeMeta{Network: record.Network, RPCURL: record.RPCURL})
		},
	}

	var network, rpcURL string
	resubmit := &cobra.Command{
		Use:   "resubmit <record-id|tx-hash>",
		Short: "Broadcast a recorded signed transaction once more",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.requireStore()
			if err != nil {
				return err
			}
			record, err := store.Get(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			var warnings []string
			target := ""
			if strings.TrimSpace(network) != "" || strings.TrimSpace(rpcURL) != "" {
				name, url, warn, err := s.resolveEndpoint(network, rpcURL)
				if err != nil {
					return err
				}
				record.Network = name
				target = url
				warnings = append(warnings, warn...)
			} else if err := policy.CheckEndpointAllowed(s.settings.AllowedNetworks, networkOrCustom(record.Network), record.RPCURL, s.settings.NetworkRPCURLs); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			executor := execution.NewExecutor(s.rpcClients(), store, s.settings.Timeout)
			outcome, err := executor.Resubmit(ctx, record, target)
			warnings = append(warnings, outcome.Warnings...)
			meta := model.EnvelopeMeta{Network: record.Network, RPCURL: outcome.RPCURL}
			if err != nil {
				if outcome.Payload != "" {
					s.captureFailure(outcome, warnings, meta)
				}
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), outcome, warnings, meta)
		},
	}
	resubmit.Flags().StringVar(&network, "network", "", networkHelp("Network to submit to, defaults to the recorded endpoint"))
	resubmit.Flags().StringVar(&rpcURL, "rpc-url", "", "Custom JSON-RPC endpoint to submit to")

	root.AddCommand(list)
	root.AddCommand(show)
	root.AddCommand(resubmit)
	return root
}

func (s *runtimeState) requireStore() (*execution.Store, error) {
	if s.store == nil {
		return nil, clierr.New(clierr.CodeUsage, "transaction store is disabled (store.enabled=false or NEARTX_NO_STORE)")
	}
	return s.store, nil
}

func validRecordStatus(status string) bool {
	switch execution.RecordStatus(status) {
	case execution.RecordStatusExported, execution.RecordStatusSubmitted, execution.RecordStatusSucceeded, execution.RecordStatusFailed:
		return true
	}
	return false
}

// resolveEndpoint applies the network policy and picks an RPC URL for
// read-only and resubmit commands.
func (s *runtimeState) resolveEndpoint(network, rpcURL string) (string, string, []string, error) {
	name := strings.ToLower(strings.TrimSpace(network))
	if strings.TrimSpace(rpcURL) != "" && name == "" {
		name = registry.CustomNetwork
	}
	if name == "" {
		return "", "", nil, clierr.New(clierr.CodeUsage, "pass --network or --rpc-url")
	}
	if err := policy.CheckEndpointAllowed(s.settings.AllowedNetworks, name, rpcURL, s.settings.NetworkRPCURLs); err != nil {
		return "", "", nil, err
	}
	url, err := registry.ResolveRPCURL(rpcURL, name, s.settings.NetworkRPCURLs)
	if err != nil {
		return "", "", nil, clierr.Wrap(clierr.CodeUsage, "resolve rpc endpoint", err)
	}
	var warnings []string
	if registry.IsInsecureRPCURL(url) {
		warnings = append(warnings, fmt.Sprintf("rpc endpoint %s is plain http", url))
	}
	return name, url, warnings, nil
}

func networkOrCustom(name string) string {
	if strings.TrimSpace(name) == "" {
		return registry.CustomNetwork
	}
	return name
}

// networkHelp lists the built-in network names after prefix.
func networkHelp(prefix string) string {
	return prefix + " (" + strings.Join(registry.NetworkNames(), ", ") + ")"
}
