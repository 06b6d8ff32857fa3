package app

import (
	"bytes"
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/ggonzalez94/neartx/internal/cache"
	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/id"
	"github.com/ggonzalez94/neartx/internal/model"
)

const accessKeysTTL = 30 * time.Second

func (s *runtimeState) newKeysCommand() *cobra.Command {
	root := &cobra.Command{Use: "keys", Short: "Read-only access key views"}

	var account, network, rpcURL string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the access keys of an account with their nonces and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.NormalizeAccountID(account)
			if err != nil {
				return err
			}
			name, url, warnings, err := s.resolveEndpoint(network, rpcURL)
			if err != nil {
				return err
			}
			meta := model.EnvelopeMeta{Network: name, RPCURL: url}
			key := cache.Key(url, "access_keys", accountID)
			fetch := func(ctx context.Context) (model.AccessKeyList, error) {
				infos, err := s.rpcClients()(url).AccessKeyList(ctx, accountID)
				if err != nil {
					return model.AccessKeyList{}, err
				}
				view := model.AccessKeyList{AccountID: accountID, Network: name, Keys: make([]model.AccessKey, 0, len(infos))}
				for _, info := range infos {
					view.Keys = append(view.Keys, model.AccessKey{
						AccountID:  accountID,
						PublicKey:  info.PublicKey,
						Nonce:      info.Nonce,
						Permission: info.Permission,
						FullAccess: bytes.Equal(bytes.TrimSpace(info.Permission), []byte(`"FullAccess"`)),
					})
				}
				return view, nil
			}
			return s.runCachedView(trimRootPath(cmd.CommandPath()), key, meta, warnings, fetch)
		},
	}
	list.Flags().StringVar(&account, "account", "", "Account ID")
	list.Flags().StringVar(&network, "network", "", networkHelp("Network to query"))
	list.Flags().StringVar(&rpcURL, "rpc-url", "", "Custom JSON-RPC endpoint")
	_ = list.MarkFlagRequired("account")

	root.AddCommand(list)
	return root
}

// runCachedView serves a fresh cache hit, otherwise fetches and caches. When
// the fetch fails on the network, a stale entry within the max-stale budget
// is served instead.
func (s *runtimeState) runCachedView(commandPath, key string, meta model.EnvelopeMeta, warnings []string, fetch func(context.Context) (model.AccessKeyList, error)) error {
	ctx := context.Background()
	meta.Cache = cacheMetaMiss()
	var (
		stale      model.AccessKeyList
		staleEntry cache.Entry
		haveStale  bool
	)

	if s.settings.CacheEnabled && s.cache != nil {
		var cached model.AccessKeyList
		entry, hit, err := s.cache.GetJSON(ctx, key, s.settings.MaxStale, &cached)
		if err != nil {
			log.Debug("Ignoring unreadable cache entry", "key", key, "err", err)
		}
		if hit && !entry.Stale {
			meta.Cache = model.CacheStatus{Status: "hit", AgeMS: entry.Age.Milliseconds()}
			return s.emitSuccess(commandPath, cached, warnings, meta)
		}
		if hit {
			stale, staleEntry, haveStale = cached, entry, true
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()
	data, err := fetch(fetchCtx)
	if err != nil {
		if !haveStale || !clierr.Recoverable(err) {
			s.captureFailure(nil, warnings, meta)
			return err
		}
		if s.settings.NoStale {
			s.captureFailure(nil, warnings, meta)
			return clierr.Wrap(clierr.CodeNetworkTransport, "fresh fetch failed and stale fallback is disabled (--no-stale)", err)
		}
		if staleEntry.TooStale {
			s.captureFailure(nil, warnings, meta)
			return clierr.Wrap(clierr.CodeNetworkTransport, "fresh fetch failed and cached data exceeded stale budget", err)
		}
		log.Warn("Serving stale access keys", "key", key, "age", staleEntry.Age, "err", err)
		warnings = append(warnings, "rpc fetch failed; serving stale data within max-stale budget")
		meta.Cache = model.CacheStatus{Status: "hit", AgeMS: staleEntry.Age.Milliseconds(), Stale: true}
		return s.emitSuccess(commandPath, stale, warnings, meta)
	}

	if s.settings.CacheEnabled && s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, data, accessKeysTTL); err == nil {
			meta.Cache = model.CacheStatus{Status: "write"}
		} else {
			log.Debug("Cache write failed", "key", key, "err", err)
		}
	}
	return s.emitSuccess(commandPath, data, warnings, meta)
}
