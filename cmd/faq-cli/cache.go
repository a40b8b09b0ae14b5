package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/app"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
)

// newCacheCmd creates the cache subcommand.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the fallback answer cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached fallback answers for the configured provider and model",
		Long: `Clear removes every cached answer generated by the configured provider and
model, or only the answer for one question with --query. Answers cached for
other models are kept.

Only the redis driver is shared between processes; a memory cache is cleared
through DELETE /api/v1/cache on the server that holds it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := openSharedCache(ctx, cfg.Cache)
			if err != nil {
				return err
			}
			defer client.Close()

			ui := NewUI(cmd.InOrStdin(), cmd.OutOrStdout(), outputJSON)
			return clearCache(ctx, ui, fallback.NewCacheInvalidator(client, cfg.Fallback, logger), query)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only forget the cached answer for this question")

	return cmd
}

// openSharedCache connects to a cache another process can see.
func openSharedCache(ctx context.Context, cacheCfg config.CacheConfig) (cache.Client, error) {
	switch cacheCfg.Driver {
	case config.CacheRedis:
		return app.NewCache(ctx, cacheCfg)
	case config.CacheMemory:
		return nil, domain.ConfigError("the memory cache lives inside the serving process; use DELETE /api/v1/cache", nil)
	default:
		return nil, domain.ConfigError(fmt.Sprintf("answer cache is disabled (cache.driver: %s)", cacheCfg.Driver), nil)
	}
}

func clearCache(ctx context.Context, ui *UI, inv *fallback.CacheInvalidator, query string) error {
	scope := "all"
	if query != "" {
		scope = "query"
		if err := inv.Forget(ctx, query); err != nil {
			return err
		}
	} else if err := inv.Purge(ctx); err != nil {
		return err
	}

	if outputJSON {
		printJSON(ui.out, map[string]string{
			"namespace": inv.Namespace(),
			"cleared":   scope,
		})
		return nil
	}

	if query != "" {
		ui.Success("Removed the cached answer for %q", query)
	} else {
		ui.Success("Removed cached answers for %s", inv.Namespace())
	}
	return nil
}
