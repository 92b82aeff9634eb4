package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-sidebar/internal/attr"
	"github.com/sells-group/crm-sidebar/internal/config"
	"github.com/sells-group/crm-sidebar/internal/sidebar"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crm-sidebar",
	Short: "CRM sidebar backend for the email client plugin",
	Long:  "Resolves conversation participants against the CRM, classifies related deals, and serves the aggregate sidebar state over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newCRMClient builds the Attio client from configuration.
func newCRMClient(c *config.Config) attio.Client {
	opts := []attio.Option{attio.WithRateLimit(c.Attio.RatePerSec)}
	if c.Attio.BaseURL != "" {
		opts = append(opts, attio.WithBaseURL(c.Attio.BaseURL))
	}
	return attio.NewClient(c.Attio.APIKey, opts...)
}

// newSidebarService wires the sidebar service from configuration.
func newSidebarService(c *config.Config) *sidebar.Service {
	sc := sidebar.DefaultConfig()
	sc.PeopleObject = c.Sidebar.PeopleObject
	sc.CompaniesObject = c.Sidebar.CompaniesObject
	sc.DealsObject = c.Sidebar.DealsObject
	sc.StageAttribute = c.Sidebar.StageAttribute
	sc.InternalDomain = c.Sidebar.InternalDomain
	sc.BulkLimit = c.Sidebar.BulkLimit
	sc.CompaniesTTL = c.Cache.CompaniesTTL
	sc.StagesTTL = c.Cache.StagesTTL
	sc.DealsTTL = c.Cache.DealsTTL
	sc.Billing = attr.BillingOptions{
		BilledOptionID:  c.Billing.BilledOptionID,
		PartialOptionID: c.Billing.PartialOptionID,
	}
	sc.Retry.MaxAttempts = c.Attio.RetryMax
	return sidebar.NewService(newCRMClient(c), sc)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
