// -- cmd/monitor.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
	"github.com/xkilldash9x/dashwatch-cli/internal/browser"
	"github.com/xkilldash9x/dashwatch-cli/internal/config"
	"github.com/xkilldash9x/dashwatch-cli/internal/discovery"
	"github.com/xkilldash9x/dashwatch-cli/internal/llmclient"
	"github.com/xkilldash9x/dashwatch-cli/internal/monitor"
	"github.com/xkilldash9x/dashwatch-cli/internal/observability"
	"github.com/xkilldash9x/dashwatch-cli/internal/store"
)

// newMonitorCmd creates and configures the `monitor` command.
func newMonitorCmd() *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Starts the scheduled screenshot monitoring loop",
		Long: `Opens a browser on the target URL, waits for you to complete the login
manually (including any captcha), identifies chart/dashboard blocks once via
the configured LLM, then periodically reloads the page and captures an
element screenshot of every block, persisting JSON metadata per capture.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line flags correctly
			// override values from the config file and environment.
			if err := viper.BindPFlag("monitor.target_url", cmd.Flags().Lookup("url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("monitor.interval_seconds", cmd.Flags().Lookup("interval")); err != nil {
				return err
			}
			if err := viper.BindPFlag("monitor.screenshot_dir", cmd.Flags().Lookup("screenshot-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("monitor.metadata_file", cmd.Flags().Lookup("metadata-file")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}

			// Ensure the target carries a scheme before it reaches the browser.
			if cfg.Monitor.TargetURL != "" &&
				!strings.HasPrefix(cfg.Monitor.TargetURL, "http://") &&
				!strings.HasPrefix(cfg.Monitor.TargetURL, "https://") {
				cfg.Monitor.TargetURL = "https://" + cfg.Monitor.TargetURL
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			components, err := initializeMonitorComponents(ctx, &cfg, logger)
			if err != nil {
				if components != nil {
					components.Shutdown()
				}
				return fmt.Errorf("failed to initialize monitor components: %w", err)
			}
			defer components.Shutdown()

			if err := components.Loop.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("Monitoring stopped by user.")
					return nil
				}
				return err
			}
			return nil
		},
	}

	monitorCmd.Flags().StringP("url", "u", "", "Target URL to monitor (required unless set in config)")
	monitorCmd.Flags().IntP("interval", "i", 300, "Screenshot interval in seconds")
	monitorCmd.Flags().String("screenshot-dir", "screenshots", "Directory to save screenshots")
	monitorCmd.Flags().String("metadata-file", "screenshot_metadata.json", "JSON file for screenshot metadata")
	monitorCmd.Flags().Bool("headless", false, "Run the browser headless (breaks the manual login step)")

	return monitorCmd
}

// monitorComponents holds the initialized services of a monitoring run.
type monitorComponents struct {
	BrowserManager schemas.BrowserManager
	Loop           *monitor.Loop
}

// Shutdown gracefully closes all components.
func (mc *monitorComponents) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if mc.BrowserManager != nil {
		if err := mc.BrowserManager.Shutdown(shutdownCtx); err != nil {
			observability.GetLogger().Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}
}

// initializeMonitorComponents handles dependency injection for the monitor loop.
func initializeMonitorComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*monitorComponents, error) {
	components := &monitorComponents{}

	// 1. LLM client. Built first: a missing API key should fail before a
	// browser window ever opens.
	llmClient, err := llmclient.NewClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	// 2. Browser manager.
	browserManager, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser manager: %w", err)
	}
	components.BrowserManager = browserManager

	// 3. Discovery agent and metadata store.
	agent := discovery.NewAgent(llmClient, cfg.LLM.Temperature, cfg.Monitor.OutlineLimit, logger)
	metadataStore := store.New(cfg.Monitor.MetadataFile, logger)

	// 4. The loop itself.
	loop, err := monitor.New(cfg, browserManager, agent, metadataStore, logger)
	if err != nil {
		return components, fmt.Errorf("failed to create monitor loop: %w", err)
	}
	components.Loop = loop

	return components, nil
}
