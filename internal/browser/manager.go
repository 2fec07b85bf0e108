// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
	"github.com/xkilldash9x/dashwatch-cli/internal/config"
)

const launchProbeTimeout = 30 * time.Second

// Manager handles the Chrome process lifecycle and session creation.
// For monitoring the browser normally runs headful: the login gate requires a
// window the user can interact with.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// allocatorCtx manages the browser process. All session contexts derive from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks active sessions for a graceful shutdown.
	wg sync.WaitGroup
}

var _ schemas.BrowserManager = (*Manager)(nil)

// NewManager launches the browser process and verifies it is responsive.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}

	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...",
		zap.Bool("headless", m.cfg.Browser.Headless))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Probe with a throwaway tab to confirm the browser is alive.
	probeCtx, cancelProbe := context.WithTimeout(allocCtx, launchProbeTimeout)
	probeCtx, cancelProbeTab := chromedp.NewContext(probeCtx)
	defer cancelProbeTab()
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the launch flags for the browser instance.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Start from the defaults and override the flag that advertises automation.
	// Some dashboards refuse logins from instrumented browsers, which would
	// defeat the manual login step. Later flags win, so the override sticks.
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
	)

	if m.cfg.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.Browser.UserAgent))
	}

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required when running inside containers on Linux.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	return opts
}

// NewSession creates a new browser tab wrapped in a Session.
func (m *Manager) NewSession(ctx context.Context) (schemas.SessionContext, error) {
	if m.allocatorCtx == nil {
		return nil, fmt.Errorf("browser manager is not initialized")
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocatorCtx)

	m.wg.Add(1)
	session, err := NewSession(tabCtx, tabCancel, m.cfg, m.logger, m.wg.Done)
	if err != nil {
		tabCancel()
		m.wg.Done()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Initialize(ctx); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.logger.Info("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown waits for active sessions to close and terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated.")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}
