// internal/monitor/loop.go
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
	"github.com/xkilldash9x/dashwatch-cli/internal/config"
	"github.com/xkilldash9x/dashwatch-cli/internal/discovery"
	"github.com/xkilldash9x/dashwatch-cli/internal/store"
)

// timestampLayout is the filename-safe form of the cycle timestamp.
const timestampLayout = "20060102_150405"

// ErrNoBlocks aborts a run when not even the fallback produced a block set.
var ErrNoBlocks = errors.New("no screenshot blocks discovered")

// BlockDiscoverer runs one discovery pass against the current page and
// reports found blocks through the callback.
type BlockDiscoverer interface {
	Run(ctx context.Context, sess schemas.SessionContext, report discovery.ReportFunc) error
}

// Loop drives the full monitoring workflow: login gate, one-time block
// discovery, then the periodic capture cycle. It is a single sequential
// actor; every suspension point (stdin, LLM, browser, sleeps) blocks the one
// logical thread of control.
type Loop struct {
	cfg     *config.Config
	logger  *zap.Logger
	browser schemas.BrowserManager
	agent   BlockDiscoverer
	store   *store.MetadataStore

	// input is the login confirmation source, stdin in production.
	input io.Reader
	// now is replaceable in tests to pin cycle timestamps.
	now func() time.Time

	runID   string
	session schemas.SessionContext
	blocks  []schemas.ScreenshotBlock
}

// Option customizes a Loop, mainly for tests.
type Option func(*Loop)

// WithInput replaces the login confirmation reader.
func WithInput(r io.Reader) Option {
	return func(l *Loop) { l.input = r }
}

// WithClock replaces the time source used for cycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// New creates the monitor loop, ensures the screenshot directory exists and
// loads any metadata persisted by previous runs.
func New(
	cfg *config.Config,
	browser schemas.BrowserManager,
	agent BlockDiscoverer,
	st *store.MetadataStore,
	logger *zap.Logger,
	opts ...Option,
) (*Loop, error) {
	l := &Loop{
		cfg:     cfg,
		logger:  logger.Named("monitor"),
		browser: browser,
		agent:   agent,
		store:   st,
		input:   os.Stdin,
		now:     time.Now,
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(cfg.Monitor.ScreenshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory %q: %w", cfg.Monitor.ScreenshotDir, err)
	}

	// Malformed or missing metadata is not fatal; the store logs and starts empty.
	l.store.Load()

	return l, nil
}

// WaitForLogin opens a session on the target URL and blocks until the user
// confirms login completion with any input line. There is no timeout; the
// gate is purely manual.
func (l *Loop) WaitForLogin(ctx context.Context) error {
	l.logger.Info("Opening browser for manual login.",
		zap.String("url", l.cfg.Monitor.TargetURL))

	session, err := l.browser.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	l.session = session

	if err := session.Navigate(ctx, l.cfg.Monitor.TargetURL); err != nil {
		return fmt.Errorf("failed to open target URL: %w", err)
	}

	// Let the page render before asking the user to act.
	if err := sleepCtx(ctx, l.cfg.Monitor.LoginSettle); err != nil {
		return err
	}

	l.logger.Info("Complete the login in the browser window (including any captcha), then press ENTER here to continue.")

	confirmed := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(l.input).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			confirmed <- err
			return
		}
		// Any line, or a closed stdin, counts as confirmation.
		confirmed <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-confirmed:
		if err != nil {
			return fmt.Errorf("failed to read login confirmation: %w", err)
		}
	}

	l.logger.Info("Login confirmed. Starting automated monitoring.")
	return nil
}

// DiscoverBlocks runs the discovery agent exactly once and fixes the block
// set for the rest of the run. Agent errors and empty results degrade to the
// fixed fallback set rather than aborting.
func (l *Loop) DiscoverBlocks(ctx context.Context) error {
	if l.session == nil {
		return fmt.Errorf("browser session not initialized")
	}

	l.logger.Info("Identifying chart blocks on the page...")

	var reported []schemas.ScreenshotBlock
	err := l.agent.Run(ctx, l.session, func(blocks []schemas.ScreenshotBlock) {
		reported = blocks
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("Discovery agent failed; falling back to generic selectors.", zap.Error(err))
	}

	if len(reported) == 0 {
		l.logger.Warn("No chart blocks identified; using the fallback selector set.")
		reported = discovery.FallbackBlocks()
	}

	l.blocks = reported
	for _, b := range l.blocks {
		l.logger.Info("Monitoring block.",
			zap.String("name", b.Name), zap.String("selector", b.Selector))
	}
	return nil
}

// CaptureCycle captures every known block in order. A failing block is
// logged and skipped; the cycle never aborts over a single block. Afterwards
// the full metadata list is persisted.
func (l *Loop) CaptureCycle(ctx context.Context) error {
	ts := l.now()
	timestamp := ts.Format(time.RFC3339)
	suffix := ts.Format(timestampLayout)

	url, err := l.session.CurrentURL(ctx)
	if err != nil {
		l.logger.Debug("Could not read current URL; recording the target URL.", zap.Error(err))
		url = l.cfg.Monitor.TargetURL
	}

	captured := 0
	for _, block := range l.blocks {
		if ctx.Err() != nil {
			break
		}

		filename := fmt.Sprintf("%s_%s.png", sanitizeFileName(block.Name), suffix)
		path := filepath.Join(l.cfg.Monitor.ScreenshotDir, filename)

		if err := l.session.CaptureElement(ctx, block.Selector, path); err != nil {
			l.logger.Error("Failed to capture block.",
				zap.String("block", block.Name), zap.String("selector", block.Selector), zap.Error(err))
			continue
		}

		l.store.Append(schemas.ScreenshotMetadata{
			Timestamp:      timestamp,
			BlockName:      block.Name,
			ScreenshotPath: path,
			URL:            url,
		})
		captured++
		l.logger.Info("Captured block.",
			zap.String("block", block.Name), zap.String("path", path))
	}

	if err := l.store.Save(); err != nil {
		l.logger.Error("Failed to save metadata after cycle.", zap.Error(err))
	}

	l.logger.Info("Capture cycle completed.",
		zap.Int("captured", captured),
		zap.Int("blocks", len(l.blocks)),
		zap.Int("total_screenshots", l.store.Len()))
	return ctx.Err()
}

// Run executes the whole workflow until the context is canceled. Whatever
// the outcome, the metadata list gets a final save before returning; the
// browser teardown is owned by the caller's shutdown path.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.store.Save(); err != nil {
			l.logger.Error("Final metadata save failed.", zap.Error(err))
		}
		if l.session != nil {
			// The run context may already be canceled; closing must still happen.
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := l.session.Close(closeCtx); err != nil {
				l.logger.Warn("Failed to close browser session.", zap.Error(err))
			}
		}
		l.logger.Info("Monitoring finished.",
			zap.String("run_id", l.runID),
			zap.Int("total_screenshots", l.store.Len()),
			zap.String("screenshot_dir", l.cfg.Monitor.ScreenshotDir),
			zap.String("metadata_file", l.cfg.Monitor.MetadataFile))
	}()

	l.logger.Info("Starting scheduled screenshot monitoring.",
		zap.String("run_id", l.runID),
		zap.String("url", l.cfg.Monitor.TargetURL),
		zap.Duration("interval", l.cfg.Monitor.Interval()),
		zap.String("screenshot_dir", l.cfg.Monitor.ScreenshotDir),
		zap.String("metadata_file", l.cfg.Monitor.MetadataFile))

	if err := l.WaitForLogin(ctx); err != nil {
		return err
	}

	if err := l.DiscoverBlocks(ctx); err != nil {
		return err
	}
	if len(l.blocks) == 0 {
		return ErrNoBlocks
	}

	for cycle := 1; ; cycle++ {
		l.logger.Info("Starting capture cycle.", zap.Int("cycle", cycle))

		// Reload so each cycle captures current data. A failed reload is
		// recoverable: the page from the previous cycle is still there.
		if err := l.session.Navigate(ctx, l.cfg.Monitor.TargetURL); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("Page reload failed; capturing the current page state.", zap.Error(err))
		}
		if err := sleepCtx(ctx, l.cfg.Monitor.CycleSettle); err != nil {
			return err
		}

		if err := l.CaptureCycle(ctx); err != nil {
			return err
		}

		l.logger.Info("Waiting for next cycle.",
			zap.Duration("interval", l.cfg.Monitor.Interval()))
		if err := sleepCtx(ctx, l.cfg.Monitor.Interval()); err != nil {
			return err
		}
	}
}

// sleepCtx sleeps for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFileName makes a block name safe for use in a filename. The
// metadata record keeps the original name.
func sanitizeFileName(name string) string {
	cleaned := unsafeFileChars.ReplaceAllString(name, "-")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "block"
	}
	return cleaned
}
