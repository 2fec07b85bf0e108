// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
	"github.com/xkilldash9x/dashwatch-cli/internal/config"
)

const captureTimeout = 30 * time.Second

// Session represents an active browser tab and implements schemas.SessionContext.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.SessionContext = (*Session)(nil)

// NewSession creates a Session wrapper around a tab context.
func NewSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	logger *zap.Logger,
	onClose func(),
) (*Session, error) {
	sessionID := uuid.New().String()
	return &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", sessionID)),
		cfg:     cfg,
		onClose: onClose,
	}, nil
}

// Initialize connects the CDP target and applies session-wide settings.
func (s *Session) Initialize(ctx context.Context) error {
	initCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	// Ensure the target (tab) is created and CDP is connected.
	if err := chromedp.Run(initCtx); err != nil {
		return fmt.Errorf("failed to initialize browser target connection: %w", err)
	}

	if len(s.cfg.Network.Headers) > 0 {
		headers := make(network.Headers, len(s.cfg.Network.Headers))
		for k, v := range s.cfg.Network.Headers {
			headers[k] = v
		}
		if err := chromedp.Run(initCtx, network.SetExtraHTTPHeaders(headers)); err != nil {
			return fmt.Errorf("failed to apply custom headers: %w", err)
		}
	}

	return nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads the URL and waits for the page to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.Network.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	if err := s.stabilize(opCtx); err != nil {
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		s.logger.Warn("Page stabilization failed after navigation (non-critical).", zap.Error(err))
	}

	return nil
}

// stabilize waits for the DOM to be ready plus a fixed post-load settle.
// Dashboards typically keep polling in the background, so network-idle is not
// a usable signal here; a quiet period is.
func (s *Session) stabilize(ctx context.Context) error {
	stabCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := chromedp.Run(stabCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for document body: %w", err)
	}

	wait := s.cfg.Network.PostLoadWait
	if wait <= 0 {
		wait = 1500 * time.Millisecond
	}
	return chromedp.Run(stabCtx, chromedp.Sleep(wait))
}

// CurrentURL reports the URL of the page currently loaded in the tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read current location: %w", err)
	}
	return url, nil
}

// CaptureDOM returns the serialized outer HTML of the current document.
func (s *Session) CaptureDOM(ctx context.Context) (string, error) {
	var domContent string
	if err := s.runActions(ctx, chromedp.OuterHTML("html", &domContent, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture DOM: %w", err)
	}
	return domContent, nil
}

// CaptureElement screenshots the first element matching the CSS selector and
// writes the PNG to path.
func (s *Session) CaptureElement(ctx context.Context, selector, path string) error {
	s.logger.Debug("Capturing element screenshot",
		zap.String("selector", selector), zap.String("path", path))

	captureCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	var buf []byte
	err := s.runActions(captureCtx, chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed for selector %q: %w", selector, err)
	}
	if len(buf) == 0 {
		return fmt.Errorf("screenshot for selector %q produced no data", selector)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot file %q: %w", path, err)
	}
	return nil
}

// Close terminates the browser session. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	// Close the tab gracefully first so the browser releases the target now
	// rather than at allocator teardown. The session context may already
	// carry a dead parent by the time shutdown runs; only its CDP values are
	// needed for the close call.
	if s.ctx != nil {
		if err := chromedp.Cancel(Detach(s.ctx)); err != nil {
			s.logger.Debug("Graceful tab close failed; forcing context cancel.", zap.Error(err))
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// runActions executes chromedp actions, respecting both the session lifetime
// and the incoming request context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}
