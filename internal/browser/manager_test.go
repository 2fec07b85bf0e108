package browser

import (
	"context"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/dashwatch-cli/internal/config"
)

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	return &Manager{
		logger: zaptest.NewLogger(t),
		cfg:    cfg,
	}
}

// The allocator options are opaque funcs, so these tests validate the option
// assembly by count rather than by flag inspection.
func TestBuildAllocatorOptions_ExtendsDefaults(t *testing.T) {
	cfg := config.NewDefaultConfig()
	m := newTestManager(t, cfg)

	opts := m.buildAllocatorOptions()

	assert.Greater(t, len(opts), len(chromedp.DefaultExecAllocatorOptions))
}

func TestBuildAllocatorOptions_UserAgentAndArgs(t *testing.T) {
	cfg := config.NewDefaultConfig()
	m := newTestManager(t, cfg)
	base := len(m.buildAllocatorOptions())

	cfg.Browser.UserAgent = "Mozilla/5.0 (DashWatch)"
	cfg.Browser.Args = []string{"--window-size=1920,1080", "--force-dark-mode"}

	opts := m.buildAllocatorOptions()

	// One option for the user agent plus one per custom argument.
	assert.Equal(t, base+3, len(opts))
}

func TestNewSession_RequiresLaunchedBrowser(t *testing.T) {
	m := newTestManager(t, config.NewDefaultConfig())

	sess, err := m.NewSession(context.Background())

	require.Error(t, err)
	assert.Nil(t, sess)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestShutdown_WithoutLaunch(t *testing.T) {
	m := newTestManager(t, config.NewDefaultConfig())

	// No allocator, no sessions: shutdown must return immediately.
	assert.NoError(t, m.Shutdown(context.Background()))
}
