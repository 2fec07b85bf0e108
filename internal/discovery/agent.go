// internal/discovery/agent.go
package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
	"github.com/xkilldash9x/dashwatch-cli/internal/llmutil"
)

// ReportFunc is the reporting tool handed to the agent. The agent invokes it
// at most once, with every block it identified. An agent run that never
// reports is treated by the caller as "no blocks found".
type ReportFunc func(blocks []schemas.ScreenshotBlock)

const systemPrompt = `You are a web page analyst embedded in a screenshot monitoring tool.
You are given a condensed outline of the DOM of a dashboard page.
Identify every chart, graph or dashboard block worth capturing as a screenshot.

For each block:
1. Give it a short descriptive name (e.g. "Sales Chart", "Revenue Graph", "Performance Dashboard").
2. Provide a CSS selector that uniquely identifies it. Prefer IDs, then unique classes.

Likely blocks are canvas elements, svg elements, and containers with
chart/graph/dashboard related ids or classes. Ignore navigation, headers and
decorative elements.

Respond with only a JSON array of objects of the form
[{"name": "...", "selector": "..."}]. Respond with [] if the page has no such blocks.`

// Agent asks the LLM to locate screenshot blocks on the current page and
// reports them through the provided callback.
type Agent struct {
	llm    schemas.LLMClient
	logger *zap.Logger

	temperature  float32
	outlineLimit int
}

// NewAgent creates a discovery agent. The temperature comes from the LLM
// configuration; discovery wants it low so selector output stays literal.
func NewAgent(llm schemas.LLMClient, temperature float32, outlineLimit int, logger *zap.Logger) *Agent {
	return &Agent{
		llm:          llm,
		logger:       logger.Named("discovery"),
		temperature:  temperature,
		outlineLimit: outlineLimit,
	}
}

// Run captures the current DOM, asks the model for screenshot blocks and
// invokes report with the parsed result. It returns an error when the page
// could not be read or the model produced no parseable answer; finding zero
// blocks is not an error.
func (a *Agent) Run(ctx context.Context, sess schemas.SessionContext, report ReportFunc) error {
	pageHTML, err := sess.CaptureDOM(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture page DOM: %w", err)
	}

	url, err := sess.CurrentURL(ctx)
	if err != nil {
		a.logger.Debug("Could not read current URL for the prompt.", zap.Error(err))
	}

	candidates, err := BuildOutline(pageHTML, a.outlineLimit)
	if err != nil {
		return fmt.Errorf("failed to build DOM outline: %w", err)
	}
	a.logger.Info("Built DOM outline for discovery.",
		zap.Int("candidates", len(candidates)), zap.String("url", url))

	resp, err := a.llm.GenerateResponse(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(url, candidates),
		Options: schemas.GenerationOptions{
			Temperature:     a.temperature,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return fmt.Errorf("discovery generation failed: %w", err)
	}

	parsed, err := llmutil.ParseJSONResponse[[]schemas.ScreenshotBlock](resp)
	if err != nil {
		return fmt.Errorf("discovery response was not parseable: %w", err)
	}

	blocks := sanitizeBlocks(*parsed)
	if len(blocks) == 0 {
		a.logger.Warn("Discovery agent reported no usable blocks.")
		return nil
	}

	report(blocks)
	return nil
}

func buildUserPrompt(url string, candidates []Candidate) string {
	var sb strings.Builder
	if url != "" {
		fmt.Fprintf(&sb, "Page URL: %s\n\n", url)
	}
	sb.WriteString("Candidate elements extracted from the DOM:\n")
	if len(candidates) == 0 {
		sb.WriteString("(none found by the pre-filter; rely on common chart markup)\n")
	} else {
		sb.WriteString(formatOutline(candidates))
	}
	sb.WriteString("\nReport the chart/dashboard blocks as a JSON array.")
	return sb.String()
}

// sanitizeBlocks drops entries the capture loop cannot act on.
func sanitizeBlocks(blocks []schemas.ScreenshotBlock) []schemas.ScreenshotBlock {
	out := make([]schemas.ScreenshotBlock, 0, len(blocks))
	for _, b := range blocks {
		b.Name = strings.TrimSpace(b.Name)
		b.Selector = strings.TrimSpace(b.Selector)
		if b.Name == "" || b.Selector == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FallbackBlocks returns the fixed block set used when discovery finds
// nothing: the common ways dashboards render charts.
func FallbackBlocks() []schemas.ScreenshotBlock {
	return []schemas.ScreenshotBlock{
		{Name: "Chart-Canvas", Selector: "canvas"},
		{Name: "Chart-SVG", Selector: "svg"},
		{Name: "Dashboard-Main", Selector: ".dashboard, .chart-container, .graph-container"},
	}
}
