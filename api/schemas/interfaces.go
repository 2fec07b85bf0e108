// api/schemas/interfaces.go
package schemas

import "context"

// SessionContext is the contract the monitor loop holds against an open
// browser tab. Implementations must be safe for sequential use from a single
// goroutine; the loop never issues concurrent operations against a session.
type SessionContext interface {
	// ID returns the unique identifier for the session.
	ID() string

	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// CurrentURL reports the URL of the page currently loaded in the tab.
	CurrentURL(ctx context.Context) (string, error)

	// CaptureDOM returns the serialized outer HTML of the current document.
	CaptureDOM(ctx context.Context) (string, error)

	// CaptureElement screenshots the first element matching the CSS selector
	// and writes it as a PNG file at path.
	CaptureElement(ctx context.Context, selector, path string) error

	// Close tears the session down. Close is idempotent.
	Close(ctx context.Context) error
}

// BrowserManager owns the browser process lifecycle and creates sessions.
type BrowserManager interface {
	NewSession(ctx context.Context) (SessionContext, error)
	Shutdown(ctx context.Context) error
}

// LLMClient generates a completion for a prompt pair. Implementations handle
// provider-specific transport, retries and safety settings.
type LLMClient interface {
	GenerateResponse(ctx context.Context, req GenerationRequest) (string, error)
}
