// api/schemas/schemas.go
package schemas

// ScreenshotBlock identifies one page region targeted for capture.
// Blocks are produced once by discovery (or the fallback set) and are
// immutable for the lifetime of the process.
type ScreenshotBlock struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// ScreenshotMetadata records one successful element capture. Records are
// append-only; the metadata file on disk always reflects the full in-memory
// list as of the last successful save.
type ScreenshotMetadata struct {
	// Timestamp is the RFC3339 time at which the capture cycle ran.
	Timestamp string `json:"timestamp"`
	// BlockName is the discovery-assigned name of the captured region.
	BlockName string `json:"block_name"`
	// ScreenshotPath is the path of the PNG file, relative to the working directory.
	ScreenshotPath string `json:"screenshot_path"`
	// URL is the page URL at capture time.
	URL string `json:"url"`
}

// GenerationOptions carries per-request tuning for an LLM call.
type GenerationOptions struct {
	Temperature     float32 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
}

// GenerationRequest is the provider-agnostic input to an LLM client.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}
