package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Lifecycle Errors (E101-E119)
	// ============================================

	"E101": {
		Category:   CategoryLifecycle,
		Message:    "Mount target missing",
		Detail:     "Mount was called with a target node that could not be resolved.",
		Suggestion: "Pass a live node to Mount",
		DocURL:     "https://morph.vango.dev/errors/E101",
	},
	"E102": {
		Category: CategoryLifecycle,
		Message:  "Lifecycle hook failed",
		Detail:   "A lifecycle hook returned an error or panicked. The lifecycle continued as if it had succeeded.",
		DocURL:   "https://morph.vango.dev/errors/E102",
	},
	"E103": {
		Category:   CategoryLifecycle,
		Message:    "Lifecycle hook timed out",
		Detail:     "A continuation or promise hook did not settle before the hook timeout. The lifecycle continued without it.",
		Suggestion: "Call the continuation on every code path, or raise hooks.timeout",
		DocURL:     "https://morph.vango.dev/errors/E103",
	},
	"E104": {
		Category: CategoryCache,
		Message:  "Stale cache entry discarded",
		Detail:   "A cached node was disconnected or outside the querying scope and was re-resolved.",
		DocURL:   "https://morph.vango.dev/errors/E104",
	},
	"E105": {
		Category:   CategoryLifecycle,
		Message:    "Render function panicked",
		Detail:     "The render pass was abandoned and the live tree was left as it was.",
		Suggestion: "Recover inside the render function or return empty markup",
		DocURL:     "https://morph.vango.dev/errors/E105",
	},
	"E106": {
		Category: CategoryLifecycle,
		Message:  "Child root not found",
		Detail:   "A child instance rendered during its parent's pass but its root node was not present after the parent was patched.",
		DocURL:   "https://morph.vango.dev/errors/E106",
	},

	// ============================================
	// Config Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://morph.vango.dev/errors/E120",
	},
	"E121": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No morph.json, morph.yaml or morph.yml was found.",
		Suggestion: "Run from the project root or pass --config",
		DocURL:     "https://morph.vango.dev/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   "https://morph.vango.dev/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
		DocURL:   "https://morph.vango.dev/errors/E123",
	},

	// ============================================
	// Archive Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryArchive,
		Message:  "Archive operation failed",
		DocURL:   "https://morph.vango.dev/errors/E130",
	},
	"E131": {
		Category:   CategoryArchive,
		Message:    "Archive not configured",
		Detail:     "The archive bucket is empty.",
		Suggestion: "Set archive.bucket in morph.json or pass --bucket",
		DocURL:     "https://morph.vango.dev/errors/E131",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Unknown demo component",
		DocURL:   "https://morph.vango.dev/errors/E140",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
