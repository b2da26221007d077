package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Delegation Errors (W001-W019)
	// ============================================

	"W001": {
		Category: CategoryDelegation,
		Message:  "Delegated handler failed",
		Detail:   "A handler stored on a node returned an error while an event propagated through its delegation root.",
	},
	"W002": {
		Category: CategoryDelegation,
		Message:  "Delegated handler panicked",
		Detail:   "A handler stored on a node panicked. The panic was recovered and reported through the event loop.",
	},

	// ============================================
	// Mount Errors (W020-W039)
	// ============================================

	"W020": {
		Category: CategoryRuntime,
		Message:  "Mount target missing",
		Detail:   "Mount and Hydrate need a target node to render into.",
	},
	"W021": {
		Category: CategoryRuntime,
		Message:  "Component failed",
		Detail:   "The component function returned an error. The partially mounted instance was torn down.",
	},
	"W022": {
		Category: CategoryRuntime,
		Message:  "Anchor outside target",
		Detail:   "The anchor passed to Mount is not a child of the target.",
	},

	// ============================================
	// Hydration Errors (W040-W059)
	// ============================================

	"W040": {
		Category: CategoryHydration,
		Message:  "Hydration mismatch",
		Detail:   "The server-rendered markup does not match what the component renders: a region marker is missing or a node differs in kind or tag.",
	},
	"W041": {
		Category: CategoryHydration,
		Message:  "Hydration failed",
		Detail:   "Hydration could not adopt the server-rendered markup and recovery was disabled.",
	},
	"W042": {
		Category: CategoryHydration,
		Message:  "Hydration already in progress",
		Detail:   "Hydrate was called while another hydration of the same runtime had not finished.",
	},

	// ============================================
	// Store Errors (W060-W079)
	// ============================================

	"W060": {
		Category: CategoryStore,
		Message:  "Store read after teardown",
		Detail:   "A store was read through a component's subscriptions after the component was unmounted. The value was read once without subscribing.",
	},

	// ============================================
	// Protocol Errors (W080-W099)
	// ============================================

	"W080": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The bridge frame is not valid JSON or lacks a required field.",
	},
	"W081": {
		Category: CategoryProtocol,
		Message:  "Unknown hydration id",
		Detail:   "No element in the document carries the data-hid referenced by the frame.",
	},
	"W082": {
		Category: CategoryProtocol,
		Message:  "Unsupported frame kind",
		Detail:   "The bridge only accepts event and ping frames.",
	},

	// ============================================
	// Config Errors (W100-W119)
	// ============================================

	"W100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is out of range.",
	},
	"W101": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
		Detail:   "The configuration file exists but could not be read or parsed as YAML.",
	},
	"W102": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A WEFT_* environment variable could not be parsed.",
	},

	// ============================================
	// CLI Errors (W120-W139)
	// ============================================

	"W120": {
		Category: CategoryCLI,
		Message:  "Input file unreadable",
		Detail:   "The HTML file given on the command line could not be opened or parsed.",
	},
	"W121": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The event bridge server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
