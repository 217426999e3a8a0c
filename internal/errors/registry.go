package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Input Errors (E001-E009)
	// ============================================

	"E001": {
		Category: CategoryInput,
		Message:  "Input document could not be parsed",
		Detail:   "The input is read with an HTML5 parser; only I/O failures are reported here.",
	},
	"E002": {
		Category: CategoryInput,
		Message:  "Input document has no root element",
		Detail:   "A document must contain an <html> element to be saved.",
	},
	"E003": {
		Category: CategoryInput,
		Message:  "Input document is too large",
		Detail:   "The request body exceeded the configured size limit.",
	},
	"E004": {
		Category: CategoryInput,
		Message:  "Document location is required",
		Detail:   "Pass the address the document is published at with ?url= or --url.",
	},

	// ============================================
	// Sanitizer Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategorySanitize,
		Message:  "Invalid sanitizer selector",
		Detail:   "The selector for removable markup could not be compiled.",
	},

	// ============================================
	// Render Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryRender,
		Message:  "Save aborted by a listener",
		Detail:   "A save or beforesave listener returned an error; no output was produced.",
	},
	"E021": {
		Category: CategoryRender,
		Message:  "Serialization failed",
		Detail:   "The document tree could not be written out.",
	},

	// ============================================
	// Diff Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryDiff,
		Message:  "Diff tool not configured",
		Detail:   "A diff needs a diff tool URL and either previousDiffURI or previousURI.",
	},

	// ============================================
	// Config Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryConfig,
		Message:  "Configuration file is invalid",
		Detail:   "docsave.json could not be decoded.",
	},
	"E041": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No docsave.json was found in this directory or any parent.",
	},
	"E042": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Publish Errors (E050-E059)
	// ============================================

	"E050": {
		Category: CategoryPublish,
		Message:  "Publishing failed",
		Detail:   "The artifact could not be written to its destination.",
	},
	"E051": {
		Category: CategoryPublish,
		Message:  "Invalid artifact name",
		Detail:   "Artifact names must be plain file names inside the output directory.",
	},

	// ============================================
	// CLI Errors (E060-E069)
	// ============================================

	"E060": {
		Category: CategoryCLI,
		Message:  "Unknown output format",
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
