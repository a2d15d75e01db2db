// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxUnitBody bounds a content unit submission. Articles and prompt
	// sets carry rich text, so this is larger than other JSON bodies.
	MaxUnitBody = 1 << 20 // 1 MB

	// MaxWebhookBody bounds a billing webhook payload read before the
	// signature is checked.
	MaxWebhookBody = 64 << 10 // 64 KB
)
