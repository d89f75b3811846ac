// Package resources embeds the assets the binary ships with: database
// migrations and translation files.
package resources

import "embed"

//go:embed migrations i18n
var FS embed.FS
