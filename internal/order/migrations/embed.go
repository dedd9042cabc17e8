// Package migrations embeds the Order service's SQL migrations so the
// binary can apply them at start-up without a separate migration tool.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
