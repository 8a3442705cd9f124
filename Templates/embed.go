// Package Templates holds the server-rendered HTML views.
package Templates

import "embed"

//go:embed *.html
var FS embed.FS
