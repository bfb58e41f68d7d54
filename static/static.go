// Package static embeds the stylesheet and browser script.
package static

import "embed"

// FS holds css/ and js/.
//
//go:embed css js
var FS embed.FS
