package web

import "embed"

// TemplatesFS embeds the report email templates.
//
//go:embed templates/email/*.tmpl
var TemplatesFS embed.FS
