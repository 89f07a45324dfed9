package salsaauth

import (
	"embed"
)

//go:embed templates/emails
var templatesFS embed.FS

// GetTemplatesFS returns the embedded email templates for this package
func GetTemplatesFS() embed.FS {
	return templatesFS
}
