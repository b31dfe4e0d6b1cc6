// Package markdown renders converted documents to HTML for the share view and
// reads or writes the YAML front matter attached to exported files.
package markdown
