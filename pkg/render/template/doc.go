// Package template defines the renderer seam used by views and compound
// widgets to render page and fragment templates.
package template
