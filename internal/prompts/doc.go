// Package prompts loads the per-stage instruction templates and the style
// exemplars that steer extraction formatting. Templates are plain text files
// owned by the operator; this package only handles lookup and hint injection.
package prompts
