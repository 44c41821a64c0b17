// Package exclude compiles gitignore-style exclusion patterns into a matcher.
//
// Patterns are evaluated against slash-separated names relative to a synthetic
// root (the archive namespace), never against absolute filesystem paths, so a
// pattern set behaves the same wherever the packed inputs live. The last rule
// that matches a name decides, negations included.
package exclude
