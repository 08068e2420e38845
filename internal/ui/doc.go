// Package ui formats credo's terminal output.
//
// Formatters colour repository names, paths, key states and errors when the
// terminal supports it. With NO_COLOR set, or when output isn't a terminal,
// some formatters fall back to plain decorations instead:
//
//	ui.Code.Sprint("credo exports")  // `credo exports`
//	ui.Highlight.Sprint("acme")      // 'acme'
//	ui.Muted.Sprint("retiring")      // (retiring)
//
// Done, Failed, Scope and Underline build the recurring shapes of the
// show, import, rotate and invalidate output.
package ui
