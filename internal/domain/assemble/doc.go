// Package assemble turns a project snapshot into a single
// self-contained HTML document: CSS and JS files inlined by kind in
// insertion order, instrumentation snippet injected ahead of user
// script. Textual inlining only; <link> and <script src> references
// in user HTML are never followed, and cross-file imports are not
// resolved.
package assemble
