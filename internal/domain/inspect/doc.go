// Package inspect answers read-only queries over the last assembled
// document for the editor's inspect panel: CSS selector and XPath
// matching plus document metadata. Never mutates the document.
package inspect
