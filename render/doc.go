// Package render turns a query presentation into text, JSON or a contact
// sheet image.
package render
