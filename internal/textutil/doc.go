// Package textutil holds small string helpers for turning media titles and
// speaker names into safe file and directory names.
package textutil
