// Package library discovers playable tracks on disk.
package library

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "hidden", "extension"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for scan filters.
type Filter interface {
	// Name returns the filter name.
	Name() string
	// AppliesTo returns true if this filter should be applied to the given entry.
	AppliesTo(d fs.DirEntry) bool
	// Check decides whether the entry enters the library.
	Check(path string, d fs.DirEntry) Result
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Check runs all filters in sequence. Returns immediately if any filter
// rejects the entry. Filters are only applied if they declare they apply
// to the entry.
func (c *Chain) Check(path string, d fs.DirEntry) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(d) {
			continue
		}
		if result := f.Check(path, d); !result.Accepted {
			return result
		}
	}
	return Accept()
}

// HiddenFilter rejects dotfiles and dot-directories.
type HiddenFilter struct{}

func (f *HiddenFilter) Name() string {
	return "hidden"
}

func (f *HiddenFilter) AppliesTo(fs.DirEntry) bool {
	return true
}

func (f *HiddenFilter) Check(path string, _ fs.DirEntry) Result {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return Reject("hidden")
	}
	return Accept()
}

// ExtensionFilter rejects files whose extension is not in the allowed set.
type ExtensionFilter struct {
	allowed map[string]struct{}
}

// NewExtensionFilter builds a filter for the given extensions. Extensions
// are matched case-insensitively, with or without a leading dot.
func NewExtensionFilter(exts ...string) *ExtensionFilter {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &ExtensionFilter{allowed: allowed}
}

func (f *ExtensionFilter) Name() string {
	return "extension"
}

func (f *ExtensionFilter) AppliesTo(d fs.DirEntry) bool {
	// Directories have no meaningful extension
	return !d.IsDir()
}

func (f *ExtensionFilter) Check(path string, _ fs.DirEntry) Result {
	if _, ok := f.allowed[strings.ToLower(filepath.Ext(path))]; !ok {
		return Reject("extension")
	}
	return Accept()
}
