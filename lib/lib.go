// Package lib exposes the packing engine to programs embedding syncopy.
// It re-exports the core and exclude packages so callers need one import.
package lib

import (
	"syncopy/pkg/core"
	"syncopy/pkg/exclude"
	"syncopy/pkg/progress"
)

// Codecs re-exported from core
const (
	Gzip = core.Gzip
	LZ4  = core.LZ4

	DefaultLevel = core.DefaultLevel
)

// Entry kinds re-exported from core
const (
	KindFile = core.KindFile
	KindDir  = core.KindDir
)

type (
	Codec     = core.Codec
	Entry     = core.Entry
	EntryKind = core.EntryKind
	Options   = core.Options

	PathError    = core.PathError
	IOError      = core.IOError
	PatternError = exclude.PatternError

	// Reporter receives packing progress.
	Reporter = progress.Reporter
)

// Error values re-exported for errors.Is checks
var (
	ErrEmptyResult    = core.ErrEmptyResult
	ErrInvalidPattern = exclude.ErrInvalidPattern
)

// Pack is a wrapper around core.Pack
func Pack(opts Options) (int64, error) {
	return core.Pack(opts)
}

// ParseCodec is a wrapper around core.ParseCodec
func ParseCodec(name string) (Codec, error) {
	return core.ParseCodec(name)
}

// NewMatcher compiles exclusion patterns without packing, for callers that
// want to validate them up front.
func NewMatcher(patterns []string) (*exclude.Matcher, error) {
	return exclude.New(patterns)
}
