// Package config holds the tunables of the dissector: buffering limits,
// per-component decoding policies and the server personality presets that
// emulate how real-world servers resolve ambiguous traffic.
package config

import "github.com/rs/zerolog"

// Personality selects a named server emulation profile. Ambiguous input has
// no single correct reading; the profile decides tie-breaks the same way the
// emulated server would, so the dissector sees what the endpoint sees.
type Personality uint8

const (
	// Minimal applies no transformations beyond structural parsing.
	Minimal Personality = iota
	// Generic behaves like a reasonable modern server.
	Generic
	// IDS decodes as aggressively as possible, trading fidelity to any one
	// server for maximal visibility.
	IDS
	IIS4
	IIS5
	IIS51
	IIS6
	IIS7
	IIS75
	Apache2
)

var personalities = []string{
	"minimal", "generic", "ids", "iis4", "iis5", "iis5.1", "iis6", "iis7", "iis7.5", "apache2",
}

func (p Personality) String() string {
	if int(p) >= len(personalities) {
		return "unknown"
	}

	return personalities[p]
}

// DecodePolicy tells the decoder what to do with a malformed percent
// sequence. Whatever the choice, the invalid-encoding flag is raised.
type DecodePolicy uint8

const (
	// PreservePercent leaves the malformed sequence untouched.
	PreservePercent DecodePolicy = iota
	// RemovePercent drops the percent character and keeps the rest.
	RemovePercent
	// ProcessInvalid decodes anyway, from whatever characters follow.
	ProcessInvalid
)

// CompressionPolicy decides the fate of compressed response bodies.
type CompressionPolicy uint8

const (
	// DecodeCompressed inflates bodies and delivers plaintext.
	DecodeCompressed CompressionPolicy = iota
	// PassthroughCompressed delivers bodies as transmitted.
	PassthroughCompressed
	// RejectCompressed treats a compressed body as a stream error.
	RejectCompressed
)

type (
	// Encoding configures percent-decoding of one URI component. Path and
	// query carry independent instances: a profile may well decode %2F in
	// the query while preserving it in the path.
	Encoding struct {
		// Policy handles malformed percent sequences.
		Policy DecodePolicy
		// DecodeU enables Microsoft-style %uXXXX decoding.
		DecodeU bool
		// ConvertBackslash rewrites '\' into '/'.
		ConvertBackslash bool
		// DecodeSeparators substitutes literal separators for %2F and %5C.
		// The encoded-separator flag is raised either way.
		DecodeSeparators bool
		// CompressSeparators collapses consecutive slashes.
		CompressSeparators bool
		// Lowercase folds the decoded component to lowercase.
		Lowercase bool
		// ConvertUTF8 replaces multi-byte sequences with single-byte
		// best-fit approximations after validation.
		ConvertUTF8 bool
		// BestfitReplacement substitutes characters with no best-fit
		// mapping. Defaults to '?'.
		BestfitReplacement byte
		// EncodedNulTerminates truncates the component at a decoded %00.
		EncodedNulTerminates bool
		// RawNulTerminates truncates the component at a literal NUL byte.
		RawNulTerminates bool
	}

	// Fields bounds protocol elements that must be buffered whole.
	Fields struct {
		// SoftLimit is the length beyond which a field is flagged as
		// abnormally long but still processed.
		SoftLimit int
		// HardLimit caps the bytes buffered for one partial protocol
		// element across feed calls. Exceeding it is a stream error, the
		// only defense against a peer streaming an endless header.
		HardLimit int
		// MaxNumber bounds how many header fields a single block may carry.
		MaxNumber int
	}

	// Forms switches the secondary parsers that populate Transaction
	// params and cookies. Disabling one skips the work; the raw bytes
	// still flow to the body callbacks either way.
	Forms struct {
		// Query parses the request query string at request-line time.
		Query bool
		// Urlencoded parses bodies of type application/x-www-form-urlencoded.
		Urlencoded bool
		// Multipart decomposes bodies of type multipart/form-data.
		Multipart bool
		// Cookies parses the request Cookie header.
		Cookies bool
	}

	// Multipart controls form decomposition.
	Multipart struct {
		// ExtractFiles enables delivery of file part contents to the file
		// data callback.
		ExtractFiles bool
		// FileSizeLimit stops file extraction past this many bytes per
		// part. Metadata is still reported.
		FileSizeLimit int64
	}

	// Decompression controls response content decoding.
	Decompression struct {
		Policy CompressionPolicy
		// BombLimit caps total bytes produced by inflating one body.
		BombLimit int64
		// BombRatio is the maximal produced-to-consumed ratio before the
		// body is declared a decompression bomb.
		BombRatio int64
		// LayerLimit bounds stacked Content-Encoding layers.
		LayerLimit int
	}
)

// Config gathers every knob consulted at parse time. Always start from
// Default() and modify: a zero Config has zero limits and will refuse
// everything.
type Config struct {
	Personality Personality
	// Path and Query are the per-component decoder policies.
	Path  Encoding
	Query Encoding
	// Fields applies to request lines, header lines and chunk-size lines.
	Fields        Fields
	Forms         Forms
	Multipart     Multipart
	Decompression Decompression
	// Logger is the sink behind every connection journal. Defaults to a
	// disabled logger.
	Logger zerolog.Logger
}

// Default returns the baseline configuration with the Minimal personality.
// Apply a personality on top to emulate a concrete server.
func Default() *Config {
	return &Config{
		Personality: Minimal,
		Path: Encoding{
			Policy:             PreservePercent,
			BestfitReplacement: '?',
		},
		Query: Encoding{
			Policy:             PreservePercent,
			BestfitReplacement: '?',
		},
		Fields: Fields{
			SoftLimit: 9000,
			HardLimit: 18000,
			MaxNumber: 256,
		},
		Forms: Forms{
			Query:      true,
			Urlencoded: true,
			Multipart:  true,
			Cookies:    true,
		},
		Multipart: Multipart{
			ExtractFiles:  false,
			FileSizeLimit: 16 * 1024 * 1024,
		},
		Decompression: Decompression{
			Policy:     DecodeCompressed,
			BombLimit:  1024 * 1024,
			BombRatio:  2048,
			LayerLimit: 2,
		},
		Logger: zerolog.Nop(),
	}
}

// WithPersonality mutates the decoder options to the named profile's
// behavior and returns the config for chaining.
func (c *Config) WithPersonality(p Personality) *Config {
	c.Personality = p

	generic := func(e *Encoding) {
		e.ConvertBackslash = true
		e.DecodeSeparators = true
		e.CompressSeparators = true
	}

	switch p {
	case Minimal:
	case Generic, IIS7, IIS75:
		generic(&c.Path)
	case IDS:
		generic(&c.Path)
		c.Path.Lowercase = true
		c.Path.DecodeU = true
		c.Path.ConvertUTF8 = true
		c.Query.DecodeU = true
	case IIS4, IIS5, IIS51, IIS6:
		generic(&c.Path)
		c.Path.DecodeU = true
		c.Query.DecodeU = true
	case Apache2:
		c.Path.CompressSeparators = true
	}

	return c
}

// RequestLineNulTerminates reports whether the active personality cuts the
// request line at a raw NUL byte, the way Apache does.
func (c *Config) RequestLineNulTerminates() bool {
	return c.Personality == Apache2
}

// LenientLineEndings reports whether response parsing tolerates the bare-CR
// terminators and mixed ending sequences permissive servers emit. Minimal
// keeps the strict reading.
func (c *Config) LenientLineEndings() bool {
	return c.Personality != Minimal
}
