package form

import (
	"github.com/indigo-web/iter"
)

// Source tells which part of the request a parameter arrived in.
type Source uint8

const (
	SourceURL Source = iota
	SourceQuery
	SourceCookie
	SourceBody
)

var sources = [...]string{"url", "query", "cookie", "body"}

func (s Source) String() string {
	if int(s) >= len(sources) {
		return "unknown"
	}

	return sources[s]
}

// Param is one decoded request parameter.
type Param struct {
	Name   string
	Value  string
	Source Source
}

// Params keeps parameters in arrival order, duplicates included.
type Params []Param

// Value returns the value of the first parameter matching the name.
func (p Params) Value(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}

	return "", false
}

// Values returns the values of every parameter matching the name.
func (p Params) Values(name string) []string {
	var values []string
	for _, param := range p {
		if param.Name == name {
			values = append(values, param.Value)
		}
	}

	return values
}

// Iter returns an iterator over all parameters.
func (p Params) Iter() iter.Iterator[Param] {
	return iter.Slice(p)
}

// File is one upload carried in a multipart body. Content is retained only
// when file extraction is enabled, and never beyond the configured size
// limit; Size always counts the full upload.
type File struct {
	// Name is the form field name the file was posted under.
	Name string
	// Filename is the client-reported file name.
	Filename string
	// Type is the part's media type, empty when the part declared none.
	Type string
	// Size is the total length of the upload in bytes.
	Size int64
	// Content holds the captured bytes, nil when extraction is off.
	Content []byte
}
