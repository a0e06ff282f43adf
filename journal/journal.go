// Package journal records parse anomalies and lifecycle events per
// connection. Every entry lands in an in-memory list the embedding
// application can walk after the fact, and is mirrored to a zerolog sink as
// it happens. The journal never influences parsing decisions.
package journal

import (
	"github.com/rs/zerolog"

	"github.com/wireparse/wireparse/http/status"
)

type Level uint8

const (
	Error Level = iota
	Warning
	Notice
	Info
	Debug
)

var levelNames = [...]string{
	Error:   "error",
	Warning: "warning",
	Notice:  "notice",
	Info:    "info",
	Debug:   "debug",
}

func (l Level) String() string {
	if int(l) >= len(levelNames) {
		return "unknown"
	}

	return levelNames[l]
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Error:
		return zerolog.ErrorLevel
	case Warning:
		return zerolog.WarnLevel
	case Notice, Info:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// Entry is one recorded event. Offset is the stream offset of the direction
// the event was observed on at the time it was recorded.
type Entry struct {
	Level     Level
	Code      Code
	Direction status.Direction
	Offset    int64
	Message   string
}

// Journal accumulates entries for one connection.
type Journal struct {
	entries []Entry
	sink    zerolog.Logger
	onEntry func(Entry)
}

// New returns a journal mirroring entries to sink. A zerolog.Nop() sink
// disables mirroring.
func New(sink zerolog.Logger) *Journal {
	return &Journal{sink: sink}
}

// OnEntry installs a callback invoked synchronously for every new entry.
func (j *Journal) OnEntry(fn func(Entry)) {
	j.onEntry = fn
}

func (j *Journal) Record(e Entry) {
	j.entries = append(j.entries, e)

	j.sink.WithLevel(e.Level.zerolog()).
		Str("code", e.Code.String()).
		Stringer("direction", e.Direction).
		Int64("offset", e.Offset).
		Msg(e.Message)

	if j.onEntry != nil {
		j.onEntry(e)
	}
}

func (j *Journal) Warn(dir status.Direction, code Code, offset int64, msg string) {
	j.Record(Entry{Level: Warning, Code: code, Direction: dir, Offset: offset, Message: msg})
}

func (j *Journal) Err(dir status.Direction, code Code, offset int64, msg string) {
	j.Record(Entry{Level: Error, Code: code, Direction: dir, Offset: offset, Message: msg})
}

func (j *Journal) Note(dir status.Direction, code Code, offset int64, msg string) {
	j.Record(Entry{Level: Notice, Code: code, Direction: dir, Offset: offset, Message: msg})
}

// Entries returns every entry recorded so far, oldest first.
func (j *Journal) Entries() []Entry {
	return j.entries
}

// Find returns the first entry with the given code, or nil.
func (j *Journal) Find(code Code) *Entry {
	for i := range j.entries {
		if j.entries[i].Code == code {
			return &j.entries[i]
		}
	}

	return nil
}
