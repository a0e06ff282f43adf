package http1

import (
	"strconv"
	"strings"

	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/headers"
	"github.com/wireparse/wireparse/http/status"
	"github.com/indigo-web/utils/strcomp"

	"github.com/wireparse/wireparse/internal/normalize"
	"github.com/wireparse/wireparse/journal"
)

// maxFieldRepetitions caps how many same-name repetitions keep being merged.
// Occurrences past the cap are dropped outright.
const maxFieldRepetitions = 64

// fieldBlock assembles one header or trailer block out of physical lines.
// A field under construction stays pending until the next line shows it is
// not folded; repairs and their journal entries happen here, so the two
// direction machines only deal in complete lines.
type fieldBlock struct {
	dir status.Direction
	cfg *config.Config
	j   *journal.Journal

	tx  *http.Transaction
	dst *headers.Headers

	pending       headers.Header
	hasPending    bool
	reps          int
	warnedOverCap bool
}

func newFieldBlock(dir status.Direction, cfg *config.Config, j *journal.Journal) fieldBlock {
	return fieldBlock{dir: dir, cfg: cfg, j: j}
}

// begin points the assembler at the destination table of the next block.
// Repetition accounting survives across the header and trailer blocks of one
// transaction: trailers repeat against headers too.
func (b *fieldBlock) begin(tx *http.Transaction, dst *headers.Headers) {
	if b.tx != tx {
		b.reps = 0
		b.warnedOverCap = false
	}

	b.tx = tx
	b.dst = dst
	b.pending = headers.Header{}
	b.hasPending = false
}

// line feeds one physical line, terminator already stripped. The string must
// be owned by the caller, not alias a transient feed buffer.
func (b *fieldBlock) line(s string, offset int64) error {
	if len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		return b.folded(s, offset)
	}

	if err := b.flush(offset); err != nil {
		return err
	}

	b.parse(s, offset)

	return nil
}

// terminator ends the block, flushing whatever field is still pending.
func (b *fieldBlock) terminator(offset int64) error {
	return b.flush(offset)
}

func (b *fieldBlock) folded(raw string, offset int64) error {
	if !b.hasPending {
		// A continuation with nothing to continue. Flagged, then salvaged
		// as a header of its own.
		b.invalidFolding(offset)
		b.parse(trimLeftSpan(raw), offset)

		return nil
	}

	content := trimSpan(raw)
	if content == "" {
		// Whitespace-only continuation carries nothing attachable.
		b.invalidFolding(offset)

		return nil
	}

	if b.dir == status.DirResponse && b.cfg.Personality != config.Minimal && looksLikeHeader(content) {
		// The line folds by its first byte yet reads like a complete
		// header. Permissive servers take it as one, so the emulation
		// follows.
		b.invalidFolding(offset)

		if err := b.flush(offset); err != nil {
			return err
		}

		b.parse(content, offset)

		return nil
	}

	if len(b.pending.Raw)+len(raw)+1 > b.cfg.Fields.HardLimit {
		return b.overLimit(len(b.pending.Raw)+len(raw)+1, offset)
	}

	if !b.tx.Flags.Has(flags.FieldFolded) {
		b.j.Note(b.dir, journal.CodeFoldedLine, offset, b.prefix()+" field is folded")
	}

	b.tx.Flags = b.tx.Flags.Set(flags.FieldFolded)
	b.pending.Flags = b.pending.Flags.Set(flags.FieldFolded)
	b.pending.Raw += "\n" + raw

	if b.pending.Value == "" {
		b.pending.Value = content
	} else {
		b.pending.Value += " " + content
	}

	return nil
}

// parse splits a non-folded line into the pending field entry, applying the
// name repairs. An unsplittable line is dropped on the spot; recovery is
// local in all other cases too.
func (b *fieldBlock) parse(s string, offset int64) {
	entry := headers.Header{Raw: s}

	if strings.IndexByte(s, 0) >= 0 {
		b.flag(&entry, flags.FieldRawNul, journal.CodeFieldNulByte, offset,
			b.prefix()+" header value contains null.")
	}

	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		if !b.tx.Flags.Has(flags.FieldUnparseable) {
			b.j.Warn(b.dir, journal.CodeFieldMissingColon, offset, b.missingColon())
		}

		b.tx.Flags = b.tx.Flags.Set(flags.FieldUnparseable)

		return
	}

	name := s[:colon]
	value := s[colon+1:]

	base := name
	for len(base) > 0 && normalize.IsSpace(base[len(base)-1]) {
		base = base[:len(base)-1]
	}

	if len(base) != len(name) {
		b.flag(&entry, flags.FieldInvalid, journal.CodeFieldLWSAfterName, offset,
			b.prefix()+" field invalid: LWS after name")
	}

	if base == "" {
		b.flag(&entry, flags.FieldInvalid, journal.CodeFieldEmptyName, offset,
			b.prefix()+" field invalid: empty name")
	} else if !isToken(base) {
		b.flag(&entry, flags.FieldInvalid, journal.CodeFieldNameNotToken, offset,
			b.prefix()+" header name is not a token")
	}

	entry.Name = base
	entry.Value = trimSpan(value)
	b.pending = entry
	b.hasPending = true
}

func (b *fieldBlock) flush(offset int64) error {
	if !b.hasPending {
		return nil
	}

	entry := b.pending
	b.pending = headers.Header{}
	b.hasPending = false

	if len(entry.Raw) > b.cfg.Fields.SoftLimit {
		b.flag(&entry, flags.FieldLong, journal.CodeFieldOverLimit, offset,
			b.prefix()+" field over the soft limit: size "+strconv.Itoa(len(entry.Raw))+
				" limit "+strconv.Itoa(b.cfg.Fields.SoftLimit)+".")
	}

	if b.dst.Len() >= b.cfg.Fields.MaxNumber {
		if !b.warnedOverCap {
			b.warnedOverCap = true
			b.j.Warn(b.dir, journal.CodeTooManyFields, offset,
				"Too many "+b.dir.String()+" headers")
		}

		return nil
	}

	if existing := b.dst.Ref(entry.Name); existing != nil {
		b.repeated(existing, entry, offset)

		return nil
	}

	b.dst.Add(entry)

	return nil
}

// repeated folds a same-name field into its first occurrence. Values join
// comma-separated, except Content-Length, which is compared numerically and
// never merged: a disagreement there is a smuggling vector, not a list.
func (b *fieldBlock) repeated(existing *headers.Header, incoming headers.Header, offset int64) {
	second := !existing.Flags.Has(flags.FieldRepeated)
	if !second {
		if b.reps >= maxFieldRepetitions {
			return
		}

		b.reps++
	}

	existing.Flags = existing.Flags.Set(flags.FieldRepeated)
	b.tx.Flags = b.tx.Flags.Set(flags.FieldRepeated)

	if strcomp.EqualFold(incoming.Name, "content-length") {
		// Small formatting differences must not count, so no string
		// comparison here.
		have, _, haveOk := normalize.ParseContentLength(existing.Value)
		got, _, gotOk := normalize.ParseContentLength(incoming.Value)

		if !haveOk || !gotOk || have != got {
			b.j.Warn(b.dir, journal.CodeDuplicateContentLength, offset,
				"Ambiguous "+b.dir.String()+" C-L value")
			b.tx.Flags = b.tx.Flags.Set(flags.RequestSmuggling)
		}
	} else {
		existing.Value += ", " + incoming.Value
	}

	if second {
		b.j.Warn(b.dir, journal.CodeFieldRepeated, offset, "Repetition for header")
	}
}

func (b *fieldBlock) invalidFolding(offset int64) {
	if !b.tx.Flags.Has(flags.InvalidFolding) {
		b.j.Warn(b.dir, journal.CodeFieldInvalidFolding, offset,
			"Invalid "+b.dir.String()+" field folding")
	}

	b.tx.Flags = b.tx.Flags.Set(flags.InvalidFolding)
}

// flag raises bit on both the entry and the transaction, logging the first
// occurrence per transaction.
func (b *fieldBlock) flag(entry *headers.Header, bit flags.Flags, code journal.Code, offset int64, msg string) {
	if !b.tx.Flags.Has(bit) {
		b.j.Warn(b.dir, code, offset, msg)
	}

	entry.Flags = entry.Flags.Set(bit)
	b.tx.Flags = b.tx.Flags.Set(bit)
}

func (b *fieldBlock) overLimit(size int, offset int64) error {
	b.j.Err(b.dir, journal.CodeFieldOverLimit, offset,
		b.prefix()+" buffer over the limit: size "+strconv.Itoa(size)+
			" limit "+strconv.Itoa(b.cfg.Fields.HardLimit)+".")

	return status.ErrFieldTooLong
}

func (b *fieldBlock) missingColon() string {
	if b.dir == status.DirRequest {
		return "Request field invalid: colon missing"
	}

	return "Response field invalid: missing colon."
}

func (b *fieldBlock) prefix() string {
	if b.dir == status.DirRequest {
		return "Request"
	}

	return "Response"
}

// looksLikeHeader reports whether s opens with a non-empty token run
// immediately followed by a colon.
func looksLikeHeader(s string) bool {
	i := 0
	for i < len(s) && tchar[s[i]] {
		i++
	}

	return i > 0 && i < len(s) && s[i] == ':'
}
