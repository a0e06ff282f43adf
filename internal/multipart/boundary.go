package multipart

// Flags describe everything observed while taking a multipart body apart,
// from the boundary declaration itself to the shape of individual parts.
type Flags uint32

const (
	// LFLine marks a boundary line terminated by a bare LF.
	LFLine Flags = 1 << iota
	// CRLFLine marks a boundary line terminated by CRLF.
	CRLFLine
	// LWSAfterBoundary marks whitespace between a boundary and its line end.
	LWSAfterBoundary
	// NonLWSAfterBoundary marks non-whitespace junk after a boundary.
	NonLWSAfterBoundary
	// HasPreamble marks data before the first boundary.
	HasPreamble
	// HasEpilogue marks data after the final boundary.
	HasEpilogue
	// SeenLastBoundary is set once the closing boundary was found.
	SeenLastBoundary
	// PartAfterLastBoundary marks a part opened after the closing boundary.
	PartAfterLastBoundary
	// Incomplete marks a body that ended before its closing boundary.
	Incomplete
	// BoundaryInvalid marks a boundary declaration that could not be taken
	// at face value.
	BoundaryInvalid
	// BoundaryUnusual marks a boundary declaration real browsers never
	// produce, quoting and stray whitespace included.
	BoundaryUnusual
	// BoundaryQuoted marks a double-quoted boundary value.
	BoundaryQuoted
	// PartUnknown marks a part whose role could not be determined.
	PartUnknown
	// PartHeaderFolding marks folded part headers.
	PartHeaderFolding
	// PartInvalid marks a structurally broken part.
	PartInvalid
)

func (f Flags) Has(bits Flags) bool {
	return f&bits == bits
}

const boundaryLengthLimit = 192

// FindBoundary extracts the boundary token from a Content-Type value. The
// media type itself is deliberately ignored: evasive clients mangle it in
// ways servers forgive, so only the boundary attribute decides whether a
// body is multipart. Oddities are reported via flags; a missing, empty or
// oversized boundary declines with ok false.
func FindBoundary(ct string) (boundary string, fl Flags, ok bool) {
	i := indexFold(ct, "boundary")
	if i == -1 {
		return "", fl, false
	}

	pos := i + len("boundary")

	// a second declaration makes the whole value ambiguous
	if indexFold(ct[pos:], "boundary") != -1 {
		fl |= BoundaryInvalid
	}

	for pos < len(ct) && (ct[pos] == ' ' || ct[pos] == '\t') {
		fl |= BoundaryUnusual
		pos++
	}

	if pos >= len(ct) || ct[pos] != '=' {
		return "", fl | BoundaryInvalid, false
	}
	pos++

	for pos < len(ct) && (ct[pos] == ' ' || ct[pos] == '\t') {
		fl |= BoundaryUnusual
		pos++
	}

	quoted := false
	if pos < len(ct) && ct[pos] == '"' {
		quoted = true
		fl |= BoundaryQuoted | BoundaryUnusual
		pos++
	}

	start := pos
	for pos < len(ct) {
		c := ct[pos]
		if quoted {
			if c == '"' {
				break
			}
		} else {
			if c == ',' || c == ';' {
				break
			}

			if c == ' ' || c == '\t' {
				fl |= BoundaryUnusual
			}
		}

		pos++
	}

	if quoted && pos == len(ct) {
		fl |= BoundaryInvalid
	}

	boundary = ct[start:pos]
	if boundary == "" || len(boundary) > boundaryLengthLimit {
		return "", fl | BoundaryInvalid, false
	}

	return boundary, fl, true
}

// indexFold is strings.Index with ASCII case folding applied to both sides.
func indexFold(str, substr string) int {
	for i := 0; i+len(substr) <= len(str); i++ {
		j := 0
		for ; j < len(substr); j++ {
			if !foldEq(str[i+j], substr[j]) {
				break
			}
		}

		if j == len(substr) {
			return i
		}
	}

	return -1
}

func foldEq(a, b byte) bool {
	if 'A' <= a && a <= 'Z' {
		a += 'a' - 'A'
	}
	if 'A' <= b && b <= 'Z' {
		b += 'a' - 'A'
	}

	return a == b
}
