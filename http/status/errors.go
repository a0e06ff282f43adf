package status

// ParseError is the error type crossing the package boundary. Fatal reports
// whether the condition desynchronized its stream direction; non-fatal errors
// accompany a flagged-and-continued recovery.
type ParseError struct {
	Message string
	Fatal   bool
}

func NewError(message string) error {
	return ParseError{Message: message}
}

func NewFatal(message string) error {
	return ParseError{Message: message, Fatal: true}
}

func (p ParseError) Error() string {
	return p.Message
}

var (
	ErrChunkSize      = NewFatal("cannot parse chunk size")
	ErrChunkTerm      = NewFatal("malformed chunk terminator")
	ErrContentLength  = NewFatal("invalid content length")
	ErrByteranges     = NewFatal("multipart/byteranges response cannot be framed")
	ErrDoubleContinue = NewFatal("second 100 Continue for the same transaction")
	ErrAborted        = NewFatal("inspection aborted by hook")
	ErrClosedStream   = NewFatal("data fed to a closed stream direction")

	ErrFieldTooLong   = NewFatal("field size over the limit")
	ErrTooManyHeaders = NewFatal("header count over the limit")
	ErrBodyTooLarge   = NewError("body over the processing limit")

	ErrDecompressBomb  = NewError("decompressed output over the bomb limit")
	ErrCodingRejected  = NewFatal("content coding rejected by policy")
	ErrCodingLayers    = NewError("content coding layers over the limit")
	ErrUnknownCoding   = NewError("unrecognized content coding")
	ErrMalformedCoding = NewError("malformed compressed payload")

	ErrBoundaryMissing = NewError("multipart boundary parameter is absent")
	ErrURLDecoding     = NewError("invalid urlencoded sequence")
)
