package http

import (
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/journal"
)

// TxHook observes a transaction at a lifecycle boundary. The verdict steers
// the parser: status.Continue proceeds, status.Pause suspends the direction
// the event fired on with unconsumed input reported back to the caller, and
// status.Abort makes that direction terminal.
type TxHook func(tx *Transaction) status.Control

// DataHook observes a slice of body data. The slice is valid only for the
// duration of the call and aliases the feed buffer or a decode scratch;
// observers that need the bytes later must copy. A zero-length call marks
// the end of the body stream for that direction.
type DataHook func(tx *Transaction, data []byte) status.Control

// FileHook observes decoded multipart file content as it is recognized.
// Filename and content-type come from the part headers; data follows
// DataHook aliasing rules.
type FileHook func(tx *Transaction, filename, contentType string, data []byte) status.Control

// Hooks is the observer registry of a parser. Every member is optional; a
// nil hook is skipped and treated as status.Continue. Hooks run synchronously
// on the goroutine that fed the data, in the order events occur on the wire.
type Hooks struct {
	// RequestStart fires when a request line begins, right after the
	// transaction is created.
	RequestStart TxHook
	// RequestLine fires once the request line is parsed and the URI is
	// normalized.
	RequestLine TxHook
	// RequestHeaders fires after the request header block, body framing
	// already resolved.
	RequestHeaders TxHook
	// RequestBodyData fires for each decoded span of request body.
	RequestBodyData DataHook
	// RequestTrailers fires after a chunked request's trailer block.
	RequestTrailers TxHook
	// RequestComplete fires when the request side reaches its end.
	RequestComplete TxHook

	ResponseStart    TxHook
	ResponseLine     TxHook
	ResponseHeaders  TxHook
	ResponseBodyData DataHook
	ResponseTrailers TxHook
	ResponseComplete TxHook

	// TransactionComplete fires once both directions of a transaction are
	// complete, after the direction-specific completion hooks.
	TransactionComplete TxHook

	// FileData fires for multipart file parts when extraction is enabled.
	FileData FileHook

	// Log mirrors every journal entry as it is recorded.
	Log func(entry journal.Entry)
}

// OnRequestStart runs the hook if set.
func (h *Hooks) OnRequestStart(tx *Transaction) status.Control {
	return h.run(h.RequestStart, tx)
}

func (h *Hooks) OnRequestLine(tx *Transaction) status.Control {
	return h.run(h.RequestLine, tx)
}

func (h *Hooks) OnRequestHeaders(tx *Transaction) status.Control {
	return h.run(h.RequestHeaders, tx)
}

func (h *Hooks) OnRequestBodyData(tx *Transaction, data []byte) status.Control {
	if h == nil || h.RequestBodyData == nil {
		return status.Continue
	}

	return h.RequestBodyData(tx, data)
}

func (h *Hooks) OnRequestTrailers(tx *Transaction) status.Control {
	return h.run(h.RequestTrailers, tx)
}

func (h *Hooks) OnRequestComplete(tx *Transaction) status.Control {
	return h.run(h.RequestComplete, tx)
}

func (h *Hooks) OnResponseStart(tx *Transaction) status.Control {
	return h.run(h.ResponseStart, tx)
}

func (h *Hooks) OnResponseLine(tx *Transaction) status.Control {
	return h.run(h.ResponseLine, tx)
}

func (h *Hooks) OnResponseHeaders(tx *Transaction) status.Control {
	return h.run(h.ResponseHeaders, tx)
}

func (h *Hooks) OnResponseBodyData(tx *Transaction, data []byte) status.Control {
	if h == nil || h.ResponseBodyData == nil {
		return status.Continue
	}

	return h.ResponseBodyData(tx, data)
}

func (h *Hooks) OnResponseTrailers(tx *Transaction) status.Control {
	return h.run(h.ResponseTrailers, tx)
}

func (h *Hooks) OnResponseComplete(tx *Transaction) status.Control {
	return h.run(h.ResponseComplete, tx)
}

func (h *Hooks) OnTransactionComplete(tx *Transaction) status.Control {
	return h.run(h.TransactionComplete, tx)
}

func (h *Hooks) OnFileData(tx *Transaction, filename, contentType string, data []byte) status.Control {
	if h == nil || h.FileData == nil {
		return status.Continue
	}

	return h.FileData(tx, filename, contentType, data)
}

func (h *Hooks) run(hook TxHook, tx *Transaction) status.Control {
	if h == nil || hook == nil {
		return status.Continue
	}

	return hook(tx)
}
