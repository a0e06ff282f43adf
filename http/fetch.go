package http

import "io"

// Fetcher is a pull source of body bytes. Fetch returns the next chunk and
// io.EOF once the source is drained; final bytes may arrive together with
// io.EOF. Returned slices stay valid until the next Fetch call.
type Fetcher interface {
	Fetch() ([]byte, error)
}

type bytesFetcher struct {
	data []byte
	done bool
}

// FetchBytes wraps an already-buffered payload into a Fetcher yielding it
// in a single chunk.
func FetchBytes(b []byte) Fetcher {
	return &bytesFetcher{data: b}
}

func (f *bytesFetcher) Fetch() ([]byte, error) {
	if f.done {
		return nil, io.EOF
	}

	f.done = true

	return f.data, io.EOF
}
