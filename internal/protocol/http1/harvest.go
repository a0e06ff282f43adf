package http1

import (
	"github.com/wireparse/wireparse/config"
	"github.com/wireparse/wireparse/http"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/form"
	"github.com/wireparse/wireparse/http/mime"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/internal/multipart"
	"github.com/wireparse/wireparse/internal/urlencoded"
	"github.com/wireparse/wireparse/journal"
)

// harvest holds the secondary parsers feeding on a request body. Both are
// optional; a body with neither armed still flows to the data hook.
type harvest struct {
	urlenc *urlencoded.Parser
	multi  *multipart.Parser

	// flagsAtStart snapshots the anomaly word before the first body byte,
	// so bits raised later are attributable to the body parsers.
	flagsAtStart flags.Flags
}

func newQueryParser(cfg *config.Config, tx *http.Transaction) *urlencoded.Parser {
	return urlencoded.New(&cfg.Query, &tx.Flags, urlencoded.Into(&tx.Params, form.SourceQuery))
}

// beginHarvest arms the parser matching the declared content type, right
// before the first body byte.
func (m *requestMachine) beginHarvest() {
	tx := m.tx
	cfg := m.d.cfg
	m.forms.flagsAtStart = tx.Flags

	switch {
	case cfg.Forms.Urlencoded && tx.RequestContentType == mime.FormUrlencoded:
		m.forms.urlenc = urlencoded.New(&cfg.Query, &tx.Flags, urlencoded.Into(&tx.Params, form.SourceBody))
	case cfg.Forms.Multipart && tx.RequestContentType == mime.Multipart:
		boundary, bfl, ok := multipart.FindBoundary(tx.RequestHeaders.Value("content-type"))
		if !ok {
			m.warn(journal.CodeMultipartNoBoundary, "Multipart request without a boundary")
			return
		}

		if bfl.Has(multipart.BoundaryInvalid) {
			m.warn(journal.CodeMultipartInvalidBoundary, "Multipart boundary invalid")
		} else if bfl.Has(multipart.BoundaryUnusual) {
			m.d.j.Note(status.DirRequest, journal.CodeMultipartInvalidBoundary, m.off(), "Multipart boundary unusual")
		}

		m.forms.multi = multipart.New(&cfg.Multipart, boundary, bfl)
	}
}

// reqBodyData accounts and delivers one span of request body.
func (m *requestMachine) reqBodyData(data []byte) error {
	tx := m.tx
	tx.RequestBodyLen += int64(len(data))

	if m.forms.urlenc != nil {
		m.forms.urlenc.Feed(data)
	}
	if m.forms.multi != nil {
		m.forms.multi.Feed(data)
	}

	tx.RequestEntityLen += int64(len(data))

	return verdict(m.d.hooks.OnRequestBodyData(tx, data))
}

// endBody settles the secondary parsers and marks the end of the body
// stream with a zero-length delivery.
func (m *requestMachine) endBody() error {
	if m.forms.urlenc != nil {
		m.forms.urlenc.Finalize()
		m.forms.urlenc = nil

		raised := m.tx.Flags &^ m.forms.flagsAtStart
		if raised.Any(flags.UrlenInvalidEncoding | flags.UrlenEncodedNul | flags.UrlenRawNul | flags.UrlenOverlongU | flags.UrlenHalfFullRange) {
			m.warn(journal.CodeUrlencodedInvalid, "Urlencoded request body contains invalid encoding")
		}
	}
	if m.forms.multi != nil {
		if err := m.finishMultipart(); err != nil {
			return err
		}
	}

	return verdict(m.d.hooks.OnRequestBodyData(m.tx, nil))
}

// finishMultipart drains the decomposed parts into the transaction: text
// parts become parameters, file parts become file records and, when
// extraction is on, file data events.
func (m *requestMachine) finishMultipart() error {
	tx := m.tx
	cfg := m.d.cfg
	p := m.forms.multi
	m.forms.multi = nil

	p.Finalize()

	for _, part := range p.Parts() {
		switch part.Type {
		case multipart.Text:
			tx.Params = append(tx.Params, form.Param{
				Name:   part.Name,
				Value:  string(part.Value),
				Source: form.SourceBody,
			})
		case multipart.File:
			tx.Files = append(tx.Files, form.File{
				Name:     part.Name,
				Filename: part.Filename,
				Type:     part.ContentType,
				Size:     part.Size,
				Content:  part.Value,
			})

			if cfg.Multipart.ExtractFiles {
				if part.Size > cfg.Multipart.FileSizeLimit {
					m.warn(journal.CodeFileOverLimit, "Multipart file over the extraction limit")
				}
				if len(part.Value) > 0 {
					if err := verdict(m.d.hooks.OnFileData(tx, part.Filename, part.ContentType, part.Value)); err != nil {
						return err
					}
				}
			}
		}
	}

	fl := p.Flags()
	if fl.Has(multipart.Incomplete) {
		m.warn(journal.CodeMultipartIncomplete, "Multipart body ended before the closing boundary")
	}
	if fl.Has(multipart.PartAfterLastBoundary) {
		m.warn(journal.CodeMultipartPartAfterLast, "Multipart part after the closing boundary")
	}

	return nil
}
