package webforms

import "bytes"

// Document is a fetched SmartWeb page.
type Document struct {
	raw      []byte
	finalURL string
	index    elementIndex
}

// Parse builds a Document from a response body and the URL it was served from.
func Parse(body []byte, finalURL string) *Document {
	return &Document{
		raw:      body,
		finalURL: finalURL,
		index:    indexPage(body),
	}
}

// Raw returns the unparsed page body.
func (d *Document) Raw() []byte {
	return d.raw
}

// FinalURL returns the URL the page was served from, after redirects.
func (d *Document) FinalURL() string {
	return d.finalURL
}

// Tokens returns the hidden state fields of the page; see ExtractFormTokens.
func (d *Document) Tokens() (FormTokens, bool) {
	return d.index.tokens()
}

// ControlValue returns the value of the element with the given id.
func (d *Document) ControlValue(id string) (string, bool) {
	return d.index.value(id)
}

// HasMarker reports whether marker occurs anywhere in the page markup.
// Status icons are rendered as class names, so a plain substring match is
// what the page contract offers.
func (d *Document) HasMarker(marker string) bool {
	return bytes.Contains(d.raw, []byte(marker))
}
