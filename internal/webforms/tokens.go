package webforms

import (
	"bytes"
	"net/url"

	"golang.org/x/net/html"
)

// Hidden field identifiers rendered by every WebForms page.
const (
	FieldViewState          = "__VIEWSTATE"
	FieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	FieldEventValidation    = "__EVENTVALIDATION"
)

// FormTokens holds the hidden state fields of one rendered page.
// The server invalidates them on the next render, so they are only good for
// a single postback.
type FormTokens struct {
	ViewState          string
	ViewStateGenerator string // optional, empty when the page has none
	EventValidation    string // optional, empty when the page has none
}

// Apply writes the tokens into form, always setting all three fields.
func (t FormTokens) Apply(form url.Values) {
	form.Set(FieldViewState, t.ViewState)
	form.Set(FieldViewStateGenerator, t.ViewStateGenerator)
	form.Set(FieldEventValidation, t.EventValidation)
}

// ExtractFormTokens returns the hidden state fields of page.
// ok is false when __VIEWSTATE is missing.
func ExtractFormTokens(page []byte) (tokens FormTokens, ok bool) {
	return indexPage(page).tokens()
}

// ExtractControlValue returns the value attribute of the element with the
// given id. ok is false when the element or its value attribute is missing.
func ExtractControlValue(page []byte, id string) (string, bool) {
	return indexPage(page).value(id)
}

// elementIndex maps element ids to their first occurrence in a page.
type elementIndex map[string]*html.Node

func indexPage(page []byte) elementIndex {
	idx := make(elementIndex)

	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return idx
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id, ok := attr(n, "id"); ok && id != "" {
				if _, seen := idx[id]; !seen {
					idx[id] = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return idx
}

func (idx elementIndex) value(id string) (string, bool) {
	n, ok := idx[id]
	if !ok {
		return "", false
	}
	return attr(n, "value")
}

func (idx elementIndex) tokens() (FormTokens, bool) {
	viewState, ok := idx.value(FieldViewState)
	if !ok {
		return FormTokens{}, false
	}

	generator, _ := idx.value(FieldViewStateGenerator)
	validation, _ := idx.value(FieldEventValidation)

	return FormTokens{
		ViewState:          viewState,
		ViewStateGenerator: generator,
		EventValidation:    validation,
	}, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
