package device

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/webforms"
)

// Failure categories returned by device operations. The hub's classified
// error, when there is one, is wrapped alongside.
var (
	ErrUnavailable       = errors.New("device page unavailable")
	ErrRejected          = errors.New("command was not accepted")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrOutOfRange        = errors.New("value out of range")
)

// Session is the part of *smartweb.Hub the devices use
type Session interface {
	Host() string
	GetPage(ctx context.Context, pageURL string) *webforms.Document
	SubmitCommand(ctx context.Context, pageURL string, payload url.Values) bool
	LastError() error
}

// Controller serializes device traffic over one hub
type Controller struct {
	mu  sync.Mutex
	hub Session
}

// NewController wraps hub. Create one per hub and share it between devices.
func NewController(hub Session) *Controller {
	return &Controller{hub: hub}
}

// Host returns the hub's SmartWeb base URL
func (c *Controller) Host() string {
	return c.hub.Host()
}

// Fetch returns the current page, or ErrUnavailable
func (c *Controller) Fetch(ctx context.Context, pageURL string) (*webforms.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.hub.GetPage(ctx, pageURL)
	if doc == nil {
		return nil, c.wrap(ErrUnavailable)
	}
	return doc, nil
}

// Click fetches pageURL for fresh form tokens and posts a click on button.
// The page is re-read on every call; tokens are never carried over from an
// earlier fetch.
func (c *Controller) Click(ctx context.Context, pageURL, button string, extra url.Values) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.hub.GetPage(ctx, pageURL)
	if doc == nil {
		return c.wrap(ErrUnavailable)
	}

	tokens, ok := doc.Tokens()
	if !ok {
		err := &smartweb.Error{
			Kind:    smartweb.KindProtocol,
			Op:      smartweb.OpSubmit,
			Message: "could not find form fields for device control",
		}
		logging.Error("Device page has no form tokens",
			zap.String("url", pageURL),
			zap.String("button", button),
			zap.Error(err),
		)
		logging.LogBodySnippet("Device page", doc.Raw())
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}

	if !c.hub.SubmitCommand(ctx, pageURL, smartweb.ButtonClick(tokens, button, extra)) {
		return c.wrap(ErrRejected)
	}

	logging.Debug("Device command accepted", zap.String("url", pageURL), zap.String("button", button))
	return nil
}

func (c *Controller) wrap(sentinel error) error {
	if last := c.hub.LastError(); last != nil {
		return fmt.Errorf("%w: %w", sentinel, last)
	}
	return sentinel
}
