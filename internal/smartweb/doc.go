// Package smartweb is a client for Postown SmartWeb, an ASP.NET WebForms
// home-automation portal.
//
// SmartWeb was built for browsers. It has no API: state is read by scraping
// device detail pages and changed by replaying the partial postback
// (UpdatePanel) a button click would send. Sessions expire silently by
// redirecting to the login page, and logging in is a two-phase handshake.
//
// # Hub
//
// A Hub owns one cookie session for one (host, username, password) triple and
// exposes the operations the device adapters need:
//
//	hub, err := smartweb.New("http://sdexpo9.postown.net", "user", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !hub.VerifyCredentials(ctx) {
//	    log.Fatal(hub.LastError())
//	}
//
//	doc := hub.GetPage(ctx, urls.HeaterControl(hub.Host(), "1"))
//	if doc == nil {
//	    return // state unknown, skip this poll cycle
//	}
//
//	tokens, ok := doc.Tokens()
//	if ok {
//	    payload := smartweb.ButtonClick(tokens, smartweb.ButtonOn, nil)
//	    hub.SubmitCommand(ctx, doc.FinalURL(), payload)
//	}
//
// # Login Handshake
//
//  1. GET the login page and read its WebForms tokens
//  2. POST {"ID","PW"} as JSON to the login web service, which answers {"d": token}
//  3. POST the login form (tokens, credentials, token) as a partial postback
//  4. Success iff the answer is 2xx and contains "pageRedirect"
//
// Login never retries by itself and never short-circuits when a session
// might still be valid.
//
// # Session Expiry
//
// GetPage and SubmitCommand treat a response that lands on the login page
// (or, for postbacks, contains "pageRedirect") as an expired session: they log
// in once and repeat the request once. A second expiry in the same call is a
// failure, never a loop.
//
// # Error Handling
//
// The dispatcher operations never return errors: they report nil/false and
// log a diagnostic. Login returns a classified *Error (connect, auth or
// protocol) and LastError exposes the most recent failure for diagnostics.
//
// # Thread Safety
//
// A Hub is not safe for concurrent use. Callers that share one hub between
// several devices must serialize "read page, submit postback" sequences
// (package device does this with one mutex per hub).
package smartweb
