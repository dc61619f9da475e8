// Package session owns the HTTP connection and cookie state shared by every
// request a SmartWeb hub makes.
//
// A Store is a thin transport: it sends one request, follows redirects the way
// a browser would, remembers any cookies the server sets and hands back the
// status, the final URL and the body. It never retries and never looks at the
// payload. Deciding whether a response means "logged out" is the caller's job.
//
// Every request carries a fixed desktop-browser User-Agent and Accept-Language;
// the SmartWeb server serves different markup to clients it does not recognise.
package session
