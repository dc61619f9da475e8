// Package webforms reads ASP.NET WebForms pages.
//
// Every WebForms postback must echo the hidden state fields of the page it
// was rendered from (__VIEWSTATE, __VIEWSTATEGENERATOR, __EVENTVALIDATION).
// This package locates those fields, reads data-bearing inputs by element id,
// and answers status-marker lookups (CSS class names such as
// "icon_b_boiler_on") against a fetched page.
//
// Parsing never fails loudly: malformed markup or a page of the wrong shape
// yields an "absent" result, which callers read as "not the page I expected",
// usually because the server answered with its login or error page.
package webforms
