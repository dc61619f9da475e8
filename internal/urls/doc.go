// Package urls holds the fixed SmartWeb endpoint paths.
//
// The paths are dictated by the remote ASP.NET application and are not
// configurable; only the host part varies between installations.
package urls
