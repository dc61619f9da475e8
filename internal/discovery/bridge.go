package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge represents a discovered SmartWeb bridge on the network
type Bridge struct {
	// Instance is the advertised mDNS instance name (e.g., "smartweb-livingroom")
	Instance string

	// Hostname is the mDNS hostname of the machine running the bridge
	Hostname string

	// IP is the bridge address, IPv4 preferred
	IP string

	// Port is the bridge HTTP port
	Port int

	// Metadata contains the TXT record data
	// Fields: "version", "smartweb" (upstream SmartWeb host), "api" (API path)
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("SmartWeb bridge %q at %s", b.Instance, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// BaseURL returns the HTTP base URL of the bridge API
func (b *Bridge) BaseURL() string {
	return "http://" + net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// Version returns the advertised bridge version
func (b *Bridge) Version() string {
	return b.GetMetadata(TXTVersion)
}

// SmartWebHost returns the SmartWeb server the bridge is logged in to
func (b *Bridge) SmartWebHost() string {
	return b.GetMetadata(TXTSmartWeb)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
