// Package server implements the SmartWeb polling bridge.
//
// The bridge owns one logged-in hub session, refreshes every configured
// device on a fixed interval and exposes the resulting snapshots:
//
//	GET  /healthz                     bridge status and version
//	GET  /api/devices                 all device snapshots
//	GET  /api/devices/:name           one snapshot (404 if unknown)
//	POST /api/devices/:name/command   {"action": "temp", "value": 22}
//	GET  /ws                          WebSocket feed of state changes
//
// WebSocket subscribers first receive a "snapshot" message with every
// device, then one "update" message per changed device.
//
// Device calls from the poller and the API are serialized by the device
// controller, so the hub session is never used concurrently.
//
// The bridge can announce itself via mDNS as _smartweb._tcp and serve
// HTTPS when a certificate and key are configured. SIGINT and SIGTERM
// trigger a graceful shutdown.
package server
