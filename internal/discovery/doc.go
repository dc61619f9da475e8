// Package discovery finds and announces SmartWeb bridges over mDNS.
//
// A bridge (see internal/server) registers itself as a "_smartweb._tcp"
// service with TXT records naming its version, the SmartWeb host it is logged
// in to and its API path. The scanner browses for those services so the CLI
// can list bridges without knowing their addresses.
//
// # Usage
//
//	bridges, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, b := range bridges {
//	    fmt.Println(b, b.SmartWebHost())
//	}
//
// Advertising:
//
//	srv, err := discovery.Advertise("smartweb-home", 8080,
//	    discovery.TXTRecords(version.Version, "http://192.168.0.10"))
//	if err != nil {
//	    return err
//	}
//	defer srv.Shutdown()
package discovery
