// Package discovery announces the server on the local network over
// mDNS so nearby clients can find a canvas without exchanging
// addresses.
package discovery

import (
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_drawtogether._tcp"

// Advertiser publishes the drawing server as an mDNS service.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces the service under the given instance name and
// port. The announcement stays up until Close is called.
func Advertise(instance string, port int) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		instance,
		serviceType,
		"",   // default ".local" domain
		"",   // use the OS hostname
		port, // the port the HTTP server listens on
		nil,  // auto-detect IPs
		[]string{"draw-together", "host=" + host},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Printf("[MDNS] Advertising %s as %q on port %d", serviceType, instance, port)
	return &Advertiser{server: server}, nil
}

// Close withdraws the announcement.
func (a *Advertiser) Close() {
	if a.server != nil {
		a.server.Shutdown()
	}
}
