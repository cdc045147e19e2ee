// Package discovery advertises the session server on the local network.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/hashicorp/mdns"
)

var ErrBadService = errors.New("service type must look like _name._tcp")

// Advertiser is a running mDNS responder.
type Advertiser struct {
	server  *mdns.Server
	service *mdns.MDNSService
}

// ServiceInfo builds the mDNS service record for a server on port. The TXT
// record carries the websocket path so clients can connect without
// configuration.
func ServiceInfo(serviceType string, port int) (*mdns.MDNSService, error) {
	if !validService(serviceType) {
		return nil, fmt.Errorf("%q: %w", serviceType, ErrBadService)
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}
	info := []string{"minpen", "ws=/ws/sketch/"}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, localIPs(), info)
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}
	return service, nil
}

// Advertise starts answering mDNS queries for the server.
func Advertise(serviceType string, port int) (*Advertiser, error) {
	service, err := ServiceInfo(serviceType, port)
	if err != nil {
		return nil, err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	slog.Info("mdns advertising", "service", serviceType, "port", port, "instance", service.Instance)
	return &Advertiser{server: server, service: service}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

func validService(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 1 && strings.HasPrefix(parts[0], "_") &&
		(parts[1] == "_tcp" || parts[1] == "_udp")
}

// localIPs returns the IPv4 addresses of the up, non-loopback interfaces, or
// loopback when there are none.
func localIPs() []net.IP {
	var ips []net.IP
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP.To4())
			}
		}
	}
	if len(ips) == 0 {
		ips = append(ips, net.IPv4(127, 0, 0, 1))
	}
	return ips
}
