package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/transport"
	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: DefaultTTL}
}

// MDNSAdvertiser announces one responder.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	name   string
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// NewInstanceID returns a short random instance identifier.
func NewInstanceID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// InfoForEndpoint builds the advertisement of a responder bound to ep.
// Only tcp endpoints can be advertised.
func InfoForEndpoint(kind sensor.Kind, ep transport.Endpoint) (*ResponderInfo, error) {
	if ep.Network != "tcp" {
		return nil, fmt.Errorf("%w: %s", ErrNotAdvertisable, ep)
	}
	_, portStr, err := net.SplitHostPort(ep.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAdvertisable, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("%w: port %q", ErrNotAdvertisable, portStr)
	}
	return &ResponderInfo{Kind: kind, Port: uint16(port)}, nil
}

// Advertise starts announcing info, replacing any earlier announcement.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *ResponderInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	if info.InstanceID == "" {
		info.InstanceID = NewInstanceID()
	}
	name := info.InstanceName()
	if err := ValidateInstanceName(name); err != nil {
		return err
	}
	if info.Port == 0 {
		return fmt.Errorf("%w: no port", ErrNotAdvertisable)
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		name,
		ServiceType,
		Domain,
		int(info.Port),
		TXTRecordsToStrings(EncodeResponderTXT(info)),
		selectInterfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register responder service: %w", err)
	}

	a.server = server
	a.name = name
	return nil
}

// InstanceName returns the advertised instance name, or "" if not advertising.
func (a *MDNSAdvertiser) InstanceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Stop withdraws the announcement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.name = ""
	}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// MDNSBrowser finds responders.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse emits responders of kind until ctx is cancelled. A zero kind
// matches every kind. Services are aggregated by instance name; later
// entries for a known instance only add addresses.
func (b *MDNSBrowser) Browse(ctx context.Context, kind sensor.Kind) (<-chan *ResponderService, error) {
	out := make(chan *ResponderService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := selectInterfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)
		seen := make(map[string]*ResponderService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := serviceFromEntry(entry)
				if svc == nil || (kind != 0 && svc.Kind != kind) {
					continue
				}
				if existing, found := seen[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				seen[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}
			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(seen, entry.Instance)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// Find returns the first responder of kind. Without a deadline on ctx it
// gives up after BrowseTimeout.
func (b *MDNSBrowser) Find(ctx context.Context, kind sensor.Kind) (*ResponderService, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found, err := b.Browse(ctx, kind)
	if err != nil {
		return nil, err
	}
	select {
	case svc, ok := <-found:
		if !ok {
			return nil, fmt.Errorf("%w: %s responder", ErrNotFound, kind)
		}
		return svc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s responder", ErrNotFound, kind)
	}
}

func serviceFromEntry(entry *zeroconf.ServiceEntry) *ResponderService {
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)
	return newResponderService(entry.Instance, entry.HostName, entry.Port, entry.Text, ips)
}

// newResponderService builds a service from resolved record data, or nil
// if the TXT records do not describe a responder.
func newResponderService(instance, host string, port int, text []string, ips []net.IP) *ResponderService {
	info, err := DecodeResponderTXT(StringsToTXTRecords(text))
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}

	return &ResponderService{
		InstanceName:  instance,
		Host:          host,
		Port:          uint16(port),
		Addresses:     addrs,
		Kind:          info.Kind,
		DevicePath:    info.DevicePath,
		DeviceAddress: info.DeviceAddress,
	}
}

// selectInterfaces returns the named interface, or nil for all.
func selectInterfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}
