package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// mDNS service constants.
const (
	// ServiceType is the DNS-SD service type of responders.
	ServiceType = "_benita._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// DefaultTTL is the advertised record TTL.
	DefaultTTL = 120 * time.Second

	// BrowseTimeout bounds Find when the context has no deadline.
	BrowseTimeout = 5 * time.Second
)

// TXT record keys.
const (
	TXTKeyKind          = "kind"
	TXTKeyDevicePath    = "dev"
	TXTKeyDeviceAddress = "addr"
)

// Errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
	ErrNotAdvertisable     = errors.New("endpoint cannot be advertised")
)

// ResponderInfo is what a responder advertises about itself.
type ResponderInfo struct {
	// Kind is the sensor kind served.
	Kind sensor.Kind

	// InstanceID distinguishes responders of the same kind. Generated if empty.
	InstanceID string

	// Port is the tcp port the responder is bound to.
	Port uint16

	// DevicePath is the device path on the responder host (optional).
	DevicePath string

	// DeviceAddress is the I2C address or baud rate (optional).
	DeviceAddress uint32
}

// InstanceName returns the mDNS instance name.
func (i *ResponderInfo) InstanceName() string {
	name := fmt.Sprintf("benita-%s-%s", i.Kind, i.InstanceID)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// ResponderService is a responder found by browsing.
type ResponderService struct {
	InstanceName  string
	Host          string
	Port          uint16
	Addresses     []string
	Kind          sensor.Kind
	DevicePath    string
	DeviceAddress uint32
}

// URL returns the tcp:// URL of the responder, preferring the first
// resolved address over the host name.
func (s *ResponderService) URL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}
