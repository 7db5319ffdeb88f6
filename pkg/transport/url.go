package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL indicates an endpoint URL that cannot be dialed or bound.
var ErrInvalidURL = errors.New("invalid endpoint url")

// Endpoint is a parsed endpoint URL.
type Endpoint struct {
	// Network is "tcp" or "unix".
	Network string

	// Address is host:port for tcp, or the socket path for unix.
	Address string
}

// String returns the URL form of the endpoint.
func (e Endpoint) String() string {
	if e.Network == "unix" {
		return "ipc://" + e.Address
	}
	return "tcp://" + e.Address
}

// ParseURL parses "tcp://host:port" and "ipc:///path/to.sock" endpoints.
// A "*" host binds all interfaces.
func ParseURL(raw string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch u.Scheme {
	case "tcp":
		host, port := u.Hostname(), u.Port()
		if port == "" {
			return Endpoint{}, fmt.Errorf("%w: %q has no port", ErrInvalidURL, raw)
		}
		if host == "*" {
			host = ""
		}
		if u.Path != "" {
			return Endpoint{}, fmt.Errorf("%w: %q has a path", ErrInvalidURL, raw)
		}
		addr := host + ":" + port
		if strings.Contains(host, ":") {
			addr = "[" + host + "]:" + port
		}
		return Endpoint{Network: "tcp", Address: addr}, nil
	case "ipc":
		path := u.Host + u.Path
		if path == "" {
			return Endpoint{}, fmt.Errorf("%w: %q has no path", ErrInvalidURL, raw)
		}
		return Endpoint{Network: "unix", Address: path}, nil
	case "":
		return Endpoint{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidURL, raw)
	default:
		return Endpoint{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
}
