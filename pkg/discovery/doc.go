// Package discovery advertises and finds benita responders with mDNS/DNS-SD.
//
// A responder bound to a tcp:// endpoint can announce itself under the
// _benita._tcp service type. Instance names have the form
// benita-<kind>-<id>, where id is the first eight hex digits of a random
// UUID, so several responders of the same kind can share a network.
//
// TXT records:
//   - kind: sensor kind (conductivity, ph, temperature)
//   - dev:  device path on the responder host (optional)
//   - addr: device address, hex (optional)
//
// Unix socket (ipc://) endpoints are local to one host and are never
// advertised.
package discovery
