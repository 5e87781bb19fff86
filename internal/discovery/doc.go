// Package discovery finds and announces sendpair peers on the local network
// over multicast DNS.
//
// Every running sendpair instance registers a "_sendpair._tcp" service whose
// TXT record carries its install id, display name and version:
//
//	id=3f0c9a2e-...  name=Bob-PC  version=1.2.0  protocol=http
//
// A Scanner browses for those services and turns each answer into a
// device.Device. Answers without an id, or with this install's own id, are
// dropped.
//
// # Usage Example
//
//	scanner := discovery.NewScanner(selfID)
//	peers, err := scanner.Scan(ctx)
//
//	// or keep the registry updated until ctx ends
//	go scanner.Feed(ctx, reg)
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Peers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
