package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner("self-id")

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantID       string
		wantName     string
		wantIP       string
		wantPort     int
		wantProtocol string
	}{
		{
			name: "valid peer with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Pixel 7 (abc)"},
				HostName:      "pixel.local.",
				Port:          53317,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"id=abc", "name=Pixel 7", "version=1.2.0"},
			},
			wantID:       "abc",
			wantName:     "Pixel 7",
			wantIP:       "192.168.4.16",
			wantPort:     53317,
			wantProtocol: "http",
		},
		{
			name: "name falls back to instance",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Laptop"},
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				Text:          []string{"id=def"},
			},
			wantID:       "def",
			wantName:     "Laptop",
			wantIP:       "10.0.0.5",
			wantPort:     8080,
			wantProtocol: "http",
		},
		{
			name: "no port specified (should default)",
			entry: &zeroconf.ServiceEntry{
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
				Text:     []string{"id=ghi", "name=Desk", "protocol=https"},
			},
			wantID:       "ghi",
			wantName:     "Desk",
			wantIP:       "172.16.0.1",
			wantPort:     DefaultPort,
			wantProtocol: "https",
		},
		{
			name: "IPv6 only peer",
			entry: &zeroconf.ServiceEntry{
				Port:     53317,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"id=jkl", "name=Tablet"},
			},
			wantID:       "jkl",
			wantName:     "Tablet",
			wantIP:       "fe80::1",
			wantPort:     53317,
			wantProtocol: "http",
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				Port:     53317,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
				Text:     []string{"id=mno", "name=Phone"},
			},
			wantID:       "mno",
			wantName:     "Phone",
			wantIP:       "192.168.1.50",
			wantPort:     53317,
			wantProtocol: "http",
		},
		{
			name: "missing id",
			entry: &zeroconf.ServiceEntry{
				Port:     53317,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
				Text:     []string{"name=Anonymous"},
			},
			wantNil: true,
		},
		{
			name: "own announcement",
			entry: &zeroconf.ServiceEntry{
				Port:     53317,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.2")},
				Text:     []string{"id=self-id", "name=Me"},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				Port: 53317,
				Text: []string{"id=pqr", "name=Ghost"},
			},
			wantNil: true,
		},
		{
			name: "no name anywhere",
			entry: &zeroconf.ServiceEntry{
				Port:     53317,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.3")},
				Text:     []string{"id=stu"},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if d != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", d)
				}
				return
			}

			if d == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if d.ID() != tt.wantID {
				t.Errorf("ID() = %v, want %v", d.ID(), tt.wantID)
			}
			if d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
			if d.Address() != tt.wantIP {
				t.Errorf("Address() = %v, want %v", d.Address(), tt.wantIP)
			}
			if d.Port() != tt.wantPort {
				t.Errorf("Port() = %v, want %v", d.Port(), tt.wantPort)
			}
			if d.Protocol() != tt.wantProtocol {
				t.Errorf("Protocol() = %v, want %v", d.Protocol(), tt.wantProtocol)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner("")

	entry := &zeroconf.ServiceEntry{
		HostName: "pixel.local.",
		Port:     53317,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"id=abc", "name=Pixel 7", "Version=1.0", "flag", "=orphan"},
	}

	d := scanner.parseServiceEntry(entry)
	if d == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expected := map[string]string{
		"version":  "1.0",
		"flag":     "", // Key without value
		"hostname": "pixel.local.",
	}

	md := d.Metadata()
	if len(md) != len(expected) {
		t.Errorf("Metadata() has %d entries, want %d: %v", len(md), len(expected), md)
	}
	for key, want := range expected {
		if got, ok := md[key]; !ok {
			t.Errorf("Metadata() missing key %q", key)
		} else if got != want {
			t.Errorf("Metadata()[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner("abc")

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.SelfID != "abc" {
		t.Errorf("scanner.SelfID = %v, want abc", scanner.SelfID)
	}
}

func TestAnnounceOptions_txt(t *testing.T) {
	opts := AnnounceOptions{ID: "abc", Name: "Bob-PC", Version: "1.2.0", Protocol: "http"}
	got := opts.txt()
	want := []string{"id=abc", "name=Bob-PC", "version=1.2.0", "protocol=http"}

	if len(got) != len(want) {
		t.Fatalf("txt() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("txt()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Round trip through the parser
	parsed := parseTXT(got)
	if parsed[TxtName] != "Bob-PC" || parsed[TxtID] != "abc" {
		t.Errorf("parseTXT(txt()) = %v", parsed)
	}
}

func TestInstanceName(t *testing.T) {
	tests := []struct {
		opts AnnounceOptions
		want string
	}{
		{AnnounceOptions{ID: "3f0c9a2e-1111-2222-3333-444455556666", Name: "Bob-PC"}, "Bob-PC (3f0c9a2e)"},
		{AnnounceOptions{ID: "short", Name: "Phone"}, "Phone (short)"},
	}

	for _, tt := range tests {
		if got := instanceName(tt.opts); got != tt.want {
			t.Errorf("instanceName(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestAnnounce_RequiresIdentity(t *testing.T) {
	if _, err := Announce(AnnounceOptions{Name: "Bob-PC"}); err == nil {
		t.Error("Announce() without id succeeded, want error")
	}
	if _, err := Announce(AnnounceOptions{ID: "abc"}); err == nil {
		t.Error("Announce() without name succeeded, want error")
	}
}

// Note: live mDNS browsing and announcing need multicast on the test host and
// are not exercised here.
