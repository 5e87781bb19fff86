package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		devName string
		wantErr bool
	}{
		{name: "valid", id: "abc", devName: "Pixel 7"},
		{name: "trimmed", id: "  abc ", devName: " Pixel 7 "},
		{name: "missing id", id: "", devName: "Pixel 7", wantErr: true},
		{name: "blank id", id: "   ", devName: "Pixel 7", wantErr: true},
		{name: "missing name", id: "abc", devName: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.id, tt.devName)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingField)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc", d.ID())
			assert.Equal(t, "Pixel 7", d.Name())
		})
	}
}

func TestDevice_Options(t *testing.T) {
	md := map[string]string{"deviceModel": "Pixel"}
	d, err := New("abc", "Pixel 7",
		WithAddress("192.168.1.20"),
		WithPort(53317),
		WithProtocol(ProtocolHTTPS),
		WithMetadata(md),
	)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.20", d.Address())
	assert.Equal(t, 53317, d.Port())
	assert.Equal(t, ProtocolHTTPS, d.Protocol())
	assert.Equal(t, "Pixel", d.GetMetadata("deviceModel"))
	assert.Equal(t, "", d.GetMetadata("missing"))

	// Metadata is copied both ways
	md["deviceModel"] = "changed"
	assert.Equal(t, "Pixel", d.GetMetadata("deviceModel"))
	d.Metadata()["deviceModel"] = "changed"
	assert.Equal(t, "Pixel", d.GetMetadata("deviceModel"))
}

func TestDevice_Endpoint(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{name: "no address", want: ""},
		{name: "address only", opts: []Option{WithAddress("10.0.0.5")}, want: "10.0.0.5"},
		{name: "ipv4", opts: []Option{WithAddress("10.0.0.5"), WithPort(8080)}, want: "10.0.0.5:8080"},
		{name: "ipv6", opts: []Option{WithAddress("fe80::1"), WithPort(80)}, want: "[fe80::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New("id", "name", tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Endpoint())
		})
	}
}

func TestDevice_String(t *testing.T) {
	d, _ := New("abc", "Pixel 7")
	assert.Equal(t, "Pixel 7 (abc)", d.String())

	d, _ = New("abc", "Pixel 7", WithAddress("192.168.4.16"), WithPort(53317))
	assert.Equal(t, "Pixel 7 (abc) at 192.168.4.16:53317", d.String())
}

func TestDevice_Equal(t *testing.T) {
	a, _ := New("abc", "Pixel 7", WithMetadata(map[string]string{"k": "v"}))
	b, _ := New("abc", "Pixel 7", WithMetadata(map[string]string{"k": "v"}))
	c, _ := New("abc", "Pixel 8")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
