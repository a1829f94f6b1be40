package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkClassifier_Defaults(t *testing.T) {
	n, err := NewNetworkClassifier(nil)
	require.NoError(t, err)

	internal := []string{
		"10.0.0.1",
		"10.255.255.254",
		"172.16.0.1",
		"172.31.255.1",
		"192.168.1.50",
		"127.0.0.1",
		"::1",
		"fe80::1",
	}
	for _, ip := range internal {
		assert.True(t, n.IsInternal(ip), "expected %s to be internal", ip)
	}

	external := []string{
		"203.0.113.5",
		"8.8.8.8",
		"172.32.0.1", // just outside 172.16/12
		"2001:db8::1",
	}
	for _, ip := range external {
		assert.False(t, n.IsInternal(ip), "expected %s to be external", ip)
	}
}

func TestNetworkClassifier_CustomRanges(t *testing.T) {
	n, err := NewNetworkClassifier([]string{"100.64.0.0/10"})
	require.NoError(t, err)

	assert.True(t, n.IsInternal("100.64.1.1"))
	// Custom ranges replace the defaults rather than extending them.
	assert.False(t, n.IsInternal("10.0.0.1"))
}

func TestNetworkClassifier_MappedIPv4(t *testing.T) {
	n, err := NewNetworkClassifier(nil)
	require.NoError(t, err)

	// IPv4-mapped IPv6 form of a private address.
	assert.True(t, n.IsInternal("::ffff:192.168.1.1"))
}

func TestNetworkClassifier_BadInput(t *testing.T) {
	_, err := NewNetworkClassifier([]string{"not-a-cidr"})
	assert.ErrorIs(t, err, ErrConfig)

	n, _ := NewNetworkClassifier(nil)
	assert.False(t, n.IsInternal("garbage"))
	assert.False(t, n.IsInternal(""))
}
