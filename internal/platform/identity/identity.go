// Package identity derives the anonymized request attributes the core stores:
// the device hash and the truncated ip/hash fields. The raw device id comes
// from a cookie issued upstream; its strength is the issuer's problem, this
// package only makes it non-reversible.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// DeviceHash salts and hashes the client-supplied device id. The salt keeps
// raw cookie values from being looked up in the registry.
func DeviceHash(deviceID, salt string) domain.DeviceHash {
	return domain.DeviceHash(HashToken(deviceID + salt))
}

// HashToken is the common sha256-hex used for user-agent and language values.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// IPPrefix truncates an address to a coarse prefix: the first three octets of
// an IPv4 address, the first four groups of an IPv6 address. Enough for abuse
// auditing without storing the full address.
func IPPrefix(ip string) string {
	if ip == "" {
		return ""
	}
	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) > 4 {
			parts = parts[:4]
		}
		return strings.Join(parts, ":")
	}
	parts := strings.Split(ip, ".")
	if len(parts) >= 3 {
		return strings.Join(parts[:3], ".")
	}
	return ip
}
