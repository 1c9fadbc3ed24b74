package models

import "strings"

// Network identifies a social platform as a power-of-two bit so that a set of
// target platforms fits in a single integer column.
type Network int64

const (
	NetworkFacebook       Network = 1
	NetworkTwitter        Network = 2
	NetworkInstagram      Network = 4
	NetworkLinkedIn       Network = 8
	NetworkGoogleBusiness Network = 16
	NetworkPinterest      Network = 32
)

// AllNetworks lists every known network in bit order.
var AllNetworks = []Network{
	NetworkFacebook,
	NetworkTwitter,
	NetworkInstagram,
	NetworkLinkedIn,
	NetworkGoogleBusiness,
	NetworkPinterest,
}

var networkNames = map[Network]string{
	NetworkFacebook:       "facebook",
	NetworkTwitter:        "twitter",
	NetworkInstagram:      "instagram",
	NetworkLinkedIn:       "linked_in",
	NetworkGoogleBusiness: "google_business",
	NetworkPinterest:      "pinterest",
}

// String returns the canonical name of the network, or "unknown"
func (n Network) String() string {
	if name, ok := networkNames[n]; ok {
		return name
	}
	return "unknown"
}

// Valid checks if the network is a known single bit
func (n Network) Valid() bool {
	_, ok := networkNames[n]
	return ok
}

// NetworkByName returns the network for a canonical name, false if unknown
func NetworkByName(name string) (Network, bool) {
	for bit, n := range networkNames {
		if n == name {
			return bit, true
		}
	}
	return 0, false
}

// NetworkMask is a bitwise union of Network values stored as an integer
// column on schedules, content items, and dispatch records.
type NetworkMask int64

// Has checks membership of a single network in the mask
func (m NetworkMask) Has(n Network) bool {
	return int64(m)&int64(n) != 0
}

// With returns the mask with the given network added
func (m NetworkMask) With(n Network) NetworkMask {
	return NetworkMask(int64(m) | int64(n))
}

// Networks expands the mask into the known networks it contains, in bit order
func (m NetworkMask) Networks() []Network {
	var out []Network
	for _, n := range AllNetworks {
		if m.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Names returns the canonical names of the networks in the mask
func (m NetworkMask) Names() []string {
	var out []string
	for _, n := range m.Networks() {
		out = append(out, n.String())
	}
	return out
}

// DisplayNames renders the mask as a comma separated human readable list
func (m NetworkMask) DisplayNames() string {
	display := map[Network]string{
		NetworkFacebook:       "Facebook",
		NetworkTwitter:        "Twitter",
		NetworkInstagram:      "Instagram",
		NetworkLinkedIn:       "LinkedIn",
		NetworkGoogleBusiness: "Google Business",
		NetworkPinterest:      "Pinterest",
	}
	var out []string
	for _, n := range m.Networks() {
		out = append(out, display[n])
	}
	return strings.Join(out, ", ")
}

// MaskFromNames builds a mask from canonical names, silently ignoring
// unknown ones.
func MaskFromNames(names []string) NetworkMask {
	var m NetworkMask
	for _, name := range names {
		if n, ok := NetworkByName(name); ok {
			m = m.With(n)
		}
	}
	return m
}
