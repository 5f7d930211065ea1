package domain

import "sort"

// Capability is a restaurant feature switch. Restaurants store them as text names.
type Capability string

const (
	CapabilityOrdering       Capability = "ordering"
	CapabilityCallWaiter     Capability = "call_waiter"
	CapabilityBillRequest    Capability = "bill_request"
	CapabilityOnlinePayment  Capability = "online_payment"
	CapabilityKitchenDisplay Capability = "kitchen_display"
)

var knownCapabilities = map[Capability]bool{
	CapabilityOrdering:       true,
	CapabilityCallWaiter:     true,
	CapabilityBillRequest:    true,
	CapabilityOnlinePayment:  true,
	CapabilityKitchenDisplay: true,
}

// CapabilitySet is resolved once per snapshot from the restaurant's feature names.
type CapabilitySet map[Capability]bool

// ResolveCapabilities keeps the known names and returns the ones it dropped.
func ResolveCapabilities(features []string) (CapabilitySet, []string) {
	set := make(CapabilitySet, len(features))
	var unknown []string
	for _, f := range features {
		c := Capability(f)
		if !knownCapabilities[c] {
			unknown = append(unknown, f)
			continue
		}
		set[c] = true
	}
	return set, unknown
}

func (s CapabilitySet) Enabled(c Capability) bool {
	return s[c]
}

// List returns the enabled capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c, ok := range s {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
