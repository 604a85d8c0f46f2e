package models

import "strings"

// VendorKind is the closed set of vendor families the collector knows how
// to query. Free-form vendor strings on a device are reduced to one of
// these via ParseVendor.
type VendorKind string

const (
	VendorCisco     VendorKind = "cisco"
	VendorCiscoNXOS VendorKind = "cisco_nxos"
	VendorJuniper   VendorKind = "juniper"
	VendorPaloAlto  VendorKind = "paloalto"
	VendorFortinet  VendorKind = "fortinet"
	VendorArista    VendorKind = "arista"
	VendorSophos    VendorKind = "sophos"
	VendorGeneric   VendorKind = "generic"
)

// ParseVendor normalizes a device's free-form vendor field to a VendorKind.
// Unrecognized vendors fall back to the HOST-RESOURCES-MIB generic profile.
func ParseVendor(vendor string) VendorKind {
	v := strings.ToLower(strings.TrimSpace(vendor))

	switch {
	case strings.Contains(v, "cisco"):
		if strings.Contains(v, "nexus") || strings.Contains(v, "nxos") || strings.Contains(v, "nx-os") {
			return VendorCiscoNXOS
		}

		return VendorCisco
	case strings.Contains(v, "juniper"):
		return VendorJuniper
	case strings.Contains(v, "palo"), strings.Contains(v, "pan-os"):
		return VendorPaloAlto
	case strings.Contains(v, "fortinet"), strings.Contains(v, "fortigate"):
		return VendorFortinet
	case strings.Contains(v, "arista"):
		return VendorArista
	case strings.Contains(v, "sophos"), strings.Contains(v, "sfos"):
		return VendorSophos
	default:
		return VendorGeneric
	}
}
