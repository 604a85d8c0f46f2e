package oids

import (
	"github.com/netnynja/netnynja/pkg/models"
)

// MemorySpec tells the collector how a vendor reports memory. The
// collector tries the variants in a fixed order: a direct used-percent
// OID, then a used+free pair (percent and bytes derived), then a total
// expressed in KiB and upscaled to bytes.
type MemorySpec struct {
	UsedPercent string
	Used        string
	Free        string
	TotalKiB    string
}

// DiskSpec mirrors MemorySpec for disk. Capacity OIDs report MiB; when
// WalkStorage is set the collector walks hrStorageTable instead.
type DiskSpec struct {
	UsedPercent string
	CapacityMiB string
	WalkStorage bool
}

// VendorProfile binds a vendor tag to everything the collector queries
// beyond the standard MIBs. CPU OIDs are tried in order until one yields
// a value in [0,100]; the generic list is always appended as a fallback.
type VendorProfile struct {
	CPU         []string
	Memory      MemorySpec
	Disk        DiskSpec
	SwapPercent string
	Services    map[string]string
}

var profiles = map[models.VendorKind]VendorProfile{
	models.VendorCisco: {
		CPU: []string{
			"1.3.6.1.4.1.9.9.109.1.1.1.1.8.1", // cpmCPUTotal5minRev
			"1.3.6.1.4.1.9.9.109.1.1.1.1.5.1", // cpmCPUTotal5min (older)
			"1.3.6.1.4.1.9.2.1.58.0",          // avgBusy5 (very old IOS)
		},
		Memory: MemorySpec{
			Used: "1.3.6.1.4.1.9.9.48.1.1.1.5.1", // ciscoMemoryPoolUsed (processor pool)
			Free: "1.3.6.1.4.1.9.9.48.1.1.1.6.1", // ciscoMemoryPoolFree
		},
	},
	models.VendorCiscoNXOS: {
		CPU: []string{
			"1.3.6.1.4.1.9.9.305.1.1.1.0", // cpmCPUTotal5minRev for NX-OS
		},
		Memory: MemorySpec{
			Used: "1.3.6.1.4.1.9.9.305.1.1.2.0", // cpmCPUMemoryUsed
			Free: "1.3.6.1.4.1.9.9.305.1.1.3.0", // cpmCPUMemoryFree
		},
	},
	models.VendorJuniper: {
		CPU: []string{
			"1.3.6.1.4.1.2636.3.1.13.1.8.9.1.0.0", // jnxOperatingCPU RE0
			"1.3.6.1.4.1.2636.3.1.13.1.8.9.2.0.0", // jnxOperatingCPU RE1
		},
		Memory: MemorySpec{
			Used:     "1.3.6.1.4.1.2636.3.1.13.1.11.9.1.0.0", // jnxOperatingBuffer RE0
			TotalKiB: "1.3.6.1.4.1.2636.3.1.13.1.15.9.1.0.0", // jnxOperatingMemory
		},
	},
	models.VendorPaloAlto: {
		CPU: []string{
			"1.3.6.1.4.1.25461.2.1.2.3.1.0", // panSessionUtilization
			"1.3.6.1.4.1.25461.2.1.2.1.1.0", // panMgmtPanoramaConnected
		},
		Memory: MemorySpec{
			UsedPercent: "1.3.6.1.4.1.25461.2.1.2.3.3.0", // panSessionMax
		},
	},
	models.VendorFortinet: {
		CPU: []string{
			"1.3.6.1.4.1.12356.101.4.1.3.0", // fgSysCpuUsage
		},
		Memory: MemorySpec{
			UsedPercent: "1.3.6.1.4.1.12356.101.4.1.4.0", // fgSysMemUsage
			TotalKiB:    "1.3.6.1.4.1.12356.101.4.1.5.0", // fgSysMemCapacity
		},
	},
	models.VendorArista: {
		CPU: []string{
			HrProcessorLoad, // hrProcessorLoad (HOST-RESOURCES-MIB)
		},
		Memory: MemorySpec{
			TotalKiB: HrMemorySize,
		},
		Disk: DiskSpec{WalkStorage: true},
	},
	models.VendorSophos: {
		CPU: []string{
			"1.3.6.1.4.1.2604.5.1.2.1.0", // sfosCpuPercentUsage
		},
		Memory: MemorySpec{
			UsedPercent: "1.3.6.1.4.1.2604.5.1.2.2.0", // sfosMemoryPercentUsage
		},
		Disk: DiskSpec{
			UsedPercent: "1.3.6.1.4.1.2604.5.1.2.5.0", // sfosDiskPercentUsage
			CapacityMiB: "1.3.6.1.4.1.2604.5.1.2.4.0", // sfosDiskCapacity
		},
		SwapPercent: "1.3.6.1.4.1.2604.5.1.2.3.0", // sfosSwapPercentUsage
		Services:    sophosServiceOIDs,
	},
	models.VendorGeneric: {
		CPU: []string{
			HrProcessorLoad,
		},
		Memory: MemorySpec{
			TotalKiB: HrMemorySize,
		},
		Disk: DiskSpec{WalkStorage: true},
	},
}

// sophosServiceOIDs is the SFOS-FIREWALL-MIB status table polled for
// sophos devices. Values are 1 or a running/active/enabled/up string
// when the subsystem is healthy.
var sophosServiceOIDs = map[string]string{
	"cpu_usage":      "1.3.6.1.4.1.2604.5.1.2.1.0", // sfosCpuPercentUsage
	"memory_usage":   "1.3.6.1.4.1.2604.5.1.2.2.0", // sfosMemoryPercentUsage
	"swap_usage":     "1.3.6.1.4.1.2604.5.1.2.3.0", // sfosSwapPercentUsage
	"disk_capacity":  "1.3.6.1.4.1.2604.5.1.2.4.0", // sfosDiskCapacity
	"disk_usage":     "1.3.6.1.4.1.2604.5.1.2.5.0", // sfosDiskPercentUsage
	"live_users":     "1.3.6.1.4.1.2604.5.1.3.1.0", // sfosLiveUsersCount
	"http_hits":      "1.3.6.1.4.1.2604.5.1.3.2.0", // sfosHttpHits
	"ftp_hits":       "1.3.6.1.4.1.2604.5.1.3.3.0", // sfosFtpHits
	"pop3_hits":      "1.3.6.1.4.1.2604.5.1.3.4.0", // sfosPOP3Hits
	"imap_hits":      "1.3.6.1.4.1.2604.5.1.3.5.0", // sfosImapHits
	"smtp_hits":      "1.3.6.1.4.1.2604.5.1.3.6.0", // sfosSmtpHits
	"antivirus":      "1.3.6.1.4.1.2604.5.1.4.1.0", // sfosServiceAntivirus
	"antispam":       "1.3.6.1.4.1.2604.5.1.4.2.0", // sfosServiceAntispam
	"ips":            "1.3.6.1.4.1.2604.5.1.4.3.0", // sfosServiceIPS
	"web_filter":     "1.3.6.1.4.1.2604.5.1.4.4.0", // sfosServiceWebFilter
	"app_filter":     "1.3.6.1.4.1.2604.5.1.4.5.0", // sfosServiceAppFilter
	"ipsec_vpn":      "1.3.6.1.4.1.2604.5.1.5.1.0", // sfosIPSecConnections
	"ssl_vpn":        "1.3.6.1.4.1.2604.5.1.5.2.0", // sfosSSLVPNConnections
	"ha_status":      "1.3.6.1.4.1.2604.5.1.6.1.0", // sfosHAStatus
	"ha_peer_status": "1.3.6.1.4.1.2604.5.1.6.2.0", // sfosHAPeerStatus
}

// Profile returns the OID profile for a vendor. Unknown kinds get the
// generic HOST-RESOURCES profile.
func Profile(kind models.VendorKind) VendorProfile {
	if p, ok := profiles[kind]; ok {
		return p
	}

	return profiles[models.VendorGeneric]
}

// GenericCPU is the fallback CPU list appended after every vendor list.
func GenericCPU() []string {
	return profiles[models.VendorGeneric].CPU
}
