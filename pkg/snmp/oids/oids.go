// Package oids carries the OID tables the SNMP collector queries: the
// standard MIB-II and HOST-RESOURCES sets plus per-vendor CPU, memory,
// disk, and service tables keyed by models.VendorKind.
package oids

// SNMPv2-MIB (RFC 3418) and IF-MIB (RFC 2863) scalars.
const (
	SysDescr  = "1.3.6.1.2.1.1.1.0"
	SysUpTime = "1.3.6.1.2.1.1.3.0"
	SysName   = "1.3.6.1.2.1.1.5.0"
	IfNumber  = "1.3.6.1.2.1.2.1.0"
)

// IF-MIB ifTable columns. Per-interface instances are column + "." + ifIndex.
const (
	IfDescr       = "1.3.6.1.2.1.2.2.1.2"
	IfSpeed       = "1.3.6.1.2.1.2.2.1.5"
	IfAdminStatus = "1.3.6.1.2.1.2.2.1.7"
	IfOperStatus  = "1.3.6.1.2.1.2.2.1.8"
	IfInOctets    = "1.3.6.1.2.1.2.2.1.10"
	IfInDiscards  = "1.3.6.1.2.1.2.2.1.13"
	IfInErrors    = "1.3.6.1.2.1.2.2.1.14"
	IfOutOctets   = "1.3.6.1.2.1.2.2.1.16"
	IfOutDiscards = "1.3.6.1.2.1.2.2.1.19"
	IfOutErrors   = "1.3.6.1.2.1.2.2.1.20"
)

// IF-MIB ifXTable columns: 64-bit counters and Mbps speed.
const (
	IfName        = "1.3.6.1.2.1.31.1.1.1.1"
	IfHCInOctets  = "1.3.6.1.2.1.31.1.1.1.6"
	IfHCOutOctets = "1.3.6.1.2.1.31.1.1.1.10"
	IfHighSpeed   = "1.3.6.1.2.1.31.1.1.1.15"
)

// HOST-RESOURCES-MIB (RFC 2790). hrMemorySize reports KiB; the
// hrStorageTable reports sizes in allocation units.
const (
	HrMemorySize             = "1.3.6.1.2.1.25.2.2.0"
	HrStorageTable           = "1.3.6.1.2.1.25.2.3.1"
	HrStorageDescr           = "1.3.6.1.2.1.25.2.3.1.3"
	HrStorageAllocationUnits = "1.3.6.1.2.1.25.2.3.1.4"
	HrStorageSize            = "1.3.6.1.2.1.25.2.3.1.5"
	HrStorageUsed            = "1.3.6.1.2.1.25.2.3.1.6"
	HrProcessorLoad          = "1.3.6.1.2.1.25.3.3.1.2.1"
)
