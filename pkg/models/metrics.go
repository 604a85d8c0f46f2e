/*
 * Copyright 2025 NetNynja Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/google/uuid"
)

// InterfaceStatus is an interface admin or oper state as reported by IF-MIB
// (1=up, 2=down, anything else unknown).
type InterfaceStatus string

const (
	InterfaceUp      InterfaceStatus = "up"
	InterfaceDown    InterfaceStatus = "down"
	InterfaceUnknown InterfaceStatus = "unknown"
)

// InterfaceStatusFromIFMIB maps an IF-MIB status integer to InterfaceStatus.
func InterfaceStatusFromIFMIB(v int) InterfaceStatus {
	switch v {
	case 1:
		return InterfaceUp
	case 2:
		return InterfaceDown
	default:
		return InterfaceUnknown
	}
}

// DeviceMetrics is one point-in-time reading for a device. Optional readings
// are pointers: nil means the source OID did not answer, never zero.
type DeviceMetrics struct {
	DeviceID   uuid.UUID `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Timestamp  time.Time `json:"timestamp"`

	// ICMP
	ICMPLatencyMs         *float64 `json:"icmp_latency_ms,omitempty"`
	ICMPPacketLossPercent *float64 `json:"icmp_packet_loss_percent,omitempty"`
	ICMPReachable         *bool    `json:"icmp_reachable,omitempty"`

	// SNMP scalars
	CPUUtilization    *float64 `json:"cpu_utilization,omitempty"`
	MemoryUtilization *float64 `json:"memory_utilization,omitempty"`
	MemoryTotalBytes  *int64   `json:"memory_total_bytes,omitempty"`
	MemoryUsedBytes   *int64   `json:"memory_used_bytes,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	UptimeSeconds     *int64   `json:"uptime_seconds,omitempty"`

	// Disk and swap
	DiskUtilization *float64 `json:"disk_utilization,omitempty"`
	DiskTotalBytes  *int64   `json:"disk_total_bytes,omitempty"`
	DiskUsedBytes   *int64   `json:"disk_used_bytes,omitempty"`
	SwapUtilization *float64 `json:"swap_utilization,omitempty"`
	SwapTotalBytes  *int64   `json:"swap_total_bytes,omitempty"`

	// Interface summary
	InterfaceCount     int   `json:"interface_count"`
	InterfaceUpCount   int   `json:"interface_up_count"`
	InterfaceDownCount int   `json:"interface_down_count"`
	TotalInOctets      int64 `json:"total_in_octets"`
	TotalOutOctets     int64 `json:"total_out_octets"`
	TotalInErrors      int64 `json:"total_in_errors"`
	TotalOutErrors     int64 `json:"total_out_errors"`

	// Vendor service health (Sophos firewalls report a service table)
	ServicesStatus map[string]bool `json:"services_status,omitempty"`

	IsAvailable bool `json:"is_available"`
}

// InterfaceMetrics is one point-in-time reading for a single interface,
// identified by its device and IF-MIB ifIndex.
type InterfaceMetrics struct {
	DeviceID       uuid.UUID       `json:"device_id"`
	IfIndex        int             `json:"if_index"`
	InterfaceName  string          `json:"interface_name"`
	Timestamp      time.Time       `json:"timestamp"`
	AdminStatus    InterfaceStatus `json:"admin_status"`
	OperStatus     InterfaceStatus `json:"oper_status"`
	InOctets       int64           `json:"in_octets"`
	OutOctets      int64           `json:"out_octets"`
	InErrors       int64           `json:"in_errors"`
	OutErrors      int64           `json:"out_errors"`
	InDiscards     int64           `json:"in_discards"`
	OutDiscards    int64           `json:"out_discards"`
	SpeedMbps      *int64          `json:"speed_mbps,omitempty"`
	InUtilization  *float64        `json:"in_utilization,omitempty"`
	OutUtilization *float64        `json:"out_utilization,omitempty"`
}
