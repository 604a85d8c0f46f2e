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

// DeviceStatus is the overall health of a monitored device.
type DeviceStatus string

const (
	DeviceStatusUp          DeviceStatus = "up"
	DeviceStatusDown        DeviceStatus = "down"
	DeviceStatusDegraded    DeviceStatus = "degraded"
	DeviceStatusUnknown     DeviceStatus = "unknown"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

// SecurityLevel is the SNMPv3 USM security level.
type SecurityLevel string

const (
	SecurityNoAuthNoPriv SecurityLevel = "noAuthNoPriv"
	SecurityAuthNoPriv   SecurityLevel = "authNoPriv"
	SecurityAuthPriv     SecurityLevel = "authPriv"
)

// Device represents a monitored network device.
type Device struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	IPAddress    string       `json:"ip_address"`
	DeviceType   string       `json:"device_type,omitempty"`
	Vendor       string       `json:"vendor,omitempty"`
	Model        string       `json:"model,omitempty"`
	SNMPPort     int          `json:"snmp_port"`
	PollICMP     bool         `json:"poll_icmp"`
	PollSNMP     bool         `json:"poll_snmp"`
	IsActive     bool         `json:"is_active"`
	CredentialID *uuid.UUID   `json:"snmpv3_credential_id,omitempty"`
	Status       DeviceStatus `json:"status"`
	ICMPStatus   string       `json:"icmp_status,omitempty"`
	SNMPStatus   string       `json:"snmp_status,omitempty"`
	LastPoll     *time.Time   `json:"last_poll,omitempty"`
	LastICMPPoll *time.Time   `json:"last_icmp_poll,omitempty"`
	LastSNMPPoll *time.Time   `json:"last_snmp_poll,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// SNMPCredential is an SNMPv3 user credential. The auth and priv password
// fields hold ciphertext in iv:tag:ciphertext hex form; they are decrypted
// immediately before session construction and the plaintext never leaves the
// collector.
type SNMPCredential struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Username        string        `json:"username"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	AuthProtocol    string        `json:"auth_protocol,omitempty"`
	AuthPasswordEnc string        `json:"-"`
	PrivProtocol    string        `json:"priv_protocol,omitempty"`
	PrivPasswordEnc string        `json:"-"`
	ContextName     string        `json:"context_name,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PollTarget is a device joined with its credential columns, as claimed by
// the scheduler for one poll cycle.
type PollTarget struct {
	Device
	Credential *SNMPCredential `json:"credential,omitempty"`
}
