package stig

import (
	"regexp"
	"sort"
	"strings"
)

var (
	hostNameRe     = regexp.MustCompile(`host-name\s+(\S+)`)
	loginMessageRe = regexp.MustCompile(`message\s+"([^"]+)"`)
	syslogHostRe   = regexp.MustCompile(`host\s+(\S+)`)
	ntpServerRe    = regexp.MustCompile(`server\s+(\S+)`)
	authOrderRe    = regexp.MustCompile(`authentication-order\s+\[(.*?)\]`)
	ipv4PrefixRe   = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+`)
	communityRe    = regexp.MustCompile(`community\s+"?([^"\s]+)"?`)
	zoneNameRe     = regexp.MustCompile(`security-zone\s+(\S+)`)
	ifaceNameRe    = regexp.MustCompile(`interfaces > (\S+)`)
	filterNameRe   = regexp.MustCompile(`filter\s+(\S+)`)
)

// SSHConfig holds the system services ssh settings.
type SSHConfig struct {
	Enabled         bool
	RootLogin       string
	ProtocolVersion string
	Ciphers         string
	MACs            string
	KeyExchange     string
	Settings        map[string]string
}

// LoginConfig holds system login settings, including the pre-login banner
// and account retry options.
type LoginConfig struct {
	Banner       string
	RetryOptions map[string]string
	Classes      map[string]string
	Users        map[string]string
}

// ScreenConfig holds security screen (IDS) options.
type ScreenConfig struct {
	IDSEnabled bool
	Options    map[string]string
}

// PolicyConfig holds security policy settings and the default-policy
// disposition.
type PolicyConfig struct {
	DefaultDeny   bool
	DefaultPermit bool
	Actions       []string
	Settings      map[string]string
}

// SecurityZone is one security-zone block.
type SecurityZone struct {
	Screen             string
	Interfaces         []string
	HostInboundTraffic []string
}

// IKEConfig collects security ike blocks.
type IKEConfig struct {
	Proposals []string
	Policies  []string
	Gateways  []string
	Settings  map[string]string
}

// IPsecConfig collects security ipsec blocks.
type IPsecConfig struct {
	Proposals []string
	Policies  []string
	VPNs      []string
	Settings  map[string]string
}

// IDPConfig collects security idp blocks.
type IDPConfig struct {
	ActivePolicy    string
	SecurityPackage bool
	Settings        map[string]string
}

// SNMPv3Config tracks the USM, authentication, and privacy indicators the
// evaluator cares about.
type SNMPv3Config struct {
	USMConfigured bool
	AuthSHA       bool
	AuthMD5       bool
	PrivacyAES    bool
	PrivacyDES    bool
	Settings      map[string]string
}

// InterfaceConfig is one interface block and its raw lines.
type InterfaceConfig struct {
	Name  string
	Lines []string
}

// FirewallFilter is one firewall filter with its term lines.
type FirewallFilter struct {
	Terms          []string
	LoggingEnabled bool
}

// DeviceConfig is the typed extraction of a JunOS-style configuration. The
// parser is a tolerant pattern pass, not a grammar: unknown constructs land
// in Sections and are otherwise ignored, so non-Juniper configurations
// still yield usable raw-content matching.
type DeviceConfig struct {
	Hostname   string
	Version    string
	RawContent string

	SSH   SSHConfig
	Login LoginConfig

	NetconfEnabled       bool
	WebManagementEnabled bool
	TelnetEnabled        bool
	FTPEnabled           bool

	SyslogHosts         []string
	SyslogFiles         []string
	SyslogSourceAddress string

	NTPServers        []string
	NTPAuthentication bool

	AuthenticationOrder []string
	TACACSServers       []string
	RADIUSServers       []string

	SecurityLog        map[string]string
	SecurityLogStreams []string

	Screen   ScreenConfig
	Policies PolicyConfig
	Zones    map[string]*SecurityZone
	IKE      IKEConfig
	IPsec    IPsecConfig
	IDP      IDPConfig
	ALG      map[string]string

	SNMP            map[string]string
	SNMPv3          SNMPv3Config
	SNMPCommunities []string

	Interfaces      []*InterfaceConfig
	FirewallFilters map[string]*FirewallFilter
	RoutingOptions  map[string]string

	// Sections maps each brace path ("security > zones > security-zone
	// TRUST") to the lines that appeared directly inside it.
	Sections map[string]string

	rawLower string
}

func newDeviceConfig(content string) *DeviceConfig {
	return &DeviceConfig{
		RawContent: content,
		rawLower:   strings.ToLower(content),
		SSH:        SSHConfig{Settings: make(map[string]string)},
		Login: LoginConfig{
			RetryOptions: make(map[string]string),
			Classes:      make(map[string]string),
			Users:        make(map[string]string),
		},
		SecurityLog:     make(map[string]string),
		Screen:          ScreenConfig{Options: make(map[string]string)},
		Policies:        PolicyConfig{Settings: make(map[string]string)},
		Zones:           make(map[string]*SecurityZone),
		IKE:             IKEConfig{Settings: make(map[string]string)},
		IPsec:           IPsecConfig{Settings: make(map[string]string)},
		IDP:             IDPConfig{Settings: make(map[string]string)},
		ALG:             make(map[string]string),
		SNMP:            make(map[string]string),
		SNMPv3:          SNMPv3Config{Settings: make(map[string]string)},
		FirewallFilters: make(map[string]*FirewallFilter),
		RoutingOptions:  make(map[string]string),
		Sections:        make(map[string]string),
	}
}

func (c *DeviceConfig) rawContains(sub string) bool {
	return strings.Contains(c.rawLower, sub)
}

// zoneNames returns the configured zone names in stable order.
func (c *DeviceConfig) zoneNames() []string {
	names := make([]string, 0, len(c.Zones))
	for name := range c.Zones {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (c *DeviceConfig) zone(name string) *SecurityZone {
	z, ok := c.Zones[name]
	if !ok {
		z = &SecurityZone{}
		c.Zones[name] = z
	}

	return z
}

func (c IKEConfig) configured() bool {
	return len(c.Settings) > 0 || len(c.Proposals) > 0 || len(c.Policies) > 0 || len(c.Gateways) > 0
}

// mentions reports whether any stored IKE key, value, or block line
// contains sub (lowercase).
func (c IKEConfig) mentions(sub string) bool {
	for k, v := range c.Settings {
		if strings.Contains(strings.ToLower(k), sub) || strings.Contains(strings.ToLower(v), sub) {
			return true
		}
	}

	for _, lines := range [][]string{c.Proposals, c.Policies, c.Gateways} {
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), sub) {
				return true
			}
		}
	}

	return false
}

func (c IPsecConfig) configured() bool {
	return len(c.Settings) > 0 || len(c.Proposals) > 0 || len(c.Policies) > 0 || len(c.VPNs) > 0
}

func (c IDPConfig) configured() bool {
	return len(c.Settings) > 0 || c.ActivePolicy != "" || c.SecurityPackage
}

// ParseDeviceConfig extracts security-relevant settings from a brace-style
// device configuration. Section depth is tracked with a stack pushed on
// "name {" lines and popped on "}", and each line is offered to per-root
// extractors keyed on the lowercased " > "-joined path.
func ParseDeviceConfig(content string) *DeviceConfig {
	cfg := newDeviceConfig(content)

	var (
		stack        []string
		sectionLines = make(map[string][]string)
	)

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)

		if stripped == "" || strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "/*") {
			continue
		}

		switch {
		case strings.HasSuffix(stripped, "{"):
			name := strings.TrimSpace(strings.TrimSuffix(stripped, "{"))
			stack = append(stack, name)

			path := strings.Join(stack, " > ")
			if _, ok := sectionLines[path]; !ok {
				sectionLines[path] = nil
			}

		case stripped == "}":
			if len(stack) == 0 {
				continue
			}

			path := strings.Join(stack, " > ")
			if lines, ok := sectionLines[path]; ok {
				cfg.Sections[path] = strings.Join(lines, "\n")
			}

			stack = stack[:len(stack)-1]

		default:
			if len(stack) > 0 {
				path := strings.Join(stack, " > ")
				sectionLines[path] = append(sectionLines[path], stripped)
			}

			fullPath := strings.ToLower(strings.Join(stack, " > "))
			cfg.parseLine(stripped, fullPath)
		}
	}

	return cfg
}

func (c *DeviceConfig) parseLine(line, path string) {
	clean := strings.TrimSpace(strings.TrimRight(line, ";"))

	if strings.Contains(path, "system") {
		c.parseSystem(clean, path)
	}

	if strings.Contains(path, "security") {
		c.parseSecurity(clean, path)
	}

	if strings.Contains(path, "snmp") || strings.HasPrefix(line, "snmp") {
		c.parseSNMP(clean, path)
	}

	if strings.Contains(path, "interfaces") {
		c.parseInterface(clean, path)
	}

	if strings.Contains(path, "firewall") {
		c.parseFirewall(clean, path)
	}

	if strings.Contains(path, "routing-options") {
		parseKeyValue(clean, c.RoutingOptions)
	}
}

func (c *DeviceConfig) parseSystem(line, path string) {
	if strings.Contains(line, "host-name") {
		if m := hostNameRe.FindStringSubmatch(line); m != nil {
			c.Hostname = m[1]
		}
	}

	if strings.HasPrefix(line, "version") {
		fields := strings.Fields(line)
		c.Version = fields[len(fields)-1]
	}

	if strings.Contains(path, "login") {
		switch {
		case strings.Contains(path, "retry-options"):
			parseKeyValue(line, c.Login.RetryOptions)
		case strings.Contains(line, "message"):
			if m := loginMessageRe.FindStringSubmatch(line); m != nil {
				c.Login.Banner = m[1]
			}
		case strings.Contains(path, "class"):
			parseKeyValue(line, c.Login.Classes)
		case strings.Contains(path, "user"):
			parseKeyValue(line, c.Login.Users)
		}
	}

	if strings.Contains(path, "services") {
		switch {
		case strings.Contains(path, "ssh"):
			c.parseSSH(line)
		case strings.Contains(path, "netconf"):
			c.NetconfEnabled = true
		case strings.Contains(path, "web-management"):
			c.WebManagementEnabled = true
		case strings.Contains(line, "telnet"):
			c.TelnetEnabled = true
		case strings.Contains(line, "ftp"):
			c.FTPEnabled = true
		}
	}

	if strings.Contains(path, "syslog") {
		if strings.Contains(line, "host") {
			if m := syslogHostRe.FindStringSubmatch(line); m != nil {
				c.SyslogHosts = append(c.SyslogHosts, m[1])
			}
		}

		if strings.Contains(line, "source-address") {
			fields := strings.Fields(line)
			c.SyslogSourceAddress = fields[len(fields)-1]
		}

		if strings.Contains(path, "file") {
			c.SyslogFiles = append(c.SyslogFiles, line)
		}
	}

	if strings.Contains(path, "ntp") {
		if strings.Contains(line, "server") {
			if m := ntpServerRe.FindStringSubmatch(line); m != nil {
				c.NTPServers = append(c.NTPServers, m[1])
			}
		}

		if strings.Contains(line, "authentication-key") {
			c.NTPAuthentication = true
		}
	}

	if strings.Contains(line, "authentication-order") {
		if m := authOrderRe.FindStringSubmatch(line); m != nil {
			c.AuthenticationOrder = strings.Fields(m[1])
		}
	}

	if strings.Contains(path, "tacplus-server") {
		if ip := leadingIPv4(line); ip != "" {
			c.TACACSServers = append(c.TACACSServers, ip)
		}
	}

	if strings.Contains(path, "radius-server") {
		if ip := leadingIPv4(line); ip != "" {
			c.RADIUSServers = append(c.RADIUSServers, ip)
		}
	}
}

func (c *DeviceConfig) parseSSH(line string) {
	c.SSH.Enabled = true

	parseKeyValue(line, c.SSH.Settings)

	if strings.Contains(line, "root-login") {
		if strings.Contains(line, "deny") {
			c.SSH.RootLogin = "deny"
		} else {
			c.SSH.RootLogin = "allow"
		}
	}

	fields := strings.Fields(line)
	last := fields[len(fields)-1]

	if strings.Contains(line, "protocol-version") {
		c.SSH.ProtocolVersion = last
	}

	if strings.Contains(line, "ciphers") {
		c.SSH.Ciphers = last
	}

	if strings.Contains(line, "macs") {
		c.SSH.MACs = last
	}

	if strings.Contains(line, "key-exchange") {
		c.SSH.KeyExchange = last
	}
}

func (c *DeviceConfig) parseSecurity(line, path string) {
	if strings.Contains(path, "security > log") {
		parseKeyValue(line, c.SecurityLog)

		if strings.Contains(path, "stream") {
			c.SecurityLogStreams = append(c.SecurityLogStreams, line)
		}
	}

	if strings.Contains(path, "screen") {
		parseKeyValue(line, c.Screen.Options)

		if strings.Contains(path, "ids-option") {
			c.Screen.IDSEnabled = true
		}
	}

	if strings.Contains(path, "policies") {
		if strings.Contains(path, "from-zone") {
			parseKeyValue(line, c.Policies.Settings)
		}

		if strings.Contains(path, "default-policy") {
			if strings.Contains(line, "deny-all") {
				c.Policies.DefaultDeny = true
			} else if strings.Contains(line, "permit-all") {
				c.Policies.DefaultPermit = true
			}
		}

		if strings.Contains(line, "then log") || strings.Contains(line, "then permit") || strings.Contains(line, "then deny") {
			c.Policies.Actions = append(c.Policies.Actions, line)
		}
	}

	if strings.Contains(path, "zones") && strings.Contains(path, "security-zone") {
		if m := zoneNameRe.FindStringSubmatch(path); m != nil {
			zone := c.zone(m[1])

			if strings.Contains(line, "screen") {
				fields := strings.Fields(line)
				zone.Screen = fields[len(fields)-1]
			}

			if strings.Contains(path, "interfaces") {
				zone.Interfaces = append(zone.Interfaces, strings.TrimRight(line, ";"))
			}

			if strings.Contains(path, "host-inbound-traffic") {
				zone.HostInboundTraffic = append(zone.HostInboundTraffic, line)
			}
		}
	}

	if strings.Contains(path, "ike") {
		parseKeyValue(line, c.IKE.Settings)

		if strings.Contains(path, "proposal") {
			c.IKE.Proposals = append(c.IKE.Proposals, line)
		}

		if strings.Contains(path, "policy") {
			c.IKE.Policies = append(c.IKE.Policies, line)
		}

		if strings.Contains(path, "gateway") {
			c.IKE.Gateways = append(c.IKE.Gateways, line)
		}
	}

	if strings.Contains(path, "ipsec") {
		parseKeyValue(line, c.IPsec.Settings)

		if strings.Contains(path, "proposal") {
			c.IPsec.Proposals = append(c.IPsec.Proposals, line)
		}

		if strings.Contains(path, "policy") {
			c.IPsec.Policies = append(c.IPsec.Policies, line)
		}

		if strings.Contains(path, "vpn") {
			c.IPsec.VPNs = append(c.IPsec.VPNs, line)
		}
	}

	if strings.Contains(path, "idp") {
		parseKeyValue(line, c.IDP.Settings)

		if strings.Contains(line, "active-policy") {
			fields := strings.Fields(line)
			c.IDP.ActivePolicy = fields[len(fields)-1]
		}

		if strings.Contains(path, "security-package") {
			c.IDP.SecurityPackage = true
		}
	}

	if strings.Contains(path, "alg") {
		parseKeyValue(line, c.ALG)
	}
}

func (c *DeviceConfig) parseSNMP(line, path string) {
	if strings.Contains(line, "community") {
		if m := communityRe.FindStringSubmatch(line); m != nil {
			c.SNMPCommunities = append(c.SNMPCommunities, m[1])
		}
	}

	if strings.Contains(path, "v3") {
		parseKeyValue(line, c.SNMPv3.Settings)

		if strings.Contains(path, "usm") {
			c.SNMPv3.USMConfigured = true
		}

		if strings.Contains(line, "authentication-sha") {
			c.SNMPv3.AuthSHA = true
		}

		if strings.Contains(line, "authentication-md5") {
			c.SNMPv3.AuthMD5 = true
		}

		if strings.Contains(line, "privacy-aes") {
			c.SNMPv3.PrivacyAES = true
		}

		if strings.Contains(line, "privacy-des") {
			c.SNMPv3.PrivacyDES = true
		}
	}

	parseKeyValue(line, c.SNMP)
}

func (c *DeviceConfig) parseInterface(line, path string) {
	m := ifaceNameRe.FindStringSubmatch(path)
	if m == nil {
		return
	}

	name := m[1]

	for _, iface := range c.Interfaces {
		if iface.Name == name {
			iface.Lines = append(iface.Lines, line)

			return
		}
	}

	c.Interfaces = append(c.Interfaces, &InterfaceConfig{Name: name, Lines: []string{line}})
}

func (c *DeviceConfig) parseFirewall(line, path string) {
	if !strings.Contains(path, "filter") {
		return
	}

	m := filterNameRe.FindStringSubmatch(path)
	if m == nil {
		return
	}

	filter, ok := c.FirewallFilters[m[1]]
	if !ok {
		filter = &FirewallFilter{}
		c.FirewallFilters[m[1]] = filter
	}

	if strings.Contains(path, "term") {
		filter.Terms = append(filter.Terms, line)

		if strings.Contains(line, "log") || strings.Contains(line, "syslog") {
			filter.LoggingEnabled = true
		}
	}
}

// parseKeyValue splits "some-key the rest" into target["some_key"] = "the
// rest". Flag lines with no value store "true".
func parseKeyValue(line string, target map[string]string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	key := strings.ReplaceAll(fields[0], "-", "_")

	if len(fields) == 1 {
		target[key] = "true"

		return
	}

	value := strings.TrimSpace(line[len(fields[0]):])
	value = strings.TrimSpace(strings.TrimRight(value, ";"))
	target[key] = value
}

func leadingIPv4(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	if ipv4PrefixRe.MatchString(fields[0]) {
		return fields[0]
	}

	return ""
}
