package syslog

import "regexp"

type classification struct {
	pattern *regexp.Regexp
	label   string
}

// Ordered: the first matching pattern wins, so the specific vendor
// strings come before the generic OS ones.
var deviceTypePatterns = []classification{
	{regexp.MustCompile(`(?i)cisco`), "cisco"},
	{regexp.MustCompile(`(?i)juniper|junos`), "juniper"},
	{regexp.MustCompile(`(?i)paloalto|pan-os`), "paloalto"},
	{regexp.MustCompile(`(?i)fortinet|fortigate`), "fortinet"},
	{regexp.MustCompile(`(?i)f5|bigip`), "f5"},
	{regexp.MustCompile(`(?i)arista`), "arista"},
	{regexp.MustCompile(`(?i)hp|procurve|aruba`), "hp"},
	{regexp.MustCompile(`(?i)mellanox`), "mellanox"},
	{regexp.MustCompile(`(?i)vmware|esxi|vcenter`), "vmware"},
	{regexp.MustCompile(`(?i)linux|ubuntu|centos|rhel|debian`), "linux"},
	{regexp.MustCompile(`(?i)windows|microsoft`), "windows"},
	{regexp.MustCompile(`(?i)pfsense`), "pfsense"},
}

var eventTypePatterns = []classification{
	{regexp.MustCompile(`(?i)login|logon|auth|ssh|session.*open`), "authentication"},
	{regexp.MustCompile(`(?i)logout|logoff|session.*close`), "logout"},
	{regexp.MustCompile(`(?i)fail|denied|reject|block`), "security_alert"},
	{regexp.MustCompile(`(?i)interface.*(up|down)|link.*(up|down)`), "link_state"},
	{regexp.MustCompile(`(?i)error|err|fail|critical`), "error"},
	{regexp.MustCompile(`(?i)warn|warning`), "warning"},
	{regexp.MustCompile(`(?i)config|configuration|change`), "configuration"},
	{regexp.MustCompile(`(?i)bgp|ospf|eigrp|routing`), "routing"},
	{regexp.MustCompile(`(?i)cpu|memory|disk|utilization`), "performance"},
	{regexp.MustCompile(`(?i)backup|restore|snapshot`), "backup"},
	{regexp.MustCompile(`(?i)firewall|acl|rule|policy`), "firewall"},
	{regexp.MustCompile(`(?i)certificate|ssl|tls`), "certificate"},
}

// DetectDeviceType guesses the sending platform from the hostname and
// message text. Returns "" when nothing matches.
func DetectDeviceType(message, hostname string) string {
	text := hostname + " " + message
	for _, c := range deviceTypePatterns {
		if c.pattern.MatchString(text) {
			return c.label
		}
	}

	return ""
}

// DetectEventType buckets the message into a coarse event category,
// matched against the message body only. Returns "" when nothing
// matches.
func DetectEventType(message string) string {
	for _, c := range eventTypePatterns {
		if c.pattern.MatchString(message) {
			return c.label
		}
	}

	return ""
}
