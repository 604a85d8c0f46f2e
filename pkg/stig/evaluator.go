package stig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// Rule categories. NDM covers device-management rules, ALG the firewall
// and policy rules, with VPN and IDPS split out because their checks turn
// on whole feature blocks being present.
const (
	CategoryALG  = "alg"
	CategoryIDPS = "idps"
	CategoryNDM  = "ndm"
	CategoryVPN  = "vpn"
)

var (
	protocolVersionV2Re = regexp.MustCompile(`(?i)protocol-version\s+v2`)
	idleTimeoutRe       = regexp.MustCompile(`idle-timeout\s+(\d+)`)
	setCommandRe        = regexp.MustCompile(`set\s+([\w\-\s]+?)(?:\n|$|;)`)
)

// checkHandler evaluates one family of benchmark rules against a parsed
// device configuration. Handlers are consulted in a fixed priority order
// and the first match wins.
type checkHandler interface {
	Category() string
	Matches(rule models.STIGRule) bool
	Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string)
}

// categorize buckets a rule by keywords in its title and check text.
func categorize(rule models.STIGRule) string {
	title := strings.ToLower(rule.Title)
	check := strings.ToLower(rule.CheckContent)

	contains := func(keywords ...string) bool {
		for _, kw := range keywords {
			if strings.Contains(title, kw) || strings.Contains(check, kw) {
				return true
			}
		}

		return false
	}

	switch {
	case contains("vpn", "ike", "ipsec", "tunnel", "certificate"):
		return CategoryVPN
	case contains("idp", "ids", "intrusion", "attack signature"):
		return CategoryIDPS
	case contains("snmp", "ssh", "ntp", "syslog", "logging", "authentication",
		"password", "account", "session", "banner", "management"):
		return CategoryNDM
	default:
		return CategoryALG
	}
}

func titleHas(rule models.STIGRule, keywords ...string) bool {
	title := strings.ToLower(rule.Title)
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}

	return false
}

// Evaluator runs benchmark rules against one parsed device configuration.
type Evaluator struct {
	cfg      *DeviceConfig
	handlers []checkHandler
}

// NewEvaluator builds an evaluator over the given configuration with the
// default handler chain.
func NewEvaluator(cfg *DeviceConfig) *Evaluator {
	return &Evaluator{cfg: cfg, handlers: defaultHandlers()}
}

func defaultHandlers() []checkHandler {
	return []checkHandler{
		sshChecker{},
		snmpChecker{},
		ntpChecker{},
		loggingChecker{},
		authChecker{},
		screenChecker{},
		policyChecker{},
		timeoutChecker{},
		vpnChecker{},
		idpChecker{},
		bannerChecker{},
		passwordChecker{},
		patternChecker{},
	}
}

// EvaluateRule evaluates one rule and returns its finding row.
func (e *Evaluator) EvaluateRule(jobID uuid.UUID, rule models.STIGRule) models.AuditResult {
	status := models.CheckNotReviewed
	finding := ""

	for _, h := range e.handlers {
		if h.Matches(rule) {
			status, finding = h.Evaluate(e.cfg, rule)

			break
		}
	}

	return models.AuditResult{
		JobID:          jobID,
		VulnID:         rule.VulnID,
		RuleID:         rule.RuleID,
		Title:          rule.Title,
		Severity:       normalizeSeverity(string(rule.Severity)),
		Status:         status,
		FindingDetails: finding,
	}
}

// EvaluateConfig parses a device configuration and evaluates every rule
// against it.
func EvaluateConfig(log logger.Logger, jobID uuid.UUID, content string, rules []models.STIGRule) []models.AuditResult {
	cfg := ParseDeviceConfig(content)

	log.Info().
		Str("hostname", cfg.Hostname).
		Str("version", cfg.Version).
		Int("zones", len(cfg.Zones)).
		Int("interfaces", len(cfg.Interfaces)).
		Msg("Parsed device configuration")

	evaluator := NewEvaluator(cfg)
	results := make([]models.AuditResult, 0, len(rules))

	for _, rule := range rules {
		results = append(results, evaluator.EvaluateRule(jobID, rule))
	}

	var passed, failed, notApplicable, needsReview int

	for i := range results {
		switch results[i].Status {
		case models.CheckPass:
			passed++
		case models.CheckFail:
			failed++
		case models.CheckNotApplicable:
			notApplicable++
		case models.CheckNotReviewed:
			needsReview++
		}
	}

	log.Info().
		Int("total_rules", len(results)).
		Int("passed", passed).
		Int("failed", failed).
		Int("not_applicable", notApplicable).
		Int("needs_review", needsReview).
		Msg("Configuration analysis complete")

	return results
}

type sshChecker struct{}

func (sshChecker) Category() string { return CategoryNDM }

func (sshChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "ssh")
}

func (sshChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var (
		findings []string
		failed   bool
	)

	if !cfg.SSH.Enabled {
		if !cfg.rawContains("services") || !cfg.rawContains("ssh") {
			return models.CheckFail, "SSH service not configured"
		}
	}

	if titleHas(rule, "v2", "version 2", "sshv2") {
		proto := cfg.SSH.ProtocolVersion
		if strings.Contains(strings.ToLower(proto), "v2") || strings.Contains(proto, "2") {
			findings = append(findings, "SSH Protocol Version: v2 ✓")
		} else {
			if proto == "" {
				proto = "not explicitly set"
			}

			findings = append(findings, fmt.Sprintf("SSH Protocol Version: %s", proto))

			// JunOS ships with v2 as the default, so silence is not a failure.
			if protocolVersionV2Re.MatchString(cfg.RawContent) {
				findings = append(findings, "protocol-version v2 found in config ✓")
			} else if !cfg.rawContains("protocol-version") {
				findings = append(findings, "Note: JunOS defaults to SSHv2")
			}
		}
	}

	if titleHas(rule, "root") {
		switch {
		case cfg.SSH.RootLogin == "deny":
			findings = append(findings, "SSH root-login: deny ✓")
		case cfg.rawContains("root-login deny"):
			findings = append(findings, "SSH root-login deny found in config ✓")
		default:
			findings = append(findings, "SSH root-login is not set to deny")
			failed = true
		}
	}

	if titleHas(rule, "fips", "cipher") {
		if strings.Contains(strings.ToLower(cfg.SSH.Ciphers), "aes256") || cfg.rawContains("aes256") {
			findings = append(findings, "SSH ciphers include AES256 ✓")
		}

		if strings.Contains(strings.ToLower(cfg.SSH.MACs), "sha2") || cfg.rawContains("sha2") {
			findings = append(findings, "SSH MACs include SHA2 ✓")
		}
	}

	if failed {
		return models.CheckFail, strings.Join(findings, "\n")
	}

	if len(findings) == 0 {
		return models.CheckPass, "SSH configuration appears compliant"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type snmpChecker struct{}

func (snmpChecker) Category() string { return CategoryNDM }

func (snmpChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "snmp")
}

func (snmpChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var (
		findings []string
		failed   bool
	)

	if titleHas(rule, "v3") {
		switch {
		case cfg.SNMPv3.USMConfigured:
			findings = append(findings, "SNMPv3 USM is configured ✓")

			if cfg.SNMPv3.AuthSHA {
				findings = append(findings, "SNMPv3 uses SHA authentication ✓")
			} else if cfg.SNMPv3.AuthMD5 {
				findings = append(findings, "SNMPv3 uses MD5 (should use SHA)")
				failed = true
			}

			if cfg.SNMPv3.PrivacyAES {
				findings = append(findings, "SNMPv3 uses AES privacy ✓")
			} else if cfg.SNMPv3.PrivacyDES {
				findings = append(findings, "SNMPv3 uses DES (should use AES)")
				failed = true
			}
		case cfg.rawContains("snmp v3"):
			findings = append(findings, "SNMPv3 configuration found in config")
		default:
			findings = append(findings, "SNMPv3 not configured")
			failed = true
		}
	}

	if len(cfg.SNMPCommunities) > 0 {
		findings = append(findings,
			fmt.Sprintf("WARNING: SNMP community strings found (v1/v2c): %d communities", len(cfg.SNMPCommunities)))

		if titleHas(rule, "v3") {
			failed = true
		}
	}

	if failed {
		return models.CheckFail, strings.Join(findings, "\n")
	}

	if len(findings) == 0 {
		return models.CheckPass, "SNMP configuration not detected (may be disabled)"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type ntpChecker struct{}

func (ntpChecker) Category() string { return CategoryNDM }

func (ntpChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "ntp", "time")
}

func (ntpChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	switch {
	case len(cfg.NTPServers) > 0:
		findings = append(findings,
			fmt.Sprintf("NTP servers configured: %s ✓", strings.Join(cfg.NTPServers, ", ")))
	case cfg.rawContains("ntp") && cfg.rawContains("server"):
		findings = append(findings, "NTP server configuration found in config ✓")
	default:
		return models.CheckFail, "No NTP servers configured"
	}

	if titleHas(rule, "authenticat") {
		switch {
		case cfg.NTPAuthentication:
			findings = append(findings, "NTP authentication is configured ✓")
		case cfg.rawContains("authentication-key"):
			findings = append(findings, "NTP authentication-key found in config ✓")
		default:
			findings = append(findings, "NTP authentication not explicitly configured")
		}
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type loggingChecker struct{}

func (loggingChecker) Category() string { return CategoryNDM }

func (loggingChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "log", "syslog", "audit")
}

func (loggingChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var (
		findings []string
		failed   bool
	)

	switch {
	case len(cfg.SyslogHosts) > 0:
		findings = append(findings,
			fmt.Sprintf("Syslog servers configured: %s ✓", strings.Join(cfg.SyslogHosts, ", ")))
	case cfg.rawContains("syslog") && cfg.rawContains("host"):
		findings = append(findings, "Syslog host configuration found in config ✓")
	default:
		findings = append(findings, "No remote syslog servers configured")

		if titleHas(rule, "centralized", "remote") {
			failed = true
		}
	}

	if len(cfg.SecurityLog) > 0 {
		findings = append(findings, "Security logging is configured ✓")

		if len(cfg.SecurityLogStreams) > 0 {
			findings = append(findings,
				fmt.Sprintf("Security log streams configured: %d ✓", len(cfg.SecurityLogStreams)))
		}
	} else if cfg.rawContains("security log") {
		findings = append(findings, "Security log configuration found in config ✓")
	}

	if titleHas(rule, "policy", "firewall") {
		var logActions int

		for _, action := range cfg.Policies.Actions {
			if strings.Contains(strings.ToLower(action), "log") {
				logActions++
			}
		}

		if logActions > 0 {
			findings = append(findings,
				fmt.Sprintf("Policy logging actions found: %d ✓", logActions))
		}

		if cfg.rawContains("then log") {
			findings = append(findings, "Policy 'then log' statements found in config ✓")
		}
	}

	if failed {
		return models.CheckFail, strings.Join(findings, "\n")
	}

	if len(findings) == 0 {
		return models.CheckPass, "Logging configuration review needed"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type authChecker struct{}

func (authChecker) Category() string { return CategoryNDM }

func (authChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "authentication", "tacacs", "radius")
}

func (authChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	if len(cfg.AuthenticationOrder) > 0 {
		findings = append(findings,
			fmt.Sprintf("Authentication order: %s ✓", strings.Join(cfg.AuthenticationOrder, " ")))
	} else if cfg.rawContains("authentication-order") {
		findings = append(findings, "Authentication order configured ✓")
	}

	if len(cfg.TACACSServers) > 0 {
		findings = append(findings,
			fmt.Sprintf("TACACS+ servers: %s ✓", strings.Join(cfg.TACACSServers, ", ")))
	} else if cfg.rawContains("tacplus") {
		findings = append(findings, "TACACS+ configuration found ✓")
	}

	if len(cfg.RADIUSServers) > 0 {
		findings = append(findings,
			fmt.Sprintf("RADIUS servers: %s ✓", strings.Join(cfg.RADIUSServers, ", ")))
	} else if cfg.rawContains("radius") {
		findings = append(findings, "RADIUS configuration found ✓")
	}

	if len(findings) == 0 {
		return models.CheckFail, "No centralized authentication configured"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

// screenProtections maps raw-config indicators to screen protection names,
// in report order.
var screenProtections = []struct {
	pattern string
	name    string
}{
	{"syn-flood", "SYN flood protection"},
	{"ping-death", "Ping of death protection"},
	{"land", "LAND attack protection"},
	{"tear-drop", "Teardrop protection"},
	{"spoofing", "IP spoofing protection"},
	{"source-route", "Source route protection"},
	{"winnuke", "WinNuke protection"},
}

type screenChecker struct{}

func (screenChecker) Category() string { return CategoryIDPS }

func (screenChecker) Matches(rule models.STIGRule) bool {
	if titleHas(rule, "screen") {
		return true
	}

	return titleHas(rule, "protect") && titleHas(rule, "attack")
}

func (screenChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	if cfg.Screen.IDSEnabled {
		findings = append(findings, "Security screen IDS option configured ✓")
	}

	for _, p := range screenProtections {
		if cfg.rawContains(p.pattern) {
			findings = append(findings, fmt.Sprintf("%s ✓", p.name))
		}
	}

	for _, name := range cfg.zoneNames() {
		if screen := cfg.Zones[name].Screen; screen != "" {
			findings = append(findings,
				fmt.Sprintf("Screen applied to zone '%s': %s ✓", name, screen))
		}
	}

	if len(findings) == 0 {
		if cfg.rawContains("screen") && cfg.rawContains("ids-option") {
			findings = append(findings, "Security screen configuration found in config")
		} else {
			return models.CheckFail, "No security screens configured"
		}
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type policyChecker struct{}

func (policyChecker) Category() string { return CategoryALG }

func (policyChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "policy", "zone")
}

func (policyChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	switch {
	case cfg.Policies.DefaultDeny:
		findings = append(findings, "Default policy: deny-all ✓")
	case cfg.rawContains("default-policy") && cfg.rawContains("deny-all"):
		findings = append(findings, "Default deny-all policy found ✓")
	case cfg.rawContains("default-policy") && cfg.rawContains("permit-all"):
		findings = append(findings, "WARNING: Default permit-all policy found")

		return models.CheckFail, strings.Join(findings, "\n")
	}

	if len(cfg.Zones) > 0 {
		findings = append(findings,
			fmt.Sprintf("Security zones configured: %s ✓", strings.Join(cfg.zoneNames(), ", ")))
	} else if cfg.rawContains("security-zone") {
		findings = append(findings, "Security zones found in config ✓")
	}

	if cfg.rawContains("from-zone") && cfg.rawContains("to-zone") {
		findings = append(findings, "Zone-to-zone policies configured ✓")
	}

	if len(findings) == 0 {
		return models.CheckNotReviewed, "Security policy configuration needs manual review"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type timeoutChecker struct{}

func (timeoutChecker) Category() string { return CategoryNDM }

func (timeoutChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "timeout", "idle", "session")
}

func (timeoutChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	if m := idleTimeoutRe.FindStringSubmatch(cfg.RawContent); m != nil {
		timeout, err := strconv.Atoi(m[1])
		if err == nil {
			findings = append(findings,
				fmt.Sprintf("Idle timeout configured: %d minutes", timeout))

			if timeout <= 10 {
				findings = append(findings, "Timeout is 10 minutes or less ✓")
			} else {
				findings = append(findings, "WARNING: Timeout exceeds 10 minutes")
			}
		}
	}

	if cfg.rawContains("cli idle-timeout") {
		findings = append(findings, "CLI idle-timeout configured ✓")
	}

	if len(findings) == 0 {
		return models.CheckFail, "No session timeout configuration found"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type vpnChecker struct{}

func (vpnChecker) Category() string { return CategoryVPN }

func (vpnChecker) Matches(rule models.STIGRule) bool {
	return categorize(rule) == CategoryVPN
}

func (vpnChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	if cfg.IKE.configured() {
		if titleHas(rule, "aes256", "encryption") {
			if cfg.IKE.mentions("aes256") || cfg.rawContains("aes-256") {
				findings = append(findings, "IKE AES-256 encryption found ✓")
			}
		}

		if titleHas(rule, "diffie-hellman", "group") {
			if cfg.rawContains("group14") || cfg.rawContains("group19") || cfg.rawContains("group20") {
				findings = append(findings, "Strong DH group configured ✓")
			}
		}

		findings = append(findings, "IKE configuration found ✓")
	} else if cfg.rawContains("ike") {
		findings = append(findings, "IKE configuration found in config")
	}

	if cfg.IPsec.configured() {
		findings = append(findings, "IPsec configuration found ✓")
	} else if cfg.rawContains("ipsec") {
		findings = append(findings, "IPsec configuration found in config")
	}

	if len(findings) == 0 {
		return models.CheckNotApplicable, "VPN not configured on this device"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type idpChecker struct{}

func (idpChecker) Category() string { return CategoryIDPS }

func (idpChecker) Matches(rule models.STIGRule) bool {
	return categorize(rule) == CategoryIDPS
}

func (idpChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	switch {
	case cfg.IDP.configured():
		if cfg.IDP.ActivePolicy != "" {
			findings = append(findings,
				fmt.Sprintf("IDP active policy: %s ✓", cfg.IDP.ActivePolicy))
		}

		if cfg.IDP.SecurityPackage {
			findings = append(findings, "IDP security package configured ✓")
		}

		findings = append(findings, "IDP configuration found ✓")
	case cfg.rawContains("idp"):
		findings = append(findings, "IDP configuration found in config")
	default:
		return models.CheckNotApplicable, "IDP not configured on this device"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type bannerChecker struct{}

func (bannerChecker) Category() string { return CategoryNDM }

func (bannerChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "banner")
}

func (bannerChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	if banner := cfg.Login.Banner; banner != "" {
		if len(banner) > 100 {
			banner = banner[:100]
		}

		return models.CheckPass, fmt.Sprintf("Login banner configured: '%s...'", banner)
	}

	if cfg.rawContains("message") && cfg.rawContains("login") {
		return models.CheckPass, "Login message/banner found in config ✓"
	}

	return models.CheckFail, "No login banner configured"
}

type passwordChecker struct{}

func (passwordChecker) Category() string { return CategoryNDM }

func (passwordChecker) Matches(rule models.STIGRule) bool {
	return titleHas(rule, "password", "lockout", "brute")
}

func (passwordChecker) Evaluate(cfg *DeviceConfig, _ models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	if len(cfg.Login.RetryOptions) > 0 {
		findings = append(findings, "Login retry options configured ✓")

		_, hasLockout := cfg.Login.RetryOptions["lockout_period"]
		if hasLockout || cfg.rawContains("lockout-period") {
			findings = append(findings, "Account lockout period configured ✓")
		}
	}

	if cfg.rawContains("retry-options") {
		findings = append(findings, "Retry options found in config ✓")
	}

	if cfg.rawContains("backoff") {
		findings = append(findings, "Login backoff configured ✓")
	}

	if len(findings) == 0 {
		return models.CheckFail, "No password/lockout policy found"
	}

	return models.CheckPass, strings.Join(findings, "\n")
}

type patternChecker struct{}

func (patternChecker) Category() string { return CategoryALG }

func (patternChecker) Matches(models.STIGRule) bool { return true }

// Evaluate extracts `set ...` commands from the fix text and looks for
// their leading words in the raw configuration.
func (patternChecker) Evaluate(cfg *DeviceConfig, rule models.STIGRule) (models.CheckStatus, string) {
	var findings []string

	matches := setCommandRe.FindAllStringSubmatch(strings.ToLower(rule.FixContent), -1)
	if len(matches) > 5 {
		matches = matches[:5]
	}

	for _, m := range matches {
		words := strings.Fields(m[1])
		if len(words) > 3 {
			words = words[:3]
		}

		if len(words) == 0 {
			continue
		}

		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}

		re, err := regexp.Compile(`(?i)` + strings.Join(quoted, `\s+`))
		if err != nil {
			continue
		}

		if re.MatchString(cfg.RawContent) {
			findings = append(findings,
				fmt.Sprintf("Pattern found: %s... ✓", strings.Join(words, " ")))
		}
	}

	if len(findings) > 0 {
		return models.CheckPass, strings.Join(findings, "\n")
	}

	return models.CheckNotReviewed, "Manual review required - automated check not available for this rule"
}
