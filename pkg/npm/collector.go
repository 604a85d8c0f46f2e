package npm

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netnynja/netnynja/pkg/crypto/secrets"
	"github.com/netnynja/netnynja/pkg/icmp"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
	"github.com/netnynja/netnynja/pkg/snmp"
	"github.com/netnynja/netnynja/pkg/snmp/oids"
)

const (
	maxInterfaceRows = 200
	maxStorageRows   = 50
)

// Collector polls a single device over ICMP and SNMPv3 and assembles its
// point-in-time metrics. Every SNMP step is soft: a failed GET leaves the
// corresponding fields unset and the rest of the poll continues.
type Collector struct {
	pinger  icmp.Pinger
	dial    snmp.DialFunc
	cipher  *secrets.Cipher
	timeout time.Duration
	retries int
	logger  logger.Logger
}

// NewCollector builds a Collector from the poller configuration. A nil dial
// selects the default UDP dialer.
func NewCollector(cfg *Config, pinger icmp.Pinger, dial snmp.DialFunc, cipher *secrets.Cipher, log logger.Logger) *Collector {
	if dial == nil {
		dial = snmp.Dial
	}

	return &Collector{
		pinger:  pinger,
		dial:    dial,
		cipher:  cipher,
		timeout: time.Duration(cfg.SNMPTimeout),
		retries: cfg.SNMPRetries,
		logger:  log,
	}
}

// Collect performs one full poll of the target device.
func (c *Collector) Collect(ctx context.Context, target models.PollTarget) (models.DeviceMetrics, []models.InterfaceMetrics) {
	metrics := models.DeviceMetrics{
		DeviceID:   target.ID,
		DeviceName: target.Name,
		Timestamp:  time.Now().UTC(),
	}

	ip := stripCIDR(target.IPAddress)

	if target.PollICMP {
		res := c.pinger.Ping(ctx, ip)
		metrics.ICMPReachable = &res.Reachable
		metrics.ICMPLatencyMs = res.LatencyMs
		metrics.ICMPPacketLossPercent = &res.PacketLossPercent
	}

	var ifaces []models.InterfaceMetrics

	if target.PollSNMP && target.Credential != nil && ctx.Err() == nil {
		ifaces = c.collectSNMP(ctx, ip, target, &metrics)
	}

	metrics.IsAvailable = (metrics.ICMPReachable != nil && *metrics.ICMPReachable) ||
		(metrics.UptimeSeconds != nil && *metrics.UptimeSeconds > 0)

	return metrics, ifaces
}

func (c *Collector) collectSNMP(ctx context.Context, ip string, target models.PollTarget, metrics *models.DeviceMetrics) []models.InterfaceMetrics {
	cred, err := c.sessionCredential(target.Credential)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("device_id", target.ID.String()).
			Str("device", target.Name).
			Msg("Credential decryption failed, recording ICMP-only metrics")

		return nil
	}

	sess, err := c.dial(snmp.Config{
		Target:  ip,
		Port:    uint16(target.SNMPPort),
		Timeout: c.timeout,
		Retries: c.retries,
	}, cred, c.logger)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("device_id", target.ID.String()).
			Str("device", target.Name).
			Msg("SNMP session setup failed")

		return nil
	}
	defer sess.Close()

	vendor := models.ParseVendor(target.Vendor)
	profile := oids.Profile(vendor)

	c.collectUptime(sess, metrics)
	c.collectCPU(sess, vendor, profile, metrics)
	c.collectMemory(sess, profile, metrics)

	if v, ok := getInt(sess, oids.IfNumber); ok {
		metrics.InterfaceCount = int(v)
	}

	c.collectDisk(sess, profile, metrics)

	var ifaces []models.InterfaceMetrics
	if ctx.Err() == nil {
		ifaces = c.collectInterfaces(sess, metrics)
	}

	if ctx.Err() == nil {
		if len(profile.Services) > 0 {
			c.collectServices(sess, profile.Services, metrics)
		}

		if profile.SwapPercent != "" {
			if pdu, ok := sess.Get(profile.SwapPercent); ok {
				if v, ok := snmp.ToFloat64(pdu); ok {
					metrics.SwapUtilization = &v
				}
			}
		}
	}

	return ifaces
}

// sessionCredential decrypts the stored auth and priv passwords. The
// plaintext lives only inside the returned value for the duration of the
// poll and is never logged.
func (c *Collector) sessionCredential(stored *models.SNMPCredential) (snmp.Credential, error) {
	cred := snmp.Credential{
		Username:      stored.Username,
		SecurityLevel: stored.SecurityLevel,
		AuthProtocol:  stored.AuthProtocol,
		PrivProtocol:  stored.PrivProtocol,
		ContextName:   stored.ContextName,
	}

	if stored.AuthPasswordEnc != "" {
		plain, err := c.cipher.Decrypt(stored.AuthPasswordEnc)
		if err != nil {
			return snmp.Credential{}, err
		}

		cred.AuthPassword = plain
	}

	if stored.PrivPasswordEnc != "" {
		plain, err := c.cipher.Decrypt(stored.PrivPasswordEnc)
		if err != nil {
			return snmp.Credential{}, err
		}

		cred.PrivPassword = plain
	}

	return cred, nil
}

func (*Collector) collectUptime(sess snmp.Session, metrics *models.DeviceMetrics) {
	pdu, ok := sess.Get(oids.SysUpTime)
	if !ok {
		return
	}

	if v, ok := snmp.ToInt64(pdu); ok {
		secs := v / 100 // sysUpTime reports hundredths of a second
		metrics.UptimeSeconds = &secs
	}
}

func (*Collector) collectCPU(sess snmp.Session, vendor models.VendorKind, profile oids.VendorProfile, metrics *models.DeviceMetrics) {
	candidates := profile.CPU
	if vendor != models.VendorGeneric {
		candidates = append(append([]string{}, profile.CPU...), oids.GenericCPU()...)
	}

	for _, oid := range candidates {
		pdu, ok := sess.Get(oid)
		if !ok {
			continue
		}

		v, ok := snmp.ToFloat64(pdu)
		if !ok || v < 0 || v > 100 {
			continue
		}

		metrics.CPUUtilization = &v

		return
	}
}

func (*Collector) collectMemory(sess snmp.Session, profile oids.VendorProfile, metrics *models.DeviceMetrics) {
	spec := profile.Memory

	switch {
	case spec.UsedPercent != "":
		if pdu, ok := sess.Get(spec.UsedPercent); ok {
			if v, ok := snmp.ToFloat64(pdu); ok {
				metrics.MemoryUtilization = &v
			}
		}
	case spec.Used != "" && spec.Free != "":
		used, okUsed := getInt(sess, spec.Used)
		free, okFree := getInt(sess, spec.Free)

		if !okUsed || !okFree {
			return
		}

		total := used + free
		if total <= 0 {
			return
		}

		pct := float64(used) / float64(total) * 100
		metrics.MemoryUsedBytes = &used
		metrics.MemoryTotalBytes = &total
		metrics.MemoryUtilization = &pct
	case spec.TotalKiB != "":
		if v, ok := getInt(sess, spec.TotalKiB); ok {
			total := v * 1024 // hrMemorySize reports KiB
			metrics.MemoryTotalBytes = &total
		}
	}
}

func (c *Collector) collectDisk(sess snmp.Session, profile oids.VendorProfile, metrics *models.DeviceMetrics) {
	spec := profile.Disk

	switch {
	case spec.UsedPercent != "":
		pdu, ok := sess.Get(spec.UsedPercent)
		if !ok {
			return
		}

		pct, ok := snmp.ToFloat64(pdu)
		if !ok {
			return
		}

		metrics.DiskUtilization = &pct

		if spec.CapacityMiB == "" {
			return
		}

		if v, ok := getInt(sess, spec.CapacityMiB); ok && v > 0 {
			total := v * 1024 * 1024 // capacity reported in MiB
			used := int64(float64(total) * pct / 100)
			metrics.DiskTotalBytes = &total
			metrics.DiskUsedBytes = &used
		}
	case spec.WalkStorage:
		c.walkStorageDisk(sess, metrics)
	}
}

// walkStorageDisk derives disk figures from hrStorageTable, preferring the
// root filesystem row.
func (*Collector) walkStorageDisk(sess snmp.Session, metrics *models.DeviceMetrics) {
	rows, err := sess.WalkSubtree(oids.HrStorageDescr, maxStorageRows)
	if err != nil || len(rows) == 0 {
		return
	}

	index := ""

	for _, pdu := range rows {
		descr, ok := snmp.ToString(pdu)
		if !ok {
			continue
		}

		idx := lastOIDLabel(pdu.Name)
		if idx == "" {
			continue
		}

		if descr == "/" {
			index = idx
			break
		}

		if index == "" && strings.HasPrefix(descr, "/") {
			index = idx
		}
	}

	if index == "" {
		return
	}

	units, okUnits := getInt(sess, oids.HrStorageAllocationUnits+"."+index)
	size, okSize := getInt(sess, oids.HrStorageSize+"."+index)

	if !okUnits || !okSize || units <= 0 || size <= 0 {
		return
	}

	total := size * units
	metrics.DiskTotalBytes = &total

	if used, ok := getInt(sess, oids.HrStorageUsed+"."+index); ok && used >= 0 {
		usedBytes := used * units
		pct := float64(usedBytes) / float64(total) * 100
		metrics.DiskUsedBytes = &usedBytes
		metrics.DiskUtilization = &pct
	}
}

func (c *Collector) collectInterfaces(sess snmp.Session, metrics *models.DeviceMetrics) []models.InterfaceMetrics {
	rows, err := sess.WalkSubtree(oids.IfDescr, maxInterfaceRows)
	if err != nil {
		c.logger.Debug().Err(err).Str("device", metrics.DeviceName).Msg("ifTable walk failed")
		return nil
	}

	if len(rows) == 0 {
		return nil
	}

	ifaces := make([]models.InterfaceMetrics, 0, len(rows))

	for _, pdu := range rows {
		ifIndex, err := strconv.Atoi(lastOIDLabel(pdu.Name))
		if err != nil {
			continue
		}

		descr, _ := snmp.ToString(pdu)
		ifaces = append(ifaces, c.collectInterfaceRow(sess, metrics, ifIndex, descr))
	}

	if metrics.InterfaceCount == 0 {
		metrics.InterfaceCount = len(ifaces)
	}

	for i := range ifaces {
		switch ifaces[i].OperStatus {
		case models.InterfaceUp:
			metrics.InterfaceUpCount++
		case models.InterfaceDown:
			metrics.InterfaceDownCount++
		}

		metrics.TotalInOctets += ifaces[i].InOctets
		metrics.TotalOutOctets += ifaces[i].OutOctets
		metrics.TotalInErrors += ifaces[i].InErrors
		metrics.TotalOutErrors += ifaces[i].OutErrors
	}

	return ifaces
}

func (*Collector) collectInterfaceRow(sess snmp.Session, metrics *models.DeviceMetrics, ifIndex int, descr string) models.InterfaceMetrics {
	idx := strconv.Itoa(ifIndex)

	row := models.InterfaceMetrics{
		DeviceID:      metrics.DeviceID,
		IfIndex:       ifIndex,
		InterfaceName: descr,
		Timestamp:     metrics.Timestamp,
		AdminStatus:   models.InterfaceUnknown,
		OperStatus:    models.InterfaceUnknown,
	}

	values := sess.GetMany([]string{
		oids.IfName + "." + idx,
		oids.IfAdminStatus + "." + idx,
		oids.IfOperStatus + "." + idx,
		oids.IfHCInOctets + "." + idx,
		oids.IfHCOutOctets + "." + idx,
		oids.IfInOctets + "." + idx,
		oids.IfOutOctets + "." + idx,
		oids.IfInErrors + "." + idx,
		oids.IfOutErrors + "." + idx,
		oids.IfInDiscards + "." + idx,
		oids.IfOutDiscards + "." + idx,
		oids.IfHighSpeed + "." + idx,
		oids.IfSpeed + "." + idx,
	})

	if pdu, ok := values[oids.IfName+"."+idx]; ok {
		if name, ok := snmp.ToString(pdu); ok && name != "" {
			row.InterfaceName = name
		}
	}

	if v, ok := pduInt(values, oids.IfAdminStatus+"."+idx); ok {
		row.AdminStatus = models.InterfaceStatusFromIFMIB(int(v))
	}

	if v, ok := pduInt(values, oids.IfOperStatus+"."+idx); ok {
		row.OperStatus = models.InterfaceStatusFromIFMIB(int(v))
	}

	// 64-bit counters when the agent exposes them, 32-bit otherwise.
	if v, ok := pduInt(values, oids.IfHCInOctets+"."+idx); ok {
		row.InOctets = v
	} else if v, ok := pduInt(values, oids.IfInOctets+"."+idx); ok {
		row.InOctets = v
	}

	if v, ok := pduInt(values, oids.IfHCOutOctets+"."+idx); ok {
		row.OutOctets = v
	} else if v, ok := pduInt(values, oids.IfOutOctets+"."+idx); ok {
		row.OutOctets = v
	}

	if v, ok := pduInt(values, oids.IfInErrors+"."+idx); ok {
		row.InErrors = v
	}

	if v, ok := pduInt(values, oids.IfOutErrors+"."+idx); ok {
		row.OutErrors = v
	}

	if v, ok := pduInt(values, oids.IfInDiscards+"."+idx); ok {
		row.InDiscards = v
	}

	if v, ok := pduInt(values, oids.IfOutDiscards+"."+idx); ok {
		row.OutDiscards = v
	}

	// ifHighSpeed is already Mbps; ifSpeed is bits per second.
	if v, ok := pduInt(values, oids.IfHighSpeed+"."+idx); ok && v > 0 {
		row.SpeedMbps = &v
	} else if v, ok := pduInt(values, oids.IfSpeed+"."+idx); ok && v > 0 {
		mbps := v / 1_000_000
		row.SpeedMbps = &mbps
	}

	return row
}

func (*Collector) collectServices(sess snmp.Session, serviceOIDs map[string]string, metrics *models.DeviceMetrics) {
	lookup := make([]string, 0, len(serviceOIDs))
	names := make(map[string]string, len(serviceOIDs))

	for name, oid := range serviceOIDs {
		lookup = append(lookup, oid)
		names[oid] = name
	}

	values := sess.GetMany(lookup)
	if len(values) == 0 {
		return
	}

	status := make(map[string]bool, len(values))
	for oid, pdu := range values {
		status[names[oid]] = serviceUp(pdu)
	}

	metrics.ServicesStatus = status
}

// serviceUp interprets a vendor service-status value: integer 1 or the
// strings running/active/enabled/up mean healthy.
func serviceUp(pdu gosnmp.SnmpPDU) bool {
	if v, ok := snmp.ToInt64(pdu); ok {
		return v == 1
	}

	if s, ok := snmp.ToString(pdu); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "running", "active", "enabled", "up":
			return true
		}
	}

	return false
}

func getInt(sess snmp.Session, oid string) (int64, bool) {
	pdu, ok := sess.Get(oid)
	if !ok {
		return 0, false
	}

	return snmp.ToInt64(pdu)
}

func pduInt(values map[string]gosnmp.SnmpPDU, oid string) (int64, bool) {
	pdu, ok := values[oid]
	if !ok {
		return 0, false
	}

	return snmp.ToInt64(pdu)
}

func stripCIDR(ip string) string {
	if i := strings.IndexByte(ip, '/'); i >= 0 {
		return ip[:i]
	}

	return ip
}

// lastOIDLabel returns the final numeric label of an OID name.
func lastOIDLabel(name string) string {
	name = strings.TrimSuffix(name, ".")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}

	return ""
}
