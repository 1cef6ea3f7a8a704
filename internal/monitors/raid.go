package monitors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/monitor"
)

const (
	// mdstatMax caps both /proc/mdstat and mdadm.conf.
	mdstatMax = 20000
	// mdadmMax caps the output of mdadm --detail --export.
	mdadmMax = 1000
	// mdstatPasses bounds how often mdstat is re-read while array names
	// move between arrays.
	mdstatPasses = 5
	// raidMaxDevices keeps the RAID10 chunk masks inside a uint64.
	raidMaxDevices = 32
)

var (
	// "md0 : active (auto-read-only) raid1 sdc1[1] sdb1[0]"
	mdstatArrayRE = regexp.MustCompile(`^(\S+) : (active|inactive) (\(read-only\) |\(auto-read-only\) )?(faulty |linear |multipath |raid0 |raid1 |raid4 |raid5 |raid6 |raid10 )?`)

	// "sdb1[0](F)"
	mdstatMemberRE = regexp.MustCompile(`^([[:alnum:]-]+)\[(\d+)\](\([WFSR]\))?`)

	// "... 512K chunks 2 near-copies [4/3] [UU_U]"
	mdstatStatusRE = regexp.MustCompile(`(?:(\d+) near-copies )?(?:(\d+) (?:far|offset)-copies )?\[(\d+)/(\d+)\] \[([U_]+)\]$`)

	mdadmConfArrayRE = regexp.MustCompile(`(?m)^ARRAY[ \t]+(<ignore>[ \t]+)?[^#\n]*\bUUID=((?:[0-9a-f]{8}:){3}[0-9a-f]{8})\b`)

	mdadmUUIDRE = regexp.MustCompile(`(?m)^MD_UUID=((?:[0-9a-f]{8}:){3}[0-9a-f]{8})$`)
)

type arrayStatus int

const (
	arrayStopped arrayStatus = iota // not listed in mdstat
	arrayInactive
	arrayActive
	arrayReadOnly
	arrayDegraded
	arrayFailed
)

var arrayStatusNames = [...]string{"stopped", "inactive", "active", "read-only", "degraded", "failed"}

func (s arrayStatus) String() string { return arrayStatusNames[s] }

type memberStatus int

const (
	memberUnknown memberStatus = iota
	memberExpected
	memberMissing
	memberActive
	memberFailed
	memberSpare
	memberWriteMostly
	memberReplacement
)

// raidArray is one md array, identified by UUID. Its name is only trusted
// while the array_state file opened under that name stays readable.
type raidArray struct {
	uuid      string
	name      string
	state     *os.File
	transient bool // not listed in mdadm.conf

	level   string
	ideal   int
	current int
	status  arrayStatus
	members []memberStatus // indexed like the disk table
}

// stillMapped reports whether the array's name still refers to it. A
// stopped array's sysfs files fail with ENODEV; the name is forgotten.
func (a *raidArray) stillMapped() (bool, error) {
	var b [1]byte
	_, err := a.state.ReadAt(b[:], 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.ENODEV):
		return false, a.unmap()
	case errors.Is(err, io.EOF):
		return false, fmt.Errorf("%s: unexpected EOF", a.state.Name())
	default:
		return false, err
	}
}

func (a *raidArray) unmap() error {
	err := a.state.Close()
	a.state = nil
	a.name = ""
	return err
}

// RAID reports the health of the md arrays built from the configured disks.
// Arrays listed in mdadm.conf are expected to run; others are tracked
// while they do.
type RAID struct {
	interval  time.Duration
	mdstat    string
	mdadmConf string
	sysfsDir  string
	mdadm     string
	timeout   time.Duration

	loaded bool
	arrays []*raidArray
}

// NewRAID builds the RAID status monitor.
func NewRAID(cfg config.RAIDConfig) *RAID {
	return &RAID{
		interval:  time.Duration(cfg.Interval) * time.Second,
		mdstat:    cfg.Mdstat,
		mdadmConf: cfg.MdadmConf,
		sysfsDir:  cfg.SysfsDir,
		mdadm:     cfg.Command,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
	}
}

func (m *RAID) Name() string            { return "raid" }
func (m *RAID) Title() string           { return "RAID STATUS" }
func (m *RAID) Interval() time.Duration { return m.interval }

// Check reads mdstat, updates every known array and publishes the counts
// of healthy, degraded and failed arrays.
func (m *RAID) Check(t *monitor.Task) error {
	disks := t.Record().Disks()
	if !m.loaded {
		if err := m.loadConf(t, len(disks)); err != nil {
			return err
		}
		m.loaded = true
	}

	for pass := 0; ; pass++ {
		if pass == mdstatPasses {
			return fmt.Errorf("RAID array names changed on %d consecutive reads of %s", pass, m.mdstat)
		}
		buf, err := t.ReadFile(m.mdstat, mdstatMax)
		if err != nil {
			return err
		}
		// mdadm output reuses the task buffer.
		changed, err := m.parseMdstat(t, bytes.Clone(buf), disks)
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}

	for _, a := range m.arrays {
		t.Logger().Debug("RAID array", "array", a.name, "uuid", a.uuid, "status", a.status)
	}
	t.Record().Publish(m.result(len(disks)))
	return nil
}

// Close releases the sysfs files of every mapped array.
func (m *RAID) Close() error {
	var errs []error
	for _, a := range m.arrays {
		if a.state != nil {
			errs = append(errs, a.unmap())
		}
	}
	return errors.Join(errs...)
}

// loadConf records the arrays mdadm.conf defines. A missing file defines
// none.
func (m *RAID) loadConf(t *monitor.Task, ndisks int) error {
	if m.mdadmConf == "" {
		return nil
	}
	buf, err := t.ReadFile(m.mdadmConf, mdstatMax)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, match := range mdadmConfArrayRE.FindAllSubmatch(buf, -1) {
		if len(match[1]) != 0 {
			continue // <ignore>
		}
		uuid := string(match[2])
		if m.byUUID(uuid) == nil {
			m.arrays = append(m.arrays, &raidArray{uuid: uuid, members: make([]memberStatus, ndisks)})
		}
	}
	return nil
}

func (m *RAID) byName(name string) *raidArray {
	for _, a := range m.arrays {
		if a.name == name {
			return a
		}
	}
	return nil
}

func (m *RAID) byUUID(uuid string) *raidArray {
	for _, a := range m.arrays {
		if a.uuid == uuid {
			return a
		}
	}
	return nil
}

// parseMdstat updates the arrays from one read of mdstat. It reports true
// when an array name may have been remapped, in which case nothing after
// that array was parsed and mdstat must be read again.
func (m *RAID) parseMdstat(t *monitor.Task, buf []byte, disks monitor.DiskTable) (bool, error) {
	for _, a := range m.arrays {
		a.status = arrayStopped
	}

	changed := false
	lines := strings.Split(string(buf), "\n")
	for i := 0; i < len(lines); i++ {
		match := mdstatArrayRE.FindStringSubmatchIndex(lines[i])
		if match == nil {
			continue
		}
		line := lines[i]

		a, remapped, err := m.find(t, line[match[2]:match[3]], len(disks))
		if err != nil {
			return false, err
		}
		if remapped {
			changed = true
		}
		if changed || a == nil {
			continue
		}

		var next string
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		if err := parseArray(a, line, match, next, disks); err != nil {
			return false, err
		}
		if a.status != arrayInactive {
			i++
		}
	}
	return changed, nil
}

// find returns the array currently named name. remapped is true when the
// name had to be looked up again; the array is nil when it vanished in
// the meantime.
func (m *RAID) find(t *monitor.Task, name string, ndisks int) (a *raidArray, remapped bool, err error) {
	if strings.ContainsRune(name, '/') {
		return nil, false, fmt.Errorf("invalid RAID device name %q", name)
	}

	if a = m.byName(name); a != nil {
		ok, err := a.stillMapped()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return a, false, nil
		}
	}

	state, err := os.Open(filepath.Join(m.sysfsDir, name, "md", "array_state"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	uuid, err := m.uuid(t, name)
	if err != nil {
		state.Close()
		return nil, false, err
	}

	a = m.byUUID(uuid)
	switch {
	case a == nil:
		a = &raidArray{uuid: uuid, transient: true, members: make([]memberStatus, ndisks)}
		m.arrays = append(m.arrays, a)
	case a.state != nil:
		if err := a.unmap(); err != nil {
			state.Close()
			return nil, false, err
		}
	}
	a.name = name
	a.state = state

	t.Logger().Debug("RAID array mapped", "array", name, "uuid", uuid, "transient", a.transient)
	return a, true, nil
}

// uuid asks mdadm for the UUID of /dev/name.
func (m *RAID) uuid(t *monitor.Task, name string) (string, error) {
	out, status, err := t.Output([]string{m.mdadm, "--detail", "--export", "/dev/" + name}, mdadmMax, m.timeout)
	if err != nil {
		return "", err
	}
	if status != 0 {
		return "", fmt.Errorf("mdadm exited with status %d", status)
	}
	match := mdadmUUIDRE.FindSubmatch(out)
	if match == nil {
		return "", fmt.Errorf("error parsing mdadm output for /dev/%s", name)
	}
	return string(match[1]), nil
}

// parseArray reads the first mdstat line of a (already matched by
// mdstatArrayRE) and, unless the array is inactive, its device count line.
func parseArray(a *raidArray, line string, match []int, next string, disks monitor.DiskTable) error {
	if line[match[4]] == 'i' {
		a.status = arrayInactive
	} else {
		a.status = arrayActive
		if match[6] >= 0 && line[match[6]+1] == 'r' {
			a.status = arrayReadOnly
		}
		a.level = ""
		if match[8] >= 0 {
			a.level = strings.TrimSpace(line[match[8]:match[9]])
		}
	}

	if err := parseMembers(a, line[match[1]:], disks); err != nil {
		return err
	}
	if a.status == arrayInactive {
		return nil
	}

	sm := mdstatStatusRE.FindStringSubmatch(strings.TrimRight(next, " \t"))
	if sm == nil {
		return fmt.Errorf("error parsing mdstat status of %s: %q", a.name, next)
	}
	a.ideal, _ = strconv.Atoi(sm[3])
	a.current, _ = strconv.Atoi(sm[4])
	if a.ideal > raidMaxDevices {
		return fmt.Errorf("RAID array %s has too many devices (%d)", a.name, a.ideal)
	}

	if a.current < a.ideal {
		near, far := 1, 1
		if sm[1] != "" {
			near, _ = strconv.Atoi(sm[1])
		}
		if sm[2] != "" {
			far, _ = strconv.Atoi(sm[2])
		}
		if levelFailed(a.level, a.ideal, a.current, near, far, sm[5]) {
			a.status = arrayFailed
		} else {
			a.status = arrayDegraded
		}
	}
	return nil
}

// parseMembers reads the "sdX1[n](F)" list. Disks that were members
// before and are no longer listed become missing. Every member must be a
// partition of a configured disk.
func parseMembers(a *raidArray, s string, disks monitor.DiskTable) error {
	for i, st := range a.members {
		if st != memberUnknown {
			a.members[i] = memberExpected
		}
	}

	for {
		mm := mdstatMemberRE.FindStringSubmatchIndex(s)
		if mm == nil {
			break
		}
		dev := s[mm[2]:mm[3]]
		i, ok := -1, false
		if len(dev) >= 3 && strings.HasPrefix(dev, "sd") {
			i, ok = disks.IndexOf(dev[2])
		}
		if !ok {
			return fmt.Errorf("unexpected RAID array member: %s", dev)
		}

		a.members[i] = memberActive
		if mm[6] >= 0 {
			switch s[mm[6]+1] {
			case 'W':
				a.members[i] = memberWriteMostly
			case 'F':
				a.members[i] = memberFailed
			case 'S':
				a.members[i] = memberSpare
			case 'R':
				a.members[i] = memberReplacement
			}
		}

		s = strings.TrimPrefix(s[mm[1]:], " ")
	}

	for i, st := range a.members {
		if st == memberExpected {
			a.members[i] = memberMissing
		}
	}
	return nil
}

// levelFailed reports whether a degraded array of the given level has
// lost data.
func levelFailed(level string, ideal, current, near, far int, summary string) bool {
	switch level {
	case "linear", "raid0":
		return true
	case "multipath", "raid1":
		return current < 1
	case "raid4", "raid5":
		return ideal-current > 1
	case "raid6":
		return ideal-current > 2
	case "raid10":
		return raid10Failed(near, far, ideal, current, summary)
	}
	return false // faulty
}

// raid10Failed walks the chunk layout of a RAID10 array: each chunk has
// near*far copies on consecutive devices, and successive chunks start near
// devices further along. The array has failed when some chunk has no copy
// on an active device.
func raid10Failed(near, far, disks, current int, summary string) bool {
	copies := near * far
	if near < 1 || far < 1 || copies > disks {
		return true
	}
	if copies == disks {
		return current < 1
	}
	if copies == 1 {
		return true
	}

	var active uint64
	for i := 0; i < len(summary) && i < disks; i++ {
		if summary[i] == 'U' {
			active |= 1 << i
		}
	}

	all := uint64(1)<<disks - 1
	first := uint64(1)<<copies - 1
	wrap := (uint64(1)<<near - 1) << disks

	chunk := first
	for {
		if active&chunk == 0 {
			return true
		}
		chunk <<= near
		chunk |= (chunk & wrap) >> disks
		chunk &= all
		if chunk == first {
			return false
		}
	}
}

// result counts the arrays by health and raises the alert of every disk
// that is a failed or missing member of an unhealthy array.
func (m *RAID) result(ndisks int) monitor.Status {
	var ok, warn, fail int
	alerts := make([]bool, ndisks)

	for _, a := range m.arrays {
		switch a.status {
		case arrayActive:
			ok++
			continue
		case arrayDegraded:
			warn++
		case arrayStopped, arrayInactive:
			if a.transient {
				continue
			}
			fail++
		case arrayReadOnly, arrayFailed:
			fail++
		}
		if a.status == arrayStopped {
			continue
		}

		for i, st := range a.members {
			switch st {
			case memberFailed, memberMissing:
				alerts[i] = true
			case memberUnknown:
				// Without a status the disk is only to blame when every
				// configured disk belongs to the array.
				if a.ideal == ndisks {
					alerts[i] = true
				}
			}
		}
	}

	return monitor.Status{
		Lower: fmt.Sprintf("OK:%d WARN:%d FAIL:%d", ok, warn, fail),
		Warn:  warn > 0,
		Fail:  fail > 0,
		Disks: alerts,
	}
}
