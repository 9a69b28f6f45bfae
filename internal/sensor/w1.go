package sensor

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"controlling_pump/internal/models"
)

// DefaultW1Root is where the Linux w1 subsystem exposes devices.
const DefaultW1Root = "/sys/bus/w1/devices"

const (
	ds18b20Family   = "28-"
	bulkReadFile    = "w1_bus_master1/therm_bulk_read"
	temperatureFile = "temperature"
	slaveFile       = "w1_slave"
	bulkTrigger     = "trigger"
)

// W1Bus reads DS18B20 probes through the w1_therm sysfs interface.
type W1Bus struct {
	fs   afero.Fs
	root string
}

// NewW1Bus returns a bus rooted at root on fs. Use afero.NewOsFs() for hardware.
func NewW1Bus(fs afero.Fs, root string) *W1Bus {
	if root == "" {
		root = DefaultW1Root
	}
	return &W1Bus{fs: fs, root: root}
}

// RequestConversion triggers a simultaneous conversion on every probe when the
// bus master supports bulk reads. Without it each read converts on demand.
func (b *W1Bus) RequestConversion() error {
	p := path.Join(b.root, bulkReadFile)
	ok, err := afero.Exists(b.fs, p)
	if err != nil || !ok {
		return nil
	}
	if err := afero.WriteFile(b.fs, p, []byte(bulkTrigger), 0o200); err != nil {
		return fmt.Errorf("trigger bulk conversion: %w", err)
	}
	return nil
}

// ReadChannel prefers the millidegree "temperature" attribute and falls back to
// the legacy w1_slave dump.
func (b *W1Bus) ReadChannel(addr string) float32 {
	dir := path.Join(b.root, addr)
	if raw, err := afero.ReadFile(b.fs, path.Join(dir, temperatureFile)); err == nil {
		if v, ok := parseMilliCelsius(strings.TrimSpace(string(raw))); ok {
			return v
		}
	}
	raw, err := afero.ReadFile(b.fs, path.Join(dir, slaveFile))
	if err != nil {
		return models.DisconnectedSentinel
	}
	if v, ok := parseSlave(string(raw)); ok {
		return v
	}
	return models.DisconnectedSentinel
}

// Discover lists DS18B20 devices in lexical order.
func (b *W1Bus) Discover() ([]string, error) {
	entries, err := afero.ReadDir(b.fs, b.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.root, err)
	}
	var addrs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ds18b20Family) {
			addrs = append(addrs, e.Name())
		}
	}
	sort.Strings(addrs)
	return addrs, nil
}

func parseMilliCelsius(s string) (float32, bool) {
	milli, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return float32(milli) / 1000, true
}

// parseSlave reads the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseSlave(s string) (float32, bool) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 2 || !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, false
	}
	i := strings.LastIndex(lines[1], "t=")
	if i < 0 {
		return 0, false
	}
	return parseMilliCelsius(strings.TrimSpace(lines[1][i+2:]))
}
