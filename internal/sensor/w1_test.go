package sensor

import (
	"path"
	"testing"

	"github.com/spf13/afero"

	"controlling_pump/internal/models"
)

func writeFile(t *testing.T, fs afero.Fs, p, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func TestW1Bus_DiscoverFiltersAndSorts(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/sys/bus/w1/devices"
	for _, d := range []string{"28-bbb", "w1_bus_master1", "28-aaa", "10-old"} {
		if err := fs.MkdirAll(path.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	bus := NewW1Bus(fs, root)
	got, err := bus.Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "28-aaa" || got[1] != "28-bbb" {
		t.Fatalf("unexpected addresses: %v", got)
	}
}

func TestW1Bus_DiscoverMissingRoot(t *testing.T) {
	bus := NewW1Bus(afero.NewMemMapFs(), "/nope")
	if _, err := bus.Discover(); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestW1Bus_ReadChannel(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := DefaultW1Root
	writeFile(t, fs, path.Join(root, "28-temp", "temperature"), "23125\n")
	writeFile(t, fs, path.Join(root, "28-slave", "w1_slave"),
		"72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=-1500\n")
	writeFile(t, fs, path.Join(root, "28-badcrc", "w1_slave"),
		"72 01 4b 46 7f ff 0e 10 57 : crc=57 NO\n72 01 4b 46 7f ff 0e 10 57 t=20000\n")
	writeFile(t, fs, path.Join(root, "28-garbage", "temperature"), "n/a")

	bus := NewW1Bus(fs, "")
	cases := []struct {
		addr string
		want float32
	}{
		{"28-temp", 23.125},
		{"28-slave", -1.5},
		{"28-badcrc", models.DisconnectedSentinel},
		{"28-garbage", models.DisconnectedSentinel},
		{"28-missing", models.DisconnectedSentinel},
	}
	for _, tc := range cases {
		t.Run(tc.addr, func(t *testing.T) {
			if got := bus.ReadChannel(tc.addr); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestW1Bus_RequestConversion(t *testing.T) {
	fs := afero.NewMemMapFs()
	bus := NewW1Bus(fs, DefaultW1Root)

	// No bulk-read support: silently a no-op.
	if err := bus.RequestConversion(); err != nil {
		t.Fatalf("unexpected error without bulk read: %v", err)
	}

	p := path.Join(DefaultW1Root, "w1_bus_master1", "therm_bulk_read")
	writeFile(t, fs, p, "0")
	if err := bus.RequestConversion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := afero.ReadFile(fs, p)
	if string(got) != "trigger" {
		t.Fatalf("expected trigger written, got %q", got)
	}
}
