package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/sim"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "hdcpctl.json")

	want := defaultDeviceConfig()
	want.I2C = "/dev/i2c-7"
	want.Downstream = 4
	if err := saveConfig(want, path); err != nil {
		t.Fatalf("saveConfig failed: %v", err)
	}

	got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if *got != *want {
		t.Errorf("loadConfig() = %+v, want %+v", got, want)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdcpctl.json")
	if err := os.WriteFile(path, []byte(`{"i2c": "/dev/i2c-1"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	def := defaultDeviceConfig()
	if got.I2C != "/dev/i2c-1" || got.MMIO != def.MMIO || got.Address != def.Address {
		t.Errorf("loadConfig() = %+v", got)
	}

	if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("loadConfig(bad json) = %v", err)
	}
}

func TestSimulatedSession(t *testing.T) {
	d, err := openDevice(&DeviceConfig{Simulate: true, Downstream: 3})
	if err != nil {
		t.Fatalf("openDevice failed: %v", err)
	}
	defer d.Close()

	if err := enable(d); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if err := check(d); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := printStatus(d); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if err := disable(d); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
}

func TestSimulatedRevokedDevice(t *testing.T) {
	down := sim.GenerateKSVs(1, 3)

	// SRM vectors store KSVs most significant byte first.
	stored := down[1]
	slices.Reverse(stored[:])
	msg := []byte{0x80, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00, 3 + 1 + ksv.Size + 40, 1}
	msg = append(msg, stored[:]...)
	msg = append(msg, make([]byte, 40)...)

	path := filepath.Join(t.TempDir(), "revoked.srm")
	if err := os.WriteFile(path, msg, 0o600); err != nil {
		t.Fatal(err)
	}

	d, err := openDevice(&DeviceConfig{Simulate: true, Downstream: 3, SRM: path})
	if err != nil {
		t.Fatalf("openDevice failed: %v", err)
	}
	defer d.Close()

	if !d.revoked.IsRevoked(down[1]) {
		t.Fatalf("SRM did not revoke %s", down[1])
	}

	err = enable(d)
	if err == nil || !strings.Contains(err.Error(), "RevokedHdcpDeviceAttached") {
		t.Fatalf("enable() = %v, want a revocation failure", err)
	}
	if d.c.IsEnabled() {
		t.Error("cipher still on")
	}
}
