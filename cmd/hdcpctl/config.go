package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/regs"
)

// DeviceConfig locates the transmitter and the DDC channel.
type DeviceConfig struct {
	// MMIO is the file mapped for register access, usually the display
	// controller's PCI BAR: /sys/bus/pci/devices/0000:00:02.0/resource0
	MMIO    string `json:"mmio"`
	MapSize int    `json:"map_size,omitempty"`

	// I2C is the i2c-dev node carrying the HDMI port's DDC lines.
	I2C string `json:"i2c"`

	// TinyUSB selects an i2c-tiny-usb adapter instead of I2C.
	TinyUSB bool `json:"tinyusb,omitempty"`

	// Address is the receiver's 7-bit address.
	Address uint16 `json:"address,omitempty"`

	// SRM is an optional System Renewability Message with revoked KSVs.
	SRM string `json:"srm,omitempty"`

	// Simulate runs against an emulated transmitter and receiver.
	// Downstream is the number of devices behind the emulated repeater; 0
	// emulates a plain sink.
	Simulate   bool `json:"simulate,omitempty"`
	Downstream int  `json:"downstream,omitempty"`
}

func defaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		MMIO:    "/sys/bus/pci/devices/0000:00:02.0/resource0",
		MapSize: regs.DefaultMapSize,
		I2C:     "/dev/i2c-3",
		Address: ddc.PrimaryAddress,
	}
}

func saveConfig(config *DeviceConfig, path string) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func loadConfig(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config := defaultDeviceConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return config, nil
}
