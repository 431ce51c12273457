// hdcpctl drives HDCP 1.3 on an HDMI output.
//
// Usage:
//
//	hdcpctl [global_options] status|enable|disable|check|repeater|monitor|init-config [options]
//
// Hardware locations come from a JSON file (-config) and may be
// overridden with flags. -simulate runs every command against an emulated
// transmitter and receiver.
//
// Example:
//
//	hdcpctl -simulate -downstream 3 -debug enable
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/backkem/hdcp/pkg/hdcp"
)

var flags = flag.NewFlagSet("root", flag.ContinueOnError)

var monitorFlags = flag.NewFlagSet("monitor", flag.ContinueOnError)

var (
	debug      bool
	trace      bool
	configPath string
	override   DeviceConfig
	interval   time.Duration
)

func init() {
	flags.BoolVar(&debug, "debug", false, "Log at debug level")
	flags.BoolVar(&trace, "trace", false, "Log every register access")
	flags.StringVar(&configPath, "config", "", "JSON device configuration `file`")
	flags.StringVar(&override.MMIO, "mmio", "", "Register block `file` to map")
	flags.StringVar(&override.I2C, "i2c", "", "i2c-dev `node` of the DDC channel")
	flags.BoolVar(&override.TinyUSB, "tinyusb", false, "Use an i2c-tiny-usb adapter for DDC")
	flags.Func("addr", "Receiver 7-bit I2C `address` (default 0x3a)", func(s string) error {
		var v uint16
		if _, err := fmt.Sscanf(s, "%v", &v); err != nil {
			return err
		}
		if v > 0x7F {
			return fmt.Errorf("address must be 7 bits, got %#x", v)
		}
		override.Address = v
		return nil
	})
	flags.StringVar(&override.SRM, "srm", "", "System Renewability Message `file`")
	flags.BoolVar(&override.Simulate, "simulate", false, "Use emulated hardware")
	flags.IntVar(&override.Downstream, "downstream", 0, "Devices behind the emulated repeater (0 = plain sink)")
	flags.Usage = usage

	monitorFlags.DurationVar(&interval, "interval", hdcp.DefaultMonitorInterval, "Link check period")
	monitorFlags.Usage = func() {}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `
Usage:
  hdcpctl [global_options] <command> [--] [options]

Commands:
  status       Report capability, protection level and receiver details
  enable       Authenticate and encrypt; verifies repeaters
  disable      Stop encryption
  check        Verify link integrity (Ri)
  repeater     Verify the repeater's downstream topology
  monitor      Enable and check the link until interrupted
  init-config  Write a default configuration to -config

Global options:
%s
Monitor options:
%s`, options(flags), options(monitorFlags))
}

func options(flags *flag.FlagSet) string {
	oldOutput := flags.Output()
	defer flags.SetOutput(oldOutput)

	var buf bytes.Buffer
	flags.SetOutput(&buf)
	flags.PrintDefaults()

	return buf.String()
}

// deviceConfig merges the configuration file with flag overrides.
func deviceConfig() (*DeviceConfig, error) {
	config := defaultDeviceConfig()
	if configPath != "" {
		var err error
		if config, err = loadConfig(configPath); err != nil {
			return nil, err
		}
	}

	if override.MMIO != "" {
		config.MMIO = override.MMIO
	}
	if override.I2C != "" {
		config.I2C = override.I2C
	}
	if override.TinyUSB {
		config.TinyUSB = true
	}
	if override.Address != 0 {
		config.Address = override.Address
	}
	if override.SRM != "" {
		config.SRM = override.SRM
	}
	if override.Simulate {
		config.Simulate = true
	}
	if override.Downstream > 0 {
		config.Downstream = override.Downstream
	}
	return config, nil
}

func main() {
	if err := flags.Parse(os.Args[1:]); err != nil {
		usage()
		os.Exit(1)
	}

	switch {
	case trace:
		level.Set(levelTrace)
	case debug:
		level.Set(slog.LevelDebug)
	}

	sub := flags.Arg(0)
	var args []string
	if flags.NArg() > 1 {
		args = flags.Args()[1:]
		if flags.Arg(1) == "--" {
			args = flags.Args()[2:]
		}
	}

	if sub == "init-config" {
		if configPath == "" {
			_, _ = fmt.Fprintln(os.Stderr, "init-config requires -config")
			os.Exit(1)
		}
		if err := saveConfig(defaultDeviceConfig(), configPath); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "init-config error: %v\n", err)
			os.Exit(2)
		}
		return
	}

	var run func(d *device) error
	switch sub {
	case "status":
		run = printStatus
	case "enable":
		run = enable
	case "disable":
		run = disable
	case "check":
		run = check
	case "repeater":
		run = repeater
	case "monitor":
		if err := monitorFlags.Parse(args); err != nil {
			usage()
			os.Exit(1)
		}
		run = func(d *device) error { return monitor(d, interval) }
	default:
		if sub != "" {
			_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", sub)
		}
		usage()
		os.Exit(1)
	}

	config, err := deviceConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	d, err := openDevice(config)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "open error: %v\n", err)
		os.Exit(2)
	}

	err = run(d)
	if cerr := d.Close(); cerr != nil {
		slog.Warn("close failed", "error", cerr)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s error: %v\n", sub, err)
		os.Exit(2)
	}
}

// repeater verifies the downstream topology. Emulated hardware starts
// unauthenticated, so it is enabled first.
func repeater(d *device) error {
	if d.pair != nil && !d.c.IsEnabled() {
		if err := d.c.Enable(true); err != nil {
			return err
		}
	}
	return verifyRepeater(d)
}
