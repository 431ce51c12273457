package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/hdcp"
	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
	"github.com/backkem/hdcp/pkg/sim"
	"github.com/backkem/hdcp/pkg/srm"
)

// device is an opened transmitter with its controller.
type device struct {
	c       *hdcp.Controller
	revoked ksv.RevocationSet
	closers []io.Closer

	// Set when simulating.
	pair *sim.Pair
}

func openDevice(config *DeviceConfig) (*device, error) {
	d := &device{}
	factory := slogFactory{}

	var (
		accessor regs.Accessor
		bus      ddc.Bus
		vblank   hdcp.VBlankWaiter
	)

	if config.Simulate {
		var down []ksv.KSV
		if config.Downstream > 0 {
			down = sim.GenerateKSVs(1, config.Downstream)
		}
		d.pair = sim.NewPair(sim.PairConfig{
			Repeater:   config.Downstream > 0,
			Downstream: down,
		})
		accessor, bus, vblank = d.pair.Transmitter, d.pair.Receiver, d.pair.Link
		slog.Info("using simulated hardware", "downstream", config.Downstream)
	} else {
		mmio, err := regs.OpenMMIO(config.MMIO, config.MapSize)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, mmio)
		accessor = mmio

		if config.TinyUSB {
			b, err := ddc.OpenTinyUSBBus()
			if err != nil {
				d.Close()
				return nil, err
			}
			d.closers = append(d.closers, b)
			bus = b
		} else {
			b, err := ddc.OpenLinuxBus(config.I2C)
			if err != nil {
				d.Close()
				return nil, err
			}
			d.closers = append(d.closers, b)
			bus = b
		}
	}

	if level.Level() <= levelTrace {
		accessor = regs.NewTracer(accessor, factory)
	}

	if config.SRM != "" {
		s, err := srm.Load(config.SRM)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("load SRM: %w", err)
		}
		d.revoked = s.Revoked
		slog.Info("loaded SRM", "version", s.Version, "revoked", s.Revoked.Len())
	}

	c, err := hdcp.New(hdcp.Config{
		Registers:       accessor,
		Bus:             bus,
		ReceiverAddress: config.Address,
		VBlank:          vblank,
		LoggerFactory:   factory,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.c = c
	return d, nil
}

func (d *device) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}
