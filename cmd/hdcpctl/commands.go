package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/backkem/hdcp/pkg/hdcp"
)

// Repeaters get 5 seconds to assemble their KSV list.
const (
	fifoRetries  = 50
	fifoInterval = 100 * time.Millisecond
)

func printStatus(d *device) error {
	c := d.c
	fmt.Printf("HDCP supported: %v\n", c.Query())
	if !c.Query() {
		return nil
	}

	p := &hdcp.CPParameters{ProtectionType: hdcp.ProtectionTypeHDCP}
	st := c.GetCPData(p)
	fmt.Printf("Protection:     %s (%s)\n", p.Level, st)
	fmt.Printf("Repeater:       %v\n", p.Repeater.IsRepeater)

	rx := c.Receiver()
	if bksv, err := rx.ReadBKSV(); err == nil {
		fmt.Printf("Bksv:           %s\n", bksv)
	}
	if bcaps, err := rx.ReadBCaps(); err == nil {
		fmt.Printf("BCaps:          %#02x (1.1=%v fast=%v)\n", uint8(bcaps), bcaps.Supports11(), bcaps.FastTransfer())
	}
	if !st.IsSuccess() {
		return fmt.Errorf("status: %s", st)
	}
	return nil
}

func enable(d *device) error {
	c := d.c
	p := &hdcp.CPParameters{ProtectionType: hdcp.ProtectionTypeHDCP, Level: hdcp.LevelOn}
	if st := c.SetCPData(p); !st.IsSuccess() {
		return fmt.Errorf("enable: %s", st)
	}

	s := c.Session()
	fmt.Printf("HDCP enabled: An=%016x Aksv=%s Bksv=%s\n", s.An, s.AKSV, s.BKSV)

	if p.Repeater.IsRepeater {
		return verifyRepeater(d)
	}
	return nil
}

func verifyRepeater(d *device) error {
	p := &hdcp.CPParameters{
		ProtectionType: hdcp.ProtectionTypeHDCP,
		Repeater:       hdcp.RepeaterData{PerformSecondStep: true},
		Revoked:        d.revoked,
	}

	st := d.c.SetCPData(p)
	for i := 0; st == hdcp.StatusPending && i < fifoRetries; i++ {
		time.Sleep(fifoInterval)
		st = d.c.SetCPData(p)
	}

	for i, k := range p.Repeater.KSVList {
		fmt.Printf("  downstream %3d: %s\n", i, k)
	}
	if !st.IsSuccess() {
		return fmt.Errorf("repeater: %s", st)
	}
	fmt.Printf("Repeater verified (%d devices)\n", len(p.Repeater.KSVList))
	return nil
}

func disable(d *device) error {
	if err := d.c.Enable(false); err != nil {
		return err
	}
	fmt.Println("HDCP disabled")
	return nil
}

func check(d *device) error {
	if err := d.c.CheckLink(); err != nil {
		return err
	}
	fmt.Println("Link OK")
	return nil
}

func monitor(d *device, interval time.Duration) error {
	if err := enable(d); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := hdcp.NewMonitor(d.c, hdcp.MonitorConfig{
		Interval:      interval,
		LoggerFactory: slogFactory{},
		OnLinkLost: func(err error) {
			fmt.Printf("Link lost: %v\n", err)
			stop()
		},
	})

	err := m.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if derr := d.c.Enable(false); derr != nil {
		return errors.Join(err, derr)
	}
	return err
}
