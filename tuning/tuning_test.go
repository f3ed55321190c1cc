package tuning

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/chzchzchz/specterm/radio"
)

func startControl(t *testing.T, dev radio.Controller) *ControlChannel {
	c := NewControlChannel(dev, nil)
	ctx, cancel := context.WithCancel(context.TODO())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func TestConfigureDefaults(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := startControl(t, dev)
	if err := c.Configure(DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	expected := []string{
		"EnableAGC()",
		"SetPPM(-2)",
		"SetCenterFreq(100059009)",
		"SetBandwidth(200000)",
		"SetSampleRate(2560000)",
	}
	if got := dev.Calls(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	if c.State() != DefaultConfig().State {
		t.Fatalf("unexpected state %+v", c.State())
	}
}

func TestConfigureFailure(t *testing.T) {
	dev := radio.NewFakeDevice()
	boom := errors.New("usb gone")
	dev.Fail("SetSampleRate", boom)
	c := startControl(t, dev)
	if err := c.Configure(DefaultConfig()); !errors.Is(err, boom) {
		t.Fatalf("expected device error, got %v", err)
	}
	if c.State() != (State{}) {
		t.Fatalf("state changed on failed configure: %+v", c.State())
	}
}

func TestApplyRejected(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := startControl(t, dev)
	if err := c.Configure(DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	dev.Fail("SetCenterFreq", radio.ErrFrequencyOutOfRange)
	if err := c.SetCenterFrequency(5); !errors.Is(err, radio.ErrFrequencyOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	if err := c.SetBandwidth(0); !errors.Is(err, ErrZeroValue) {
		t.Fatalf("expected ErrZeroValue, got %v", err)
	}
	if c.State() != DefaultConfig().State {
		t.Fatalf("state changed on rejected edits: %+v", c.State())
	}
	if err := c.SetSampleRate(1024000); err != nil {
		t.Fatal(err)
	}
	if c.State().SampleRate != 1024000 || dev.Rate != 1024000 {
		t.Fatalf("sample rate not applied: %+v", c.State())
	}
}

func TestApplySerialized(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := startControl(t, dev)
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(hz uint32) {
			defer wg.Done()
			if err := c.SetCenterFrequency(hz); err != nil {
				t.Error(err)
			}
		}(uint32(i))
	}
	wg.Wait()
	if n := len(dev.Calls()); n != 50 {
		t.Fatalf("expected 50 calls, got %d", n)
	}
	if c.State().CenterFrequency != dev.Center {
		t.Fatalf("state %d disagrees with device %d", c.State().CenterFrequency, dev.Center)
	}
}

func TestStoppedChannel(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := NewControlChannel(dev, nil)
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	c.Run(ctx)
	if !dev.Closed() {
		t.Fatal("expected device closed when control stops")
	}
	if err := c.CancelRead(); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func typeString(e *Editor, s string) {
	for _, r := range s {
		e.Rune(r)
	}
}

func TestEditorCommit(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := startControl(t, dev)
	e := NewEditor(c)
	e.Rune('f')
	if e.Mode() != EditingCenterFrequency || e.QuitEnabled() {
		t.Fatalf("expected editing with quit suspended, got %v", e.Mode())
	}
	typeString(e, "12345")
	if err := e.Enter(); err != nil {
		t.Fatal(err)
	}
	if c.State().CenterFrequency != 12345 || e.Mode() != Normal {
		t.Fatalf("expected center 12345 in Normal, got %+v %v", c.State(), e.Mode())
	}
	if e.Input() != "" {
		t.Fatal("expected buffer cleared")
	}
}

func TestEditorBadNumber(t *testing.T) {
	dev := radio.NewFakeDevice()
	c := startControl(t, dev)
	before := c.State()
	e := NewEditor(c)
	for _, text := range []string{"abc", "", "-5", "4294967296", "12 5"} {
		e.Rune('s')
		typeString(e, text)
		if err := e.Enter(); !errors.Is(err, ErrBadNumber) {
			t.Fatalf("%q: expected ErrBadNumber, got %v", text, err)
		}
		if e.Mode() != Normal || e.Input() != "" || e.Err() == nil {
			t.Fatalf("%q: expected Normal with cleared buffer and error", text)
		}
		if c.State() != before {
			t.Fatalf("%q: state changed to %+v", text, c.State())
		}
	}
	if len(dev.Calls()) != 0 {
		t.Fatalf("device touched by bad input: %v", dev.Calls())
	}
}

func TestEditorDeviceRejects(t *testing.T) {
	dev := radio.NewFakeDevice()
	dev.Fail("SetBandwidth", radio.ErrBandwidthOutOfRange)
	e := NewEditor(startControl(t, dev))
	e.Rune('b')
	typeString(e, "9000000")
	if err := e.Enter(); !errors.Is(err, radio.ErrBandwidthOutOfRange) {
		t.Fatalf("expected device error, got %v", err)
	}
	if e.Mode() != Normal {
		t.Fatal("expected Normal after rejected edit")
	}
}

func TestEditorKeys(t *testing.T) {
	e := NewEditor(startControl(t, radio.NewFakeDevice()))
	if e.Rune('x') || e.Mode() != Normal {
		t.Fatal("unbound key changed state")
	}
	e.Rune('b')
	typeString(e, "12q")
	e.Backspace()
	if e.Input() != "12" {
		t.Fatalf("expected q typed then deleted, got %q", e.Input())
	}
	e.Escape()
	if e.Mode() != Normal || e.Input() != "" || !e.QuitEnabled() {
		t.Fatal("escape did not reset editor")
	}
	if err := e.Enter(); err != nil {
		t.Fatalf("enter in Normal should be a no-op, got %v", err)
	}
	if !e.Rune('q') {
		t.Fatal("expected quit from Normal")
	}
}
