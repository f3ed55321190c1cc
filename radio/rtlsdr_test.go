package radio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeRTLTCP accepts one client, sends a dongle header, records commands and
// streams samples until the client disconnects.
type fakeRTLTCP struct {
	ln   net.Listener
	cmdc chan command
}

func newFakeRTLTCP(t *testing.T, samples []byte) *fakeRTLTCP {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeRTLTCP{ln: ln, cmdc: make(chan command, 64)}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		info := DongleInfo{Magic: dongleMagic, Tuner: 5, GainCount: 29}
		if err := binary.Write(conn, binary.BigEndian, &info); err != nil {
			return
		}
		go func() {
			for {
				var c [5]byte
				if _, err := io.ReadFull(conn, c[:]); err != nil {
					return
				}
				f.cmdc <- command{c[0], binary.BigEndian.Uint32(c[1:])}
			}
		}()
		for {
			if _, err := conn.Write(samples); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return f
}

func (f *fakeRTLTCP) next(t *testing.T) command {
	select {
	case c := <-f.cmdc:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for command")
	}
	return command{}
}

func TestRTLTCPCommands(t *testing.T) {
	srv := newFakeRTLTCP(t, []byte{127, 128})
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	s, err := dialRTLSDR(ctx, srv.ln.Addr().String(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Info.Tuner != 5 || s.Info.GainCount != 29 {
		t.Fatalf("unexpected dongle info %+v", s.Info)
	}

	if err := s.EnableAGC(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPPM(-2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCenterFreq(100059009); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBandwidth(200000); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSampleRate(2560000); err != nil {
		t.Fatal(err)
	}
	expected := []command{
		{tunerGainMode, 0},
		{agcMode, 1},
		{freqCorrection, 0xfffffffe},
		{centerFreq, 100059009},
		{0x0e, 200000},
		{sampleRate, 2560000},
	}
	for i, want := range expected {
		if got := srv.next(t); got != want {
			t.Fatalf("command %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestRTLBadTuning(t *testing.T) {
	srv := newFakeRTLTCP(t, []byte{127, 128})
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	s, err := dialRTLSDR(ctx, srv.ln.Addr().String(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, rate := range []uint32{24000, 225000, 500000, 3200001} {
		if err := s.SetSampleRate(rate); err != ErrRateOutOfRange {
			t.Fatalf("rate %d: expected ErrRateOutOfRange, got %v", rate, err)
		}
	}
	for _, hz := range []uint32{12345, 1750000001} {
		if err := s.SetCenterFreq(hz); err != ErrFrequencyOutOfRange {
			t.Fatalf("center %d: expected ErrFrequencyOutOfRange, got %v", hz, err)
		}
	}
	if err := s.SetBandwidth(4000000); err != ErrBandwidthOutOfRange {
		t.Fatalf("expected ErrBandwidthOutOfRange, got %v", err)
	}
}

func TestRTLTCPReadCancel(t *testing.T) {
	pattern := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	srv := newFakeRTLTCP(t, pattern)
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	s, err := dialRTLSDR(ctx, srv.ln.Addr().String(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var got bytes.Buffer
	errc := make(chan error, 1)
	go func() {
		errc <- s.ReadAsync(2, 16, func(b []byte) {
			if got.Len() == 0 {
				got.Write(b)
				s.CancelAsyncRead()
			}
		})
	}()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-ctx.Done():
		t.Fatal("read did not stop after cancel")
	}
	if !bytes.Equal(got.Bytes(), append(pattern, pattern...)) {
		t.Fatalf("unexpected samples %v", got.Bytes())
	}
}

func TestRTLTCPBadMagic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("NOPE\x00\x00\x00\x00\x00\x00\x00\x00"))
	}()
	ctx, cancel := context.WithTimeout(context.TODO(), 5*time.Second)
	defer cancel()
	if _, err := DialRTLTCP(ctx, ln.Addr().String()); err == nil {
		t.Fatal("expected bad magic error")
	}
}
