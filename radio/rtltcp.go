package radio

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
)

var dongleMagic = [...]byte{'R', 'T', 'L', '0'}

// RTLTCP is a client for the rtl_tcp spectrum server protocol. Commands and
// sample reads share one connection.
type RTLTCP struct {
	net.Conn
	Info DongleInfo
}

// DialRTLTCP connects to the spectrum server at addr ("127.0.0.1:1234") and
// reads the dongle header.
func DialRTLTCP(ctx context.Context, addr string) (_ *RTLTCP, err error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to spectrum server: %w", err)
	}
	sdr := &RTLTCP{Conn: conn}
	defer func() {
		if err != nil {
			sdr.Close()
		}
	}()
	if err = binary.Read(sdr.Conn, binary.BigEndian, &sdr.Info); err != nil {
		return nil, fmt.Errorf("error getting dongle information: %w", err)
	}
	if !sdr.Info.Valid() {
		return nil, fmt.Errorf("bad magic number: %q", sdr.Info.Magic)
	}
	return sdr, nil
}

// DongleInfo is data pulled from the rtl_tcp server on connection.
type DongleInfo struct {
	Magic     [4]byte
	Tuner     uint32
	GainCount uint32 // Useful for setting gain by index
}

// Valid checks the received magic number matches the expected byte string 'RTL0'.
func (d DongleInfo) Valid() bool {
	return d.Magic == dongleMagic
}

type command struct {
	command   uint8
	Parameter uint32
}

// Command constants defined in rtl_tcp.c
const (
	centerFreq = iota + 1
	sampleRate
	tunerGainMode
	tunerGain
	freqCorrection
	tunerIfGain
	testMode
	agcMode
	directSampling
	offsetTuning
	rtlXtalFreq
	tunerXtalFreq
	gainByIndex
	tunerBandwidth
)

func (sdr *RTLTCP) do(cmd uint8, v uint32) error {
	return binary.Write(sdr.Conn, binary.BigEndian, command{cmd, v})
}

func (sdr *RTLTCP) SetCenterFreq(freq uint32) error { return sdr.do(centerFreq, freq) }

func (sdr *RTLTCP) SetSampleRate(rate uint32) error { return sdr.do(sampleRate, rate) }

// SetTunerBandwidth sets the tuner IF filter in Hz; 0 selects automatic.
func (sdr *RTLTCP) SetTunerBandwidth(hz uint32) error { return sdr.do(tunerBandwidth, hz) }

// Set the Tuner AGC, true to enable.
func (sdr *RTLTCP) SetGainMode(auto bool) error {
	if auto {
		return sdr.do(tunerGainMode, 0)
	}
	return sdr.do(tunerGainMode, 1)
}

// Set RTL AGC mode, true for enabled.
func (sdr *RTLTCP) SetAGCMode(state bool) error {
	if state {
		return sdr.do(agcMode, 1)
	}
	return sdr.do(agcMode, 0)
}

// Set frequency correction in ppm. Negative values travel as two's complement.
func (sdr *RTLTCP) SetFreqCorrection(ppm int32) error {
	return sdr.do(freqCorrection, uint32(ppm))
}
