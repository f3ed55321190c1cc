package radio

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kr/pty"
	"go.uber.org/zap"
)

var minFreqHz = uint32(25000000)
var maxFreqHz = uint32(1750000000)
var maxRate = uint32(3200000)

const defaultRTLTCPAddr = "127.0.0.1:1234"

// rtlSDR drives an rtl_tcp server, optionally one it spawned itself.
type rtlSDR struct {
	*RTLTCP
	cmd  *exec.Cmd
	fpty *os.File
	log  *zap.Logger

	lastCenter     uint32
	lastSampleRate uint32
	lastBandwidth  uint32

	async asyncRead
}

// newRTLSDR launches rtl_tcp for a device index on a pty and connects to it.
func newRTLSDR(ctx context.Context, idx string, log *zap.Logger) (_ *rtlSDR, err error) {
	addr := "127.0.0.1:12345"
	cmd := exec.CommandContext(ctx, "rtl_tcp", "-a", "127.0.0.1", "-p", "12345", "-d", idx)
	fpty, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			fpty.Close()
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()
	listeningc := make(chan struct{})
	go func() {
		s, once := bufio.NewScanner(fpty), false
		for s.Scan() {
			log.Debug("rtl_tcp", zap.String("line", s.Text()))
			if !once && strings.Contains(s.Text(), "listening") {
				close(listeningc)
				once = true
			}
		}
	}()
	select {
	case <-listeningc:
	case <-time.After(2 * time.Second):
		log.Warn("rtl_tcp did not report listening; connecting anyway")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	tcp, err := connect(ctx, addr, log)
	if err != nil {
		return nil, err
	}
	s := &rtlSDR{RTLTCP: tcp, cmd: cmd, fpty: fpty, log: log}
	s.async.onCancel = s.unblock
	return s, nil
}

// dialRTLSDR connects to an rtl_tcp server someone else runs.
func dialRTLSDR(ctx context.Context, addr string, log *zap.Logger) (*rtlSDR, error) {
	tcp, err := connect(ctx, addr, log)
	if err != nil {
		return nil, err
	}
	s := &rtlSDR{RTLTCP: tcp, log: log}
	s.async.onCancel = s.unblock
	return s, nil
}

func connect(ctx context.Context, addr string, log *zap.Logger) (sdr *RTLTCP, err error) {
	for i := 0; i < 10; i++ {
		if sdr, err = DialRTLTCP(ctx, addr); err == nil {
			log.Info("connected",
				zap.String("addr", addr),
				zap.Uint32("tuner", sdr.Info.Tuner),
				zap.Uint32("gains", sdr.Info.GainCount))
			return sdr, nil
		}
		log.Debug("connect failed", zap.Error(err))
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func isValidRate(rate uint32) bool {
	return !((rate <= 225000) || (rate > 3200000) ||
		((rate > 300000) && (rate <= 900000)))
}

func (s *rtlSDR) EnableAGC() error {
	if err := s.SetGainMode(true); err != nil {
		return err
	}
	return s.SetAGCMode(true)
}

func (s *rtlSDR) SetPPM(ppm int) error { return s.SetFreqCorrection(int32(ppm)) }

func (s *rtlSDR) SetCenterFreq(cent uint32) error {
	if cent < minFreqHz || cent > maxFreqHz {
		return ErrFrequencyOutOfRange
	}
	if s.lastCenter == cent {
		return nil
	}
	if err := s.RTLTCP.SetCenterFreq(cent); err != nil {
		return err
	}
	s.lastCenter = cent
	return nil
}

func (s *rtlSDR) SetSampleRate(rate uint32) error {
	if !isValidRate(rate) {
		return ErrRateOutOfRange
	}
	if s.lastSampleRate == rate {
		return nil
	}
	if err := s.RTLTCP.SetSampleRate(rate); err != nil {
		return err
	}
	s.lastSampleRate = rate
	return nil
}

func (s *rtlSDR) SetBandwidth(hz uint32) error {
	if hz > maxRate {
		return ErrBandwidthOutOfRange
	}
	if s.lastBandwidth == hz {
		return nil
	}
	if err := s.SetTunerBandwidth(hz); err != nil {
		return err
	}
	s.lastBandwidth = hz
	return nil
}

func (s *rtlSDR) ReadAsync(nBuffers, bufLen int, cb func([]byte)) error {
	s.Conn.SetReadDeadline(time.Time{})
	fill := func(_ <-chan struct{}, b []byte) error {
		_, err := io.ReadFull(s.Conn, b)
		return err
	}
	return s.async.run(nBuffers, bufLen, fill, cb)
}

func (s *rtlSDR) CancelAsyncRead() error {
	s.async.cancel()
	return nil
}

// unblock kicks a reader out of a pending socket read.
func (s *rtlSDR) unblock() { s.Conn.SetReadDeadline(time.Now()) }

func (s *rtlSDR) Close() error {
	s.async.cancel()
	err := s.RTLTCP.Close()
	if s.cmd == nil {
		return err
	}
	s.cmd.Process.Signal(os.Interrupt)
	s.fpty.Close()
	s.cmd.Wait()
	return err
}
