package radio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var ErrRateOutOfRange = errors.New("sample rate out of range")
var ErrFrequencyOutOfRange = errors.New("frequency out of range")
var ErrBandwidthOutOfRange = errors.New("bandwidth out of range")
var ErrUnknownScheme = errors.New("unknown device scheme")
var ErrReadInProgress = errors.New("async read already running")
var ErrBadBufferSize = errors.New("buffer count and length must be positive, length even")

// Controller configures a receiver. It is not safe for concurrent use: one
// owner issues every call. CancelAsyncRead may run while ReadAsync is blocked.
type Controller interface {
	EnableAGC() error
	SetPPM(ppm int) error
	SetCenterFreq(hz uint32) error
	SetBandwidth(hz uint32) error
	SetSampleRate(hz uint32) error
	CancelAsyncRead() error
	Close() error
}

// Reader streams raw u8 I/Q chunks. The callback's slice is reused once the
// callback returns. ReadAsync returns nil after CancelAsyncRead.
type Reader interface {
	ReadAsync(nBuffers, bufLen int, cb func([]byte)) error
}

// Device is a receiver handle; Open splits it into its two capabilities.
type Device interface {
	Controller
	Reader
}

// Open selects a device by URI:
//
//	rtl://0                 spawn rtl_tcp for device index 0
//	rtltcp://host:port      connect to a running rtl_tcp
//	file://capture.iq8      replay raw u8 I/Q (or .wav) in a loop
//	synth://                synthetic tones and noise
//
// A bare path is treated as a file.
func Open(ctx context.Context, uri string, log *zap.Logger) (Controller, Reader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d, err := openDevice(ctx, uri, log)
	if err != nil {
		return nil, nil, err
	}
	return d, d, nil
}

func openDevice(ctx context.Context, uri string, log *zap.Logger) (Device, error) {
	if !strings.Contains(uri, "://") {
		return openFile(uri, log.Named("file"))
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "rtl":
		idx := u.Host
		if idx == "" {
			idx = "0"
		}
		return newRTLSDR(ctx, idx, log.Named("rtl"))
	case "rtltcp":
		if u.Host == "" {
			u.Host = defaultRTLTCPAddr
		}
		return dialRTLSDR(ctx, u.Host, log.Named("rtltcp"))
	case "file":
		return openFile(u.Host+u.Path, log.Named("file"))
	case "synth":
		return NewSynth(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
}
