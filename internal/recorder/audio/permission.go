package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// ErrPermissionDenied is returned when no usable input device is available
var ErrPermissionDenied = errors.New("microphone access denied")

// PermissionRequester grants or denies microphone access
type PermissionRequester interface {
	RequestMicrophone(ctx context.Context) error
}

// DevicePermission asks PortAudio for a usable input device. Desktop
// platforms surface a missing grant as an absent or unopenable device.
type DevicePermission struct {
	DeviceName string
}

// RequestMicrophone implements PermissionRequester
func (p DevicePermission) RequestMicrophone(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	if p.DeviceName != "" && p.DeviceName != "default" {
		if _, err := findInputDevice(p.DeviceName); err == nil {
			return nil
		}
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil || dev.MaxInputChannels < 1 {
		return ErrPermissionDenied
	}
	return nil
}
