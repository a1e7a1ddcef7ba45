package types

import (
	"errors"
	"os"
	"strings"
)

var (
	ErrUnavailable      = errors.New("no usable capture device")
	ErrPermission       = errors.New("microphone access denied")
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrDevice           = errors.New("capture device failure")
	ErrEncoding         = errors.New("unable to encode WAV")
	ErrClosed           = errors.New("recorder is closed")
)

var permissionMarkers = []string{
	"permission",
	"denied",
	"not authorized",
	"unauthorized",
	"access refused",
}

// IsPermissionError reports whether a native failure looks like the OS
// refusing microphone access.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermission) || errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permissionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
