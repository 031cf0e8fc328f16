package stt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Supported audio formats.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatOGG  = "ogg"
	FormatWebM = "webm"
	FormatFLAC = "flac"
	FormatM4A  = "m4a"
	FormatPCM  = "pcm"
)

// PCMSampleRate is the sample rate assumed for [FormatPCM] audio.
const PCMSampleRate = 16000

// ErrUnsupportedFormat is returned by [NormaliseFormat] for unknown formats.
var ErrUnsupportedFormat = errors.New("stt: unsupported audio format")

var contentTypes = map[string]string{
	FormatWAV:  "audio/wav",
	FormatMP3:  "audio/mpeg",
	FormatOGG:  "audio/ogg",
	FormatWebM: "audio/webm",
	FormatFLAC: "audio/flac",
	FormatM4A:  "audio/mp4",
	FormatPCM:  "audio/wav",
}

// NormaliseFormat lowercases format, strips a leading dot, maps a few common
// aliases and checks that the result is supported. Empty input yields
// [FormatWAV].
func NormaliseFormat(format string) (string, error) {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	switch f {
	case "":
		return FormatWAV, nil
	case "wave":
		f = FormatWAV
	case "mpeg", "mpga":
		f = FormatMP3
	case "opus", "oga":
		f = FormatOGG
	case "mp4":
		f = FormatM4A
	case "s16le", "raw":
		f = FormatPCM
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f, nil
}

// Upload returns the bytes, file name and content type to send for req.
// Raw PCM is wrapped in a WAV container; everything else is passed through.
func Upload(req Request) (data []byte, filename, contentType string, err error) {
	f, err := NormaliseFormat(req.Format)
	if err != nil {
		return nil, "", "", err
	}
	if f == FormatPCM {
		return EncodeWAV(req.Audio, PCMSampleRate, 1), "attempt.wav", contentTypes[f], nil
	}
	return req.Audio, "attempt." + f, contentTypes[f], nil
}

// bitsPerSample is fixed at 16 for 16-bit signed little-endian PCM.
const bitsPerSample = 16

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM sub-chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}
