package stt_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/MrWong99/scenecoach/pkg/provider/stt"
)

func TestNormaliseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: stt.FormatWAV},
		{in: "WAV", want: stt.FormatWAV},
		{in: ".mp3", want: stt.FormatMP3},
		{in: "mpeg", want: stt.FormatMP3},
		{in: "opus", want: stt.FormatOGG},
		{in: "webm", want: stt.FormatWebM},
		{in: "s16le", want: stt.FormatPCM},
		{in: "mp4", want: stt.FormatM4A},
		{in: "aiff", wantErr: true},
	}
	for _, tt := range tests {
		got, err := stt.NormaliseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, stt.ErrUnsupportedFormat) {
				t.Errorf("NormaliseFormat(%q) err = %v, want ErrUnsupportedFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormaliseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	if err := (stt.Request{}).Validate(); !errors.Is(err, stt.ErrEmptyAudio) {
		t.Errorf("empty audio: err = %v, want ErrEmptyAudio", err)
	}
	if err := (stt.Request{Audio: []byte{1}, Format: "aiff"}).Validate(); !errors.Is(err, stt.ErrUnsupportedFormat) {
		t.Errorf("bad format: err = %v, want ErrUnsupportedFormat", err)
	}
	if err := (stt.Request{Audio: []byte{1}, Format: "mp3"}).Validate(); err != nil {
		t.Errorf("valid request: err = %v", err)
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	data, name, ctype, err := stt.Upload(stt.Request{Audio: pcm, Format: "pcm"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if name != "attempt.wav" || ctype != "audio/wav" {
		t.Errorf("name, ctype = %q, %q", name, ctype)
	}
	if len(data) != 44+len(pcm) || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("PCM was not wrapped in a WAV container: % x", data[:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != stt.PCMSampleRate {
		t.Errorf("sample rate = %d, want %d", got, stt.PCMSampleRate)
	}

	mp3 := []byte("ID3...")
	data, name, ctype, err = stt.Upload(stt.Request{Audio: mp3, Format: "mp3"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if string(data) != string(mp3) || name != "attempt.mp3" || ctype != "audio/mpeg" {
		t.Errorf("mp3 passthrough = %q, %q, %q", data, name, ctype)
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	t.Parallel()

	wav := stt.EncodeWAV(make([]byte, 100), 48000, 2)
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != 136 {
		t.Errorf("RIFF size = %d, want 136", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 48000*2*2 {
		t.Errorf("byte rate = %d, want %d", got, 48000*2*2)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 100 {
		t.Errorf("data size = %d, want 100", got)
	}
}
