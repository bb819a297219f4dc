// Package myaudio handles audio format conversion for the ingestion
// pipeline: raw PCM in, WAV container for analysis, MP3 for storage.
package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/aviarylab/roost/internal/errors"
)

// seekableBuffer implements io.WriteSeeker over an in-memory byte slice so
// the WAV encoder can backfill header sizes without touching disk.
type seekableBuffer struct {
	buf []byte
	pos int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.buf) {
		if need > cap(b.buf) {
			grown := make([]byte, need, need*2)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:need]
		}
	}
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence value: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}

// EncodeWAV wraps raw PCM16LE samples in a WAV container. The output is a
// deterministic function of the input since WAV headers carry no timestamps.
func EncodeWAV(pcmData []byte, sampleRate, numChannels, bitDepth int) ([]byte, error) {
	if err := validateFormat(sampleRate, numChannels, bitDepth); err != nil {
		return nil, err
	}
	frameSize := numChannels * bitDepth / 8
	if len(pcmData) == 0 {
		return nil, errors.Newf("no PCM data to encode").
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	if len(pcmData)%frameSize != 0 {
		return nil, errors.Newf("PCM data length %d is not a multiple of frame size %d", len(pcmData), frameSize).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("frame_size", frameSize).
			Build()
	}

	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, sampleRate, bitDepth, numChannels, 1)

	intBuf := &audio.IntBuffer{
		Data:   byteSliceToInts(pcmData),
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: numChannels},
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, errors.New(fmt.Errorf("writing to WAV encoder: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	if err := enc.Close(); err != nil {
		return nil, errors.New(fmt.Errorf("finalizing WAV container: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	return buf.buf, nil
}

// DecodeWAV extracts PCM16LE samples from a WAV container. Used by tests to
// verify the container round-trips losslessly, and by tooling.
func DecodeWAV(wavData []byte) (pcm []byte, sampleRate, numChannels int, err error) {
	dec := wav.NewDecoder(bytes.NewReader(wavData))
	intBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, errors.New(fmt.Errorf("decoding WAV container: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	pcm = make([]byte, len(intBuf.Data)*2)
	for i, sample := range intBuf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(sample))) //nolint:gosec // 16-bit PCM
	}
	return pcm, intBuf.Format.SampleRate, intBuf.Format.NumChannels, nil
}

func validateFormat(sampleRate, numChannels, bitDepth int) error {
	if sampleRate <= 0 || numChannels <= 0 {
		return errors.Newf("invalid audio format: sample rate %d, channels %d", sampleRate, numChannels).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	if bitDepth != 16 {
		return errors.Newf("unsupported bit depth %d, only 16-bit PCM is handled", bitDepth).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	return nil
}

// byteSliceToInts converts PCM16LE bytes into the int samples the WAV
// encoder expects.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	for i := 0; i+1 < len(pcmData); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcmData[i:])) //nolint:gosec // 16-bit PCM
		samples = append(samples, int(sample))
	}
	return samples
}
