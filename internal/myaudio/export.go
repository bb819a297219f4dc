package myaudio

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aviarylab/roost/internal/conf"
	"github.com/aviarylab/roost/internal/errors"
)

// ExportMP3 transcodes a WAV container to MP3 with ffmpeg. The WAV bytes are
// piped to ffmpeg's stdin and the encoder writes to a temporary file which is
// removed on every exit path.
func ExportMP3(wavData []byte, settings *conf.AudioSettings) ([]byte, error) {
	ffmpegPath, err := resolveFfmpegPath(settings.Export.FfmpegPath)
	if err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp("", "roost-export-*.mp3")
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating temporary export file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}
	tempPath := tempFile.Name()
	// ffmpeg reopens the path itself, the handle is only needed for the name
	_ = tempFile.Close()
	defer os.Remove(tempPath)

	if err := runFfmpeg(ffmpegPath, wavData, tempPath, settings.Export.Bitrate); err != nil {
		return nil, err
	}

	mp3Data, err := os.ReadFile(tempPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading transcoded audio: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}
	if len(mp3Data) == 0 {
		return nil, errors.Newf("ffmpeg produced an empty MP3 stream").
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	return mp3Data, nil
}

// resolveFfmpegPath returns the configured ffmpeg binary or looks it up from
// PATH when unset.
func resolveFfmpegPath(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", errors.New(fmt.Errorf("configured ffmpeg path: %w", err)).
				Component("myaudio").
				Category(errors.CategoryConfiguration).
				Context("ffmpeg_path", configured).
				Build()
		}
		return configured, nil
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", errors.New(fmt.Errorf("ffmpeg not found in PATH: %w", err)).
			Component("myaudio").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return path, nil
}

func runFfmpeg(ffmpegPath string, wavData []byte, outputPath, bitrate string) error {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "wav",
		"-i", "-", // read the container from stdin
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		"-f", "mp3",
		"-y",
		outputPath,
	}

	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(wavData)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.New(fmt.Errorf("ffmpeg transcode failed: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("stderr", strings.TrimSpace(stderr.String())).
			Build()
	}
	return nil
}
