package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

type decoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

func decodeMP3(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) }
func decodeWAV(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) }

// DecodeMedia opens and decodes an mp3 or wav file. The extension picks the first
// decoder to try; the other one is the fallback. Close the returned streamer to
// release the file.
func DecodeMedia(path string) (beep.StreamSeekCloser, beep.Format, error) {
	order := []decoder{decodeMP3, decodeWAV}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		order = []decoder{decodeWAV, decodeMP3}
	}

	var lastErr error
	for _, dec := range order {
		f, err := os.Open(path)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to open audio file: %w", err)
		}
		streamer, format, err := dec(f)
		if err == nil {
			return streamer, format, nil
		}
		f.Close()
		lastErr = err
	}
	return nil, beep.Format{}, fmt.Errorf("failed to decode audio file %s: %w", path, lastErr)
}

// GetDuration returns the duration of the audio file at the given path.
func GetDuration(path string) (time.Duration, error) {
	streamer, format, err := DecodeMedia(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
