// Package audio plays the cues that mark the end of a phase.
package audio

import (
	"fmt"
	"sync"
	"time"

	"interval_reminder_bot/internal/app"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// BeepPlayer plays preloaded WAV cues on the default output device.
type BeepPlayer struct {
	buffers    map[app.Cue]*beep.Buffer
	sampleRate beep.SampleRate
	volume     float64
	logger     *logrus.Entry
}

var speakerOnce sync.Once

// NewBeepPlayer decodes every cue file up front and initialises the speaker at
// the sample rate of the first one. Cues with an empty path are skipped.
func NewBeepPlayer(fs afero.Fs, files map[app.Cue]string, logger *logrus.Entry) (*BeepPlayer, error) {
	p := &BeepPlayer{
		buffers: make(map[app.Cue]*beep.Buffer, len(files)),
		logger:  logger,
	}

	for _, cue := range []app.Cue{app.WorkEndCue, app.BreakEndCue} {
		path := files[cue]
		if path == "" {
			continue
		}
		buffer, err := LoadCue(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s cue: %w", cue, err)
		}
		if p.sampleRate == 0 {
			p.sampleRate = buffer.Format().SampleRate
		}
		p.buffers[cue] = buffer
	}
	if len(p.buffers) == 0 {
		return nil, fmt.Errorf("no cue files configured")
	}

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", initErr)
	}
	return p, nil
}

// LoadCue decodes a WAV file into memory.
func LoadCue(fs afero.Fs, path string) (*beep.Buffer, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// SetVolume sets the playback gain on a base-2 scale; 0 leaves the file unchanged.
func (p *BeepPlayer) SetVolume(v float64) {
	p.volume = v
}

// Play starts the cue and returns immediately.
func (p *BeepPlayer) Play(cue app.Cue) {
	streamer, ok := p.streamerFor(cue)
	if !ok {
		p.logger.WithField("cue", cue).Debug("No sound configured for cue")
		return
	}
	speaker.Play(streamer)
	p.logger.WithFields(logrus.Fields{"cue": cue, "volume": p.volume}).Debug("Playing cue")
}

// streamerFor resamples the cue to the speaker rate and applies the volume.
func (p *BeepPlayer) streamerFor(cue app.Cue) (*effects.Volume, bool) {
	buffer, ok := p.buffers[cue]
	if !ok {
		return nil, false
	}

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if rate := buffer.Format().SampleRate; rate != p.sampleRate {
		streamer = beep.Resample(4, rate, p.sampleRate, streamer)
	}
	return &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   p.volume,
		Silent:   false,
	}, true
}

// LogPlayer stands in when no audio device or cue file is available.
type LogPlayer struct {
	Logger *logrus.Entry
}

func (p LogPlayer) Play(cue app.Cue) {
	p.Logger.WithField("cue", cue).Info("Phase finished")
}
