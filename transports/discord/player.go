package discord

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"junkobot/core"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"layeh.com/gopus"
)

// Discord voice expects 48 kHz stereo Opus in 20 ms frames.
const (
	sampleRate     = 48000
	channels       = 2
	frameSize      = 960 // samples per channel per frame
	maxOpusBytes   = 3840
	samplesPerSlot = frameSize * channels
)

// Player implements core.PlaybackSink on top of the voice manager. Each
// invocation stages its audio under a unique artifact name, so concurrent
// playbacks never race on a shared file.
type Player struct {
	voices     *VoiceManager
	logger     *core.Logger
	stagingDir string

	// OnTrackDone, when set, fires after a queued item finishes playing.
	// Observability only; playback correctness does not depend on it.
	OnTrackDone func(guildID string, trackName string)
}

func NewPlayer(voices *VoiceManager, logger *core.Logger) *Player {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Player{
		voices:     voices,
		logger:     logger,
		stagingDir: os.TempDir(),
	}
}

// Play implements core.PlaybackSink. It stages the MP3 blob, decodes it to
// PCM, and enqueues the track on the guild's playback queue. Play returns
// once the track is enqueued.
func (p *Player) Play(ctx context.Context, guildID string, audio []byte) error {
	if !p.voices.HasSession(guildID) {
		return &core.PlaybackError{Kind: core.PlaybackNoActiveSession}
	}

	name := "speech-" + uuid.NewString()
	artifact := filepath.Join(p.stagingDir, name+".mp3")
	if err := os.WriteFile(artifact, audio, 0o600); err != nil {
		return &core.PlaybackError{
			Kind: core.PlaybackArtifactWriteFailed,
			Err:  fmt.Errorf("write staging artifact: %w", err),
		}
	}
	defer os.Remove(artifact)

	pcm, err := decodeToPCM(ctx, artifact)
	if err != nil {
		return &core.PlaybackError{
			Kind: core.PlaybackDecodeFailed,
			Err:  err,
		}
	}

	t := &track{name: name, pcm: pcm}
	if p.OnTrackDone != nil {
		done := p.OnTrackDone
		t.onDone = func() { done(guildID, name) }
	}

	if err := p.voices.Enqueue(guildID, t); err != nil {
		// The session can disappear between the check and the enqueue.
		return &core.PlaybackError{Kind: core.PlaybackNoActiveSession, Err: err}
	}

	p.logger.With(map[string]interface{}{
		"guild":   guildID,
		"track":   name,
		"samples": len(pcm),
	}).Debug("enqueued playback")
	return nil
}

// decodeToPCM shells out to ffmpeg to turn the staged artifact into raw
// 48 kHz stereo signed 16-bit PCM.
func decodeToPCM(ctx context.Context, path string) ([]int16, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	pcm := make([]int16, len(out)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(out[2*i:]))
	}
	return pcm, nil
}

// streamTrack encodes the track's PCM into Opus frames and pushes them to
// the voice connection until the track ends or the session is torn down.
func streamTrack(ctx context.Context, conn *discordgo.VoiceConnection, t *track) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("create opus encoder: %w", err)
	}

	if err := conn.Speaking(true); err != nil {
		return fmt.Errorf("set speaking: %w", err)
	}
	defer conn.Speaking(false)

	for offset := 0; offset < len(t.pcm); offset += samplesPerSlot {
		frame := t.pcm[offset:min(offset+samplesPerSlot, len(t.pcm))]
		if len(frame) < samplesPerSlot {
			padded := make([]int16, samplesPerSlot)
			copy(padded, frame)
			frame = padded
		}

		opus, err := encoder.Encode(frame, frameSize, maxOpusBytes)
		if err != nil {
			return fmt.Errorf("encode opus frame: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case conn.OpusSend <- opus:
		}
	}
	return nil
}
