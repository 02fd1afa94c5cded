package integration

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
)

// Reminder tone parameters: a sine at ToneFrequency whose gain ramps
// exponentially from ToneStartGain to ToneEndGain over ToneDuration seconds.
const (
	ToneFrequency  = 800.0
	ToneStartGain  = 0.3
	ToneEndGain    = 0.01
	ToneDuration   = 0.5
	ToneSampleRate = 44100
)

type playerCommand struct {
	name string
	args []string
}

// audioPlayers lists the players tried, in order, when none is configured.
// Each receives the WAV file path as its final argument.
func audioPlayers(goos string) []playerCommand {
	if goos == "darwin" {
		return []playerCommand{{name: "afplay"}}
	}
	return []playerCommand{
		{name: "paplay"},
		{name: "aplay", args: []string{"-q"}},
		{name: "pw-play"},
	}
}

// TonePlayer plays the reminder tone through a system audio player, falling
// back to the terminal bell when no player is installed.
type TonePlayer struct {
	runner CommandRunner
	player *playerCommand
	bell   io.Writer
	wav    []byte
}

// NewTonePlayer detects an audio player. configured overrides detection and
// may carry arguments ("aplay -D default"). bell receives "\a" when no player
// exists; nil disables the fallback.
func NewTonePlayer(runner CommandRunner, configured string, bell io.Writer) *TonePlayer {
	p := &TonePlayer{
		runner: runner,
		bell:   bell,
		wav:    SynthesizeTone(),
	}

	if name, args := splitCommand(configured); name != "" {
		if _, err := runner.LookPath(name); err == nil {
			p.player = &playerCommand{name: name, args: args}
		}
		return p
	}

	for _, c := range audioPlayers(runtime.GOOS) {
		if _, err := runner.LookPath(c.name); err == nil {
			p.player = &c
			break
		}
	}
	return p
}

// Available reports whether Play can produce any sound at all.
func (p *TonePlayer) Available() bool {
	return p.player != nil || p.bell != nil
}

// Player returns the detected player program, or "" when only the bell is
// available.
func (p *TonePlayer) Player() string {
	if p.player == nil {
		return ""
	}
	return p.player.name
}

// Play emits the tone once and waits for the player to finish.
func (p *TonePlayer) Play(ctx context.Context) error {
	if p.player == nil {
		if p.bell == nil {
			return fmt.Errorf("no audio player available")
		}
		_, err := io.WriteString(p.bell, "\a")
		return err
	}

	f, err := os.CreateTemp("", "routine-tone-*.wav")
	if err != nil {
		return fmt.Errorf("creating tone file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.Write(p.wav); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing tone file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing tone file: %w", err)
	}

	args := append(append([]string{}, p.player.args...), path)
	return runChecked(ctx, p.runner, CommandSpec{Name: p.player.name, Args: args})
}

// SynthesizeTone renders the reminder tone as a 16-bit mono PCM WAV file.
func SynthesizeTone() []byte {
	n := int(ToneSampleRate * ToneDuration)
	samples := make([]int16, n)
	ratio := ToneEndGain / ToneStartGain
	for i := range samples {
		t := float64(i) / ToneSampleRate
		gain := ToneStartGain * math.Pow(ratio, t/ToneDuration)
		v := gain * math.Sin(2*math.Pi*ToneFrequency*t)
		samples[i] = int16(v * math.MaxInt16)
	}
	return encodeWAV(samples, ToneSampleRate)
}

func encodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(samples) * bitsPerSample / 8)
	blockAlign := uint16(channels * bitsPerSample / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, byteRate)
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
