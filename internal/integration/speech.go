package integration

import (
	"context"
	"fmt"
	"runtime"
)

// speechCommands lists the text-to-speech programs tried, in order, when none
// is configured. Each takes the text as its final argument and speaks at the
// platform's default rate, pitch, and volume.
func speechCommands(goos string) []string {
	if goos == "darwin" {
		return []string{"say"}
	}
	return []string{"espeak-ng", "espeak", "spd-say"}
}

// SpeechSynthesizer speaks reminder text through a system text-to-speech
// program.
type SpeechSynthesizer struct {
	runner  CommandRunner
	command string
	args    []string
}

// NewSpeechSynthesizer detects a speech program. configured overrides
// detection and may carry arguments ("espeak -v en-us").
func NewSpeechSynthesizer(runner CommandRunner, configured string) *SpeechSynthesizer {
	s := &SpeechSynthesizer{runner: runner}

	if name, args := splitCommand(configured); name != "" {
		if _, err := runner.LookPath(name); err == nil {
			s.command, s.args = name, args
		}
		return s
	}

	if name, ok := firstAvailable(runner, speechCommands(runtime.GOOS)); ok {
		s.command = name
	}
	return s
}

// Available reports whether a speech program was found.
func (s *SpeechSynthesizer) Available() bool {
	return s.command != ""
}

// Command returns the detected program name.
func (s *SpeechSynthesizer) Command() string {
	return s.command
}

// Speak says text and waits until the program exits.
func (s *SpeechSynthesizer) Speak(ctx context.Context, text string) error {
	if !s.Available() {
		return fmt.Errorf("no speech synthesizer available")
	}
	args := append(append([]string{}, s.args...), text)
	return runChecked(ctx, s.runner, CommandSpec{Name: s.command, Args: args})
}
