// Package voice turns Telegram voice notes into text. The audio is
// decoded from ogg/opus to wav with opusdec and fed to an external
// speech recognition CLI; both run as subprocesses.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/myxo/remu/core/config"
	"github.com/myxo/remu/core/logger"
	"log/slog"
)

// ErrNotRecognized means the recognizer produced no usable transcript.
var ErrNotRecognized = errors.New("speech not recognized")

type Recognizer struct {
	opusDec string
	asrCmd  string
	apiKey  string
	workDir string
}

// NewRecognizer reads the ASR API key and prepares the scratch
// directory for intermediate audio files.
func NewRecognizer(cfg config.VoiceConfig) (*Recognizer, error) {
	key, err := os.ReadFile(cfg.APIKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read asr key: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("voice work dir: %w", err)
	}
	return &Recognizer{
		opusDec: cfg.OpusDec,
		asrCmd:  cfg.ASRCommand,
		apiKey:  strings.TrimSpace(string(key)),
		workDir: cfg.WorkDir,
	}, nil
}

// Recognize decodes and transcribes one voice note. fileID names the
// intermediate files so concurrent notes do not clobber each other.
func (r *Recognizer) Recognize(ctx context.Context, fileID string, ogg io.Reader) (string, error) {
	oggPath := filepath.Join(r.workDir, fileID+".ogg")
	wavPath := filepath.Join(r.workDir, fileID+".wav")
	defer os.Remove(oggPath)
	defer os.Remove(wavPath)

	f, err := os.Create(oggPath)
	if err != nil {
		return "", fmt.Errorf("voice file: %w", err)
	}
	if _, err := io.Copy(f, ogg); err != nil {
		f.Close()
		return "", fmt.Errorf("voice file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("voice file: %w", err)
	}

	if err := r.decode(ctx, oggPath, wavPath); err != nil {
		return "", err
	}
	return r.transcribe(ctx, wavPath)
}

func (r *Recognizer) decode(ctx context.Context, oggPath, wavPath string) error {
	cmd := exec.CommandContext(ctx, r.opusDec,
		"--rate", "16000",
		"--force-wav",
		"--quiet",
		oggPath, wavPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.Error(ctx, "voice", "opusdec.failed",
			slog.String("err", err.Error()),
			slog.String("stderr", logger.SanitizeLimit(stderr.String(), 256)),
		)
		return fmt.Errorf("opusdec: %w", err)
	}
	return nil
}

// transcribe runs the ASR CLI. The last stdout line is a stream
// status marker, everything before it is the transcript. A single
// line or none means the recognizer gave up on the audio.
func (r *Recognizer) transcribe(ctx context.Context, wavPath string) (string, error) {
	cmd := exec.CommandContext(ctx, r.asrCmd,
		"--key="+r.apiKey,
		"--silent",
		wavPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.Error(ctx, "voice", "asr.failed",
			slog.String("err", err.Error()),
			slog.String("stderr", logger.SanitizeLimit(stderr.String(), 256)),
		)
		return "", fmt.Errorf("asr: %w", err)
	}

	text, err := parseTranscript(stdout.String())
	logger.Info(ctx, "voice", "asr.result", slog.Bool("recognized", err == nil))
	return text, err
}

func parseTranscript(out string) (string, error) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) <= 1 {
		return "", ErrNotRecognized
	}
	return strings.Join(lines[:len(lines)-1], " "), nil
}
