// Package clip implements the clip producer (C7): it shells out to ffmpeg to
// concatenate time ranges of a source audio blob, interleaved with
// calibrated silence, into one WAV artifact.
package clip

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TimeRange is a contiguous [start_ms, end_ms) interval within the source
// audio blob.
type TimeRange struct {
	StartMS int64
	EndMS   int64
}

// Producer builds clips via the ffmpeg binary on PATH. It is a pure function
// over its arguments: it does not reorder ranges or alter sample timing
// within a range.
type Producer struct {
	// FFmpegPath overrides the binary name/path; defaults to "ffmpeg".
	FFmpegPath string
	// WorkDir is where temporary intermediate files are written; defaults
	// to os.TempDir().
	WorkDir string
}

// New returns a Producer with default options.
func New() *Producer {
	return &Producer{FFmpegPath: "ffmpeg", WorkDir: os.TempDir()}
}

func (p *Producer) ffmpegPath() string {
	if p.FFmpegPath != "" {
		return p.FFmpegPath
	}
	return "ffmpeg"
}

func (p *Producer) workDir() string {
	if p.WorkDir != "" {
		return p.WorkDir
	}
	return os.TempDir()
}

// Produce concatenates audioBlob[s..e] for every range in ranges, with gapMS
// of silence between consecutive ranges (none before the first or after the
// last), and returns the resulting WAV bytes. Sample rate and channel layout
// inherit from audioBlob.
func (p *Producer) Produce(audioBlob []byte, ranges []TimeRange, gapMS int64) ([]byte, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("clip: no time ranges given")
	}

	dir, err := os.MkdirTemp(p.workDir(), "clip-*")
	if err != nil {
		return nil, fmt.Errorf("clip: creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "source.audio")
	if err := os.WriteFile(srcPath, audioBlob, 0o600); err != nil {
		return nil, fmt.Errorf("clip: writing source blob: %w", err)
	}

	sampleRate, channels, err := probeAudio(p.ffmpegPath(), srcPath)
	if err != nil {
		return nil, fmt.Errorf("clip: probing source audio: %w", err)
	}

	var silencePath string
	if gapMS > 0 && len(ranges) > 1 {
		silencePath = filepath.Join(dir, "silence.wav")
		if err := generateSilence(p.ffmpegPath(), silencePath, gapMS, sampleRate, channels); err != nil {
			return nil, fmt.Errorf("clip: generating silence: %w", err)
		}
	}

	listPath := filepath.Join(dir, "concat.txt")
	var concatList []string

	for i, r := range ranges {
		segPath := filepath.Join(dir, fmt.Sprintf("seg%03d.wav", i))
		if err := extractRange(p.ffmpegPath(), srcPath, segPath, r); err != nil {
			return nil, fmt.Errorf("clip: extracting range %d: %w", i, err)
		}
		concatList = append(concatList, segPath)
		if i < len(ranges)-1 && silencePath != "" {
			concatList = append(concatList, silencePath)
		}
	}

	if err := writeConcatList(listPath, concatList); err != nil {
		return nil, fmt.Errorf("clip: writing concat list: %w", err)
	}

	outPath := filepath.Join(dir, "output.wav")
	if err := concatenate(p.ffmpegPath(), listPath, outPath); err != nil {
		return nil, fmt.Errorf("clip: concatenating ranges: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("clip: reading assembled clip: %w", err)
	}
	return out, nil
}

func extractRange(ffmpegPath, srcPath, outPath string, r TimeRange) error {
	startSec := float64(r.StartMS) / 1000.0
	durationSec := float64(r.EndMS-r.StartMS) / 1000.0
	args := []string{
		"-y",
		"-i", srcPath,
		"-ss", fmt.Sprintf("%f", startSec),
		"-t", fmt.Sprintf("%f", durationSec),
		"-c", "copy",
		outPath,
	}
	return run(ffmpegPath, args...)
}

func generateSilence(ffmpegPath, outPath string, durationMS int64, sampleRate, channels int) error {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", channelLayout(channels), sampleRate),
		"-t", fmt.Sprintf("%f", float64(durationMS)/1000.0),
		outPath,
	}
	return run(ffmpegPath, args...)
}

func channelLayout(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}

func writeConcatList(listPath string, files []string) error {
	content := ""
	for _, f := range files {
		content += fmt.Sprintf("file '%s'\n", f)
	}
	return os.WriteFile(listPath, []byte(content), 0o600)
}

func concatenate(ffmpegPath, listPath, outPath string) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
	return run(ffmpegPath, args...)
}

func run(ffmpegPath string, args ...string) error {
	cmd := exec.Command(ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", ffmpegPath, args, err, out)
	}
	return nil
}

// probeAudio returns a best-effort sample rate and channel count, falling
// back to the common 16kHz mono defaults if ffprobe is unavailable.
func probeAudio(ffmpegPath, srcPath string) (sampleRate, channels int, err error) {
	probePath := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe")
	out, probeErr := exec.Command(probePath, "-v", "error", "-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels", "-of", "csv=p=0", srcPath).Output()
	if probeErr != nil {
		return 16000, 1, nil
	}
	var rate, ch int
	if n, _ := fmt.Sscanf(strings.TrimSpace(string(out)), "%d,%d", &rate, &ch); n != 2 || rate <= 0 || ch <= 0 {
		return 16000, 1, nil
	}
	return rate, ch, nil
}
