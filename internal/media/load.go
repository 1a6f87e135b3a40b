package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"tuneprint/internal/logging"
	"tuneprint/internal/media/ffprobe"
	"tuneprint/internal/services"
)

// Inspector runs ffprobe; tests substitute canned results.
type Inspector func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Loader builds Files from paths on disk.
type Loader struct {
	FFprobeBinary string
	Logger        *slog.Logger
	Inspect       Inspector
}

// Load resolves path, probes its duration, and collects embedded fingerprints.
// Probe and tag failures are logged and leave the corresponding fields empty;
// only a missing or non-regular file is an error.
func (l Loader) Load(ctx context.Context, path string) (*File, error) {
	logger := logging.NewComponentLogger(l.Logger, "media")
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "media", "stat", absolute, err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrValidation, "media", "stat", absolute+" is not a regular file", nil)
	}

	var (
		length       time.Duration
		fingerprints []string
	)

	fromTags, err := readTagFingerprints(absolute)
	if err != nil {
		logger.Debug("embedded tags unavailable",
			logging.String(logging.FieldFile, absolute),
			logging.Error(err))
	}
	fingerprints = append(fingerprints, fromTags...)

	inspect := l.Inspect
	if inspect == nil {
		inspect = ffprobe.Inspect
	}
	probe, err := inspect(ctx, l.FFprobeBinary, absolute)
	if err != nil {
		logging.WarnWithContext(logger, "ffprobe inspection failed", "ffprobe_failed",
			logging.String(logging.FieldFile, absolute),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffprobe or set fingerprint.ffprobe_path"),
			logging.String(logging.FieldImpact, "duration unknown; cached fingerprints are looked up with duration 0"))
	} else {
		length = time.Duration(probe.DurationSeconds() * float64(time.Second))
		if value, ok := probe.Tag(fingerprintTagKeys...); ok {
			fingerprints = appendUnique(fingerprints, value)
		}
	}

	return NewFile(absolute, length, fingerprints...), nil
}

var fingerprintTagKeys = []string{"ACOUSTID_FINGERPRINT", "Acoustid Fingerprint", "acoustid fingerprint"}

func readTagFingerprints(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return fingerprintsFromRaw(meta.Raw()), nil
}

// fingerprintsFromRaw extracts AcoustID fingerprints from the raw frame map of
// any container the tag reader understands: Vorbis comments, ID3 TXXX frames
// (decoded as *tag.Comm), and MP4 freeform atoms.
func fingerprintsFromRaw(raw map[string]interface{}) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []string
	for _, key := range keys {
		switch value := raw[key].(type) {
		case string:
			if isFingerprintKey(key) {
				out = appendUnique(out, strings.TrimSpace(value))
			}
		case *tag.Comm:
			if value != nil && isFingerprintKey(value.Description) {
				out = appendUnique(out, strings.TrimSpace(value.Text))
			}
		}
	}
	return out
}

func isFingerprintKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		key = key[idx+1:]
	}
	key = strings.NewReplacer(" ", "", "_", "").Replace(key)
	return key == "acoustidfingerprint"
}

func appendUnique(values []string, value string) []string {
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
