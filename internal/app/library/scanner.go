package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/phono/internal/domain/track"
)

// DefaultExtensions are the formats the playback engine can decode.
var DefaultExtensions = []string{".mp3", ".wav", ".flac", ".ogg"}

// Scanner walks library roots and turns audio files into tracks.
type Scanner struct {
	filters *Chain
}

// NewScanner creates a scanner with the given filters. With no filters
// it skips hidden entries and keeps the default extensions.
func NewScanner(filters ...Filter) *Scanner {
	if len(filters) == 0 {
		filters = []Filter{
			&HiddenFilter{},
			NewExtensionFilter(DefaultExtensions...),
		}
	}
	return &Scanner{filters: NewChain(filters...)}
}

// ScanDir walks root and returns a track per accepted audio file, in
// lexical walk order. Unreadable entries below the root are skipped, a
// missing root is an error.
func (s *Scanner) ScanDir(root string) ([]track.Track, error) {
	var tracks []track.Track
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			zlog.Warn().Err(walkErr).Msgf("library: skipping unreadable entry: path=%s", path)
			return nil
		}
		if path != root {
			if result := s.filters.Check(path, d); !result.Accepted {
				zlog.Debug().Msgf("library: filtered: path=%s code=%s", path, result.Code)
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		tracks = append(tracks, trackFromFile(path))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %q", root)
	}

	zlog.Debug().Msgf("library: scan complete: root=%s tracks=%d", root, len(tracks))
	return tracks, nil
}

// Scan walks every root and concatenates the results. A root that fails
// to scan is skipped with a warning so one bad mount does not hide the
// rest of the library.
func (s *Scanner) Scan(roots []string) []track.Track {
	var tracks []track.Track
	for _, root := range roots {
		found, err := s.ScanDir(root)
		if err != nil {
			zlog.Warn().Err(err).Msgf("library: skipping root: root=%s", root)
			continue
		}
		tracks = append(tracks, found...)
	}
	return tracks
}

// trackFromFile names the track from its tags, falling back to the file
// name when the tags are missing or unreadable.
func trackFromFile(path string) track.Track {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return track.New(name, path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return track.New(name, path)
	}
	if title := m.Title(); title != "" {
		name = title
		if artist := m.Artist(); artist != "" {
			name = artist + " - " + title
		}
	}
	return track.New(name, path)
}
