package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// id3v2 builds a minimal ID3v2.3 tag with a title and artist frame.
func id3v2(title, artist string) []byte {
	frame := func(id, value string) []byte {
		payload := append([]byte{0}, []byte(value)...)
		b := []byte(id)
		size := len(payload)
		b = append(b, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
		b = append(b, 0, 0)
		return append(b, payload...)
	}
	body := append(frame("TIT2", title), frame("TPE1", artist)...)
	size := len(body)
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}
	return append(header, body...)
}

func TestScanner_ScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tagged.mp3"), id3v2("My Song", "Some Artist"))
	writeFile(t, filepath.Join(dir, "untagged.mp3"), []byte("not really audio"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))
	writeFile(t, filepath.Join(dir, ".hidden.mp3"), []byte("ignored"))
	writeFile(t, filepath.Join(dir, "albums", "other.flac"), []byte("ignored content"))
	writeFile(t, filepath.Join(dir, ".cache", "cached.mp3"), []byte("ignored"))

	s := NewScanner()
	tracks, err := s.ScanDir(dir)
	require.NoError(t, err)

	names := make(map[string]string, len(tracks))
	for _, tr := range tracks {
		names[tr.Name] = tr.Location
	}
	assert.Len(t, tracks, 3)
	assert.Equal(t, filepath.Join(dir, "tagged.mp3"), names["Some Artist - My Song"])
	assert.Equal(t, filepath.Join(dir, "untagged.mp3"), names["untagged"])
	assert.Equal(t, filepath.Join(dir, "albums", "other.flac"), names["other"])
}

func TestScanner_Scan_SkipsBadRoots(t *testing.T) {
	good := t.TempDir()
	writeFile(t, filepath.Join(good, "song.mp3"), []byte("x"))

	s := NewScanner()
	tracks := s.Scan([]string{filepath.Join(good, "missing"), good})

	require.Len(t, tracks, 1)
	assert.Equal(t, "song", tracks[0].Name)
}

func TestScanner_ScanDir_MissingRoot(t *testing.T) {
	s := NewScanner()
	_, err := s.ScanDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan")
}

func TestScanner_ScanDir_CustomFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.flac"), []byte("x"))
	writeFile(t, filepath.Join(dir, "drop.mp3"), []byte("x"))

	s := NewScanner(NewExtensionFilter("flac"))
	tracks, err := s.ScanDir(dir)
	require.NoError(t, err)

	require.Len(t, tracks, 1)
	assert.Equal(t, "keep", tracks[0].Name)
}

type fakeEntry struct {
	name string
	dir  bool
}

func (e fakeEntry) Name() string               { return e.name }
func (e fakeEntry) IsDir() bool                { return e.dir }
func (e fakeEntry) Type() fs.FileMode          { return 0 }
func (e fakeEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrInvalid }

func TestHiddenFilter(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		dir      bool
		accepted bool
	}{
		{name: "regular file", path: "/music/song.mp3", accepted: true},
		{name: "dotfile", path: "/music/.song.mp3", accepted: false},
		{name: "regular dir", path: "/music/albums", dir: true, accepted: true},
		{name: "dot dir", path: "/music/.cache", dir: true, accepted: false},
	}

	f := &HiddenFilter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fakeEntry{name: filepath.Base(tt.path), dir: tt.dir}
			assert.True(t, f.AppliesTo(d))
			result := f.Check(tt.path, d)
			assert.Equal(t, tt.accepted, result.Accepted)
			if !tt.accepted {
				assert.Equal(t, "hidden", result.Code)
			}
		})
	}
}

func TestExtensionFilter(t *testing.T) {
	tests := []struct {
		name     string
		exts     []string
		path     string
		accepted bool
	}{
		{name: "allowed", exts: []string{".mp3"}, path: "a.mp3", accepted: true},
		{name: "case insensitive match", exts: []string{".mp3"}, path: "a.MP3", accepted: true},
		{name: "without leading dot", exts: []string{"ogg"}, path: "a.ogg", accepted: true},
		{name: "uppercase config", exts: []string{"FLAC"}, path: "a.flac", accepted: true},
		{name: "not allowed", exts: []string{".mp3"}, path: "a.wav", accepted: false},
		{name: "no extension", exts: []string{".mp3"}, path: "README", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewExtensionFilter(tt.exts...)
			result := f.Check(tt.path, fakeEntry{name: tt.path})
			assert.Equal(t, tt.accepted, result.Accepted)
		})
	}
}

func TestExtensionFilter_SkipsDirectories(t *testing.T) {
	f := NewExtensionFilter(".mp3")
	assert.False(t, f.AppliesTo(fakeEntry{name: "albums", dir: true}))
	assert.True(t, f.AppliesTo(fakeEntry{name: "a.mp3"}))
}

func TestChain_FirstRejectWins(t *testing.T) {
	c := NewChain(&HiddenFilter{}, NewExtensionFilter(".mp3"))

	result := c.Check("/music/.secret.mp3", fakeEntry{name: ".secret.mp3"})
	assert.False(t, result.Accepted)
	assert.Equal(t, "hidden", result.Code)

	result = c.Check("/music/song.mp3", fakeEntry{name: "song.mp3"})
	assert.True(t, result.Accepted)
}
