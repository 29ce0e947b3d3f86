package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"

	"github.com/osa030/phono/internal/app/library"
	"github.com/osa030/phono/internal/app/player"
	"github.com/osa030/phono/internal/domain/track"
)

// console is the interactive command loop on stdout.
type console struct {
	player  *player.Player
	scanner *library.Scanner
	roots   []string
}

func newConsole(p *player.Player, s *library.Scanner, roots []string) *console {
	return &console{player: p, scanner: s, roots: roots}
}

// Run reads commands until quit, Ctrl-D, or Ctrl-C on an empty line.
func (c *console) Run() error {
	histDir := filepath.Join(xdg.StateHome, "phono")
	_ = os.MkdirAll(histDir, 0o755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "phono> ",
		HistoryFile:     filepath.Join(histDir, "history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("add", readline.PcItemDynamic(listPaths)),
			readline.PcItem("scan"),
			readline.PcItem("ls"),
			readline.PcItem("history"),
			readline.PcItem("play"),
			readline.PcItem("pause"),
			readline.PcItem("resume"),
			readline.PcItem("stop"),
			readline.PcItem("clear"),
			readline.PcItem("mode", readline.PcItem("normal"), readline.PcItem("auto")),
			readline.PcItem("vol"),
			readline.PcItem("status"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return errors.Wrap(err, "failed to start console")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := c.dispatch(line); quit {
			break
		}
	}
	return nil
}

// dispatch runs one command line and reports whether to quit.
func (c *console) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "add":
		c.add(strings.Join(args, " "))
	case "scan":
		c.scan()
	case "ls", "queue":
		c.listTracks("waiting", c.player.Waiting())
	case "history":
		c.listTracks("played", c.player.Played())
	case "play":
		c.play()
	case "pause", "toggle":
		c.player.Toggle()
	case "resume":
		c.player.Resume()
	case "stop":
		c.player.Stop()
	case "clear":
		c.player.Clear()
	case "mode":
		c.mode(args)
	case "vol", "volume":
		c.volume(args)
	case "status":
		c.status()
	case "help", "?":
		c.help()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Printf("unknown command: %s (try \"help\")\n", cmd)
	}
	return false
}

func (c *console) add(path string) {
	if path == "" {
		fmt.Println("usage: add <file or directory>")
		return
	}
	tracks, err := c.scanner.ScanDir(path)
	if err != nil {
		fmt.Printf("cannot add %s: %v\n", path, err)
		return
	}
	c.player.AddAll(tracks)
	fmt.Printf("queued %d track(s)\n", len(tracks))
}

func (c *console) scan() {
	if len(c.roots) == 0 {
		fmt.Println("no library roots configured")
		return
	}
	tracks := c.scanner.Scan(c.roots)
	c.player.AddAll(tracks)
	fmt.Printf("queued %d track(s)\n", len(tracks))
}

func (c *console) listTracks(label string, tracks []track.Track) {
	if len(tracks) == 0 {
		fmt.Printf("%s queue is empty\n", label)
		return
	}
	const limit = 20
	for i, tr := range tracks {
		if i == limit {
			fmt.Printf("  ... and %d more\n", len(tracks)-limit)
			break
		}
		fmt.Printf("%3d  %s\n", i+1, tr.Name)
	}
}

func (c *console) play() {
	if c.player.IsPlaying() {
		fmt.Println("already playing")
		return
	}
	if len(c.player.Waiting()) == 0 {
		fmt.Println("the queue is empty")
		return
	}
	c.player.Play()
}

func (c *console) mode(args []string) {
	if len(args) == 0 {
		fmt.Printf("mode: %s\n", c.player.Mode())
		return
	}
	m, err := player.ParseMode(args[0])
	if err != nil {
		fmt.Println("usage: mode [normal|auto]")
		return
	}
	c.player.SetMode(m)
}

func (c *console) volume(args []string) {
	if len(args) == 0 {
		fmt.Printf("volume: %.2f\n", c.player.Volume())
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Println("usage: vol [0.0-1.0]")
		return
	}
	c.player.SetVolume(v)
	fmt.Printf("volume: %.2f\n", c.player.Volume())
}

func (c *console) status() {
	cur := c.player.CurrentTrack()
	if cur.Track != nil {
		state := cur.State.String()
		if c.player.IsPaused() {
			state = "paused"
		}
		fmt.Printf("%s [%s] %s / %s\n", cur.Track.Name, state,
			formatDuration(c.player.Position()), formatDuration(cur.Duration))
	} else {
		fmt.Println("nothing playing")
	}
	fmt.Printf("mode=%s volume=%.2f waiting=%d played=%d\n",
		c.player.Mode(), c.player.Volume(), len(c.player.Waiting()), len(c.player.Played()))
}

func (c *console) help() {
	fmt.Print(`commands:
  add <path>         queue a file or every track under a directory
  scan               queue everything under the configured library roots
  ls                 show the waiting queue
  history            show the played history
  play               start playback
  pause              pause or resume the current track
  resume             resume the current track
  stop               stop playback and clear both queues
  clear              clear both queues, keep playing
  mode [normal|auto] show or set the playback mode
  vol [0.0-1.0]      show or set the volume
  status             show the current track and player state
  quit               exit
`)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// listPaths completes filesystem paths for the add command.
func listPaths(line string) []string {
	dir := filepath.Dir(line)
	if line == "" {
		dir = "."
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		if strings.HasPrefix(name, line) {
			names = append(names, name)
		}
	}
	return names
}
