package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

const (
	defaultDialTimeout = 2 * time.Second
	dialInterval       = 50 * time.Millisecond
	writeTimeout       = time.Second
)

// mpvProcess is one running mpv instance bound to a single track.
type mpvProcess struct {
	cmd     *exec.Cmd
	conn    net.Conn
	socket  string
	trackID string
	stopped bool
	done    chan struct{}
}

// MPVSink plays tracks through an external mpv process controlled over JSON IPC.
type MPVSink struct {
	path        string
	logger      *log.Logger
	onEnded     EndedFunc
	dialTimeout time.Duration

	mu       sync.Mutex
	proc     *mpvProcess
	volume   float64
	seq      int
	fallback string
}

var _ Sink = (*MPVSink)(nil)

// NewMPVSink creates a sink that runs the mpv binary at path.
func NewMPVSink(path string, logger *log.Logger, onEnded EndedFunc) *MPVSink {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &MPVSink{
		path:        path,
		logger:      logger,
		onEnded:     onEnded,
		dialTimeout: defaultDialTimeout,
		volume:      0.5,
	}
}

// Load stops the current process and starts mpv for asset.
//
// A process that exits before its IPC socket appears has already finished the track;
// that is reported through the ended callback, not as an error.
func (m *MPVSink) Load(ctx context.Context, asset models.AudioAsset, playing bool) error {
	if !asset.Playable() {
		return fmt.Errorf("%w: track %s has no preview url", shared.ErrNothingLoaded, asset.TrackID)
	}

	m.mu.Lock()
	m.stopLocked()

	source, err := m.sourceLocked(*asset.PreviewURL)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.seq++
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("sonar-mpv-%d-%d.sock", os.Getpid(), m.seq))
	args := []string{
		"--no-video",
		"--no-terminal",
		"--idle=no",
		"--input-ipc-server=" + socket,
		fmt.Sprintf("--volume=%d", int(m.volume*100)),
		fmt.Sprintf("--pause=%s", yesNo(!playing)),
		source,
	}

	cmd := exec.Command(m.path, args...)
	if err := cmd.Start(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: failed to start %s: %w", shared.ErrPlayerUnavailable, m.path, err)
	}

	proc := &mpvProcess{cmd: cmd, socket: socket, trackID: asset.TrackID, done: make(chan struct{})}
	m.proc = proc
	m.mu.Unlock()

	m.logger.Debug("mpv started", "track", asset.TrackID, "pid", cmd.Process.Pid, "playing", playing)
	go m.wait(proc)

	conn, err := m.dial(ctx, proc)
	if err != nil {
		if errors.Is(err, errExited) {
			return nil
		}
		m.logger.Warn("mpv IPC unavailable; playback controls disabled", "track", asset.TrackID, "error", err)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc != proc || proc.stopped {
		conn.Close()
		return nil
	}
	proc.conn = conn
	go m.drain(conn)
	return nil
}

func (m *MPVSink) Play() error {
	return m.setProperty("pause", false)
}

func (m *MPVSink) Pause() error {
	return m.setProperty("pause", true)
}

// SetVolume stores v for future tracks and applies it to the running one.
func (m *MPVSink) SetVolume(v float64) error {
	v = shared.ClampVolume(v)

	m.mu.Lock()
	m.volume = v
	hasProc := m.proc != nil
	m.mu.Unlock()

	if !hasProc {
		return nil
	}
	return m.setProperty("volume", v*100)
}

func (m *MPVSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	return nil
}

// Close stops playback and removes the materialized fallback clip.
func (m *MPVSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	if m.fallback != "" {
		os.Remove(m.fallback)
		m.fallback = ""
	}
	return nil
}

func (m *MPVSink) stopLocked() {
	proc := m.proc
	if proc == nil {
		return
	}
	m.proc = nil
	proc.stopped = true
	if proc.conn != nil {
		proc.conn.Close()
	}
	if proc.cmd.Process != nil {
		proc.cmd.Process.Kill()
	}
	os.Remove(proc.socket)
}

func (m *MPVSink) sourceLocked(url string) (string, error) {
	if url != FallbackURL {
		return url, nil
	}
	if m.fallback == "" {
		path, err := writeFallback()
		if err != nil {
			return "", err
		}
		m.fallback = path
	}
	return m.fallback, nil
}

// wait reaps proc and reports a natural end of track.
func (m *MPVSink) wait(proc *mpvProcess) {
	err := proc.cmd.Wait()
	close(proc.done)

	m.mu.Lock()
	stopped := proc.stopped
	if m.proc == proc {
		m.proc = nil
		if proc.conn != nil {
			proc.conn.Close()
		}
		os.Remove(proc.socket)
	}
	m.mu.Unlock()

	if stopped {
		return
	}
	if err != nil {
		m.logger.Warn("mpv exited with error", "track", proc.trackID, "error", err)
		return
	}
	if m.onEnded != nil {
		m.onEnded(proc.trackID)
	}
}

var errExited = errors.New("mpv exited")

func (m *MPVSink) dial(ctx context.Context, proc *mpvProcess) (net.Conn, error) {
	deadline := time.NewTimer(m.dialTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(dialInterval)
	defer ticker.Stop()

	for {
		conn, err := net.Dial("unix", proc.socket)
		if err == nil {
			return conn, nil
		}

		select {
		case <-proc.done:
			return nil, errExited
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("timed out connecting to %s: %w", proc.socket, err)
		case <-ticker.C:
		}
	}
}

// drain consumes replies and events so mpv never blocks on a full socket.
func (m *MPVSink) drain(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		m.logger.Debug("mpv", "event", scanner.Text())
	}
}

type ipcCommand struct {
	Command []any `json:"command"`
}

func encodeCommand(args ...any) ([]byte, error) {
	data, err := json.Marshal(ipcCommand{Command: args})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (m *MPVSink) setProperty(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil {
		return shared.ErrNothingLoaded
	}
	if m.proc.conn == nil {
		return fmt.Errorf("%w: no IPC connection", shared.ErrPlayerUnavailable)
	}
	return writeCommand(m.proc.conn, "set_property", name, value)
}

func writeCommand(conn net.Conn, args ...any) error {
	data, err := encodeCommand(args...)
	if err != nil {
		return fmt.Errorf("failed to encode mpv command: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlayerUnavailable, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
