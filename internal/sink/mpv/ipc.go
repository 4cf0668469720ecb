package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ipcCommand is the newline-delimited JSON structure mpv's IPC socket
// accepts.
type ipcCommand struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = time.Second
)

// command sends one JSON-IPC command, retrying transient connection errors.
func (s *Sink) command(args ...any) (any, error) {
	s.ipcMu.Lock()
	defer s.ipcMu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		result, err := sendCommand(s.socketPath, args)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

func sendCommand(socketPath string, args []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: args})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// mpv writes one JSON object per line and interleaves asynchronous
	// event notifications with command replies on the same socket. Read
	// whole lines and skip events until the reply arrives.
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		var event struct {
			Event string `json:"event"`
		}
		if json.Unmarshal(line, &event) == nil && event.Event != "" {
			continue
		}

		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv error: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (s *Sink) setProperty(name string, value any) error {
	_, err := s.command("set_property", name, value)
	return err
}

func (s *Sink) floatProperty(name string) (float64, bool) {
	data, err := s.command("get_property", name)
	if err != nil {
		return 0, false
	}
	v, ok := data.(float64)
	return v, ok
}

func (s *Sink) boolProperty(name string) (bool, bool) {
	data, err := s.command("get_property", name)
	if err != nil {
		return false, false
	}
	v, ok := data.(bool)
	return v, ok
}
