// Package main provides a browser control plugin for macOS.
// It scrolls, zooms and navigates the frontmost browser via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Event   string          `json:"event"`
	Key     string          `json:"key"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the optional binding config.
type Config struct {
	// Repeat sends the shortcut this many times (scroll distance).
	Repeat int `json:"repeat"`
}

// actionScripts maps action names to the System Events command they send.
var actionScripts = map[string]string{
	"scroll_up":   "key code 116", // page up
	"scroll_down": "key code 121", // page down
	"zoom_in":     `keystroke "=" using command down`,
	"zoom_out":    `keystroke "-" using command down`,
	"zoom_reset":  `keystroke "0" using command down`,
	"go_back":     `keystroke "[" using command down`,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	script, err := buildScript(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if err := runAppleScript(script); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// buildScript maps a request to the AppleScript that performs it.
func buildScript(req Request) (string, error) {
	command, ok := actionScripts[req.Action]
	if !ok {
		return "", fmt.Errorf("unknown action: %s", req.Action)
	}

	cfg := Config{Repeat: 1}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	if cfg.Repeat > 20 {
		cfg.Repeat = 20
	}

	var b strings.Builder
	b.WriteString("tell application \"System Events\"\n")
	for i := 0; i < cfg.Repeat; i++ {
		b.WriteString("\t" + command + "\n")
	}
	b.WriteString("end tell")
	return b.String(), nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
