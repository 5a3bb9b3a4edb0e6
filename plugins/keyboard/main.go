// Package main provides a keyboard plugin for macOS.
// It types characters and editing keys via AppleScript.
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

// ShortcutConfig is the binding config for the shortcut action.
type ShortcutConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// Virtual key codes for named keys.
var keyCodes = map[string]int{
	"BACKSPACE": 51,
	"SPACE":     49,
	"ENTER":     36,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	script, err := buildScript(req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
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
	switch req.Action {
	case "press_key":
		if req.Key == "" {
			return "", fmt.Errorf("key is required")
		}
		if code, ok := keyCodes[req.Key]; ok {
			return keyCodeScript(code), nil
		}
		return keystrokeScript(req.Key, nil), nil
	case "backspace":
		return keyCodeScript(keyCodes["BACKSPACE"]), nil
	case "space":
		return keyCodeScript(keyCodes["SPACE"]), nil
	case "enter":
		return keyCodeScript(keyCodes["ENTER"]), nil
	case "shortcut":
		var c ShortcutConfig
		if len(req.Config) > 0 {
			if err := json.Unmarshal(req.Config, &c); err != nil {
				return "", fmt.Errorf("failed to parse config: %w", err)
			}
		}
		if c.Key == "" {
			return "", fmt.Errorf("key is required")
		}
		return keystrokeScript(c.Key, c.Modifiers), nil
	default:
		return "", fmt.Errorf("unknown action: %s", req.Action)
	}
}

func keyCodeScript(code int) string {
	return fmt.Sprintf(`tell application "System Events" to key code %d`, code)
}

// keystrokeScript types key, holding any recognized modifiers.
func keystrokeScript(key string, modifiers []string) string {
	key = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(key)

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
		key, strings.Join(appleModifiers, ", "))
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
