package e2e

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/server"
)

// Canvas size the browser reports with each frame.
const (
	canvasWidth  = 1000
	canvasHeight = 500
)

// qKey sits under the index tip of detector.PointLandmarks on the canvas.
var qKey = gesture.KeyRect{Key: "q", X: 500, Y: 150, Width: 100, Height: 50}

// frames returns n copies of hand as websocket frame payloads.
func frames(hand detector.HandLandmarks, n int) []server.FrameData {
	out := make([]server.FrameData, n)
	for i := range out {
		out[i] = server.FrameData{Landmarks: hand.Slice(), Width: canvasWidth, Height: canvasHeight}
	}
	return out
}

// recordingPlugin installs a plugin under dir that appends each request it
// receives to requests.log and reports success.
func recordingPlugin(t *testing.T, dir, name string, actions ...string) string {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}

	manifest := `{"name":"` + name + `","version":"1.0.0","executable":"run.sh","actions":[`
	for i, a := range actions {
		if i > 0 {
			manifest += ","
		}
		manifest += `"` + a + `"`
	}
	manifest += `]}`
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	script := "#!/bin/sh\ncat >> requests.log\necho >> requests.log\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(pluginDir, "requests.log")
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
