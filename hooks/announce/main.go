// Package main provides a hook that speaks the new emote name aloud.
// It uses say on macOS and espeak elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the hook executor.
type Request struct {
	Event    string          `json:"event"`
	Label    string          `json:"label"`
	Previous string          `json:"previous"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest's config block.
type Config struct {
	Voice  string `json:"voice"`
	DryRun bool   `json:"dry_run"`
}

// phrases maps labels to the spoken text.
var phrases = map[string]string{
	"neutral":       "neutral",
	"jawline":       "jawline",
	"goblin_crying": "goblin crying",
	"king_laughing": "king laughing",
	"six_seven":     "six seven",
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	phrase, ok := phrases[req.Label]
	if !ok {
		phrase = strings.ReplaceAll(req.Label, "_", " ")
	}

	name, args := speechCommand(phrase, cfg.Voice)
	if !cfg.DryRun {
		if err := speak(name, args); err != nil {
			writeErrorResponse(fmt.Sprintf("announce %s failed: %v", req.Label, err))
			return
		}
	}

	data, _ := json.Marshal(map[string]string{"spoken": phrase, "command": name})
	writeSuccessResponse(data)
}

// speechCommand returns the text-to-speech command for the current OS.
func speechCommand(phrase, voice string) (string, []string) {
	if runtime.GOOS == "darwin" {
		if voice != "" {
			return "say", []string{"-v", voice, phrase}
		}
		return "say", []string{phrase}
	}
	if voice != "" {
		return "espeak", []string{"-v", voice, phrase}
	}
	return "espeak", []string{phrase}
}

// speak runs the speech command and returns any error.
func speak(name string, args []string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
