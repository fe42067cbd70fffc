// Package comic turns a story into a sequence of generated comic frames
// and persists the result.
package comic

import (
	"regexp"
	"strings"
)

// PromptPrefix is prepended to every scene before it is sent to the image
// API. The provider's comic models are tuned for Chinese prompts.
const PromptPrefix = "漫画风格，"

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Scene is one paragraph of the story and the prompt generated for it.
type Scene struct {
	Frame  int // 1-based position in the story
	Text   string
	Prompt string
}

// SplitScenes splits story on blank lines. Paragraphs are trimmed and
// empty ones dropped; frame numbers count only the kept paragraphs.
func SplitScenes(story string) []Scene {
	story = strings.ReplaceAll(story, "\r\n", "\n")

	var scenes []Scene
	for _, part := range blankLine.Split(story, -1) {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		scenes = append(scenes, Scene{
			Frame:  len(scenes) + 1,
			Text:   text,
			Prompt: PromptPrefix + text,
		})
	}
	return scenes
}
