package markdown

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var ErrMediaNotFound = errors.New("media file does not exist")

type MediaKind int

const (
	Image MediaKind = iota
	Audio
	Video
)

func (k MediaKind) String() string {
	switch k {
	case Image:
		return "image"
	case Audio:
		return "audio"
	case Video:
		return "video"
	}
	return fmt.Sprintf("MediaKind(%d)", int(k))
}

// Media is a local file a card links to.
type Media struct {
	Label string
	Path  string
	Kind  MediaKind
}

var mediaExtensions = map[string]MediaKind{
	".jpg": Image, ".jpeg": Image, ".png": Image, ".gif": Image, ".webp": Image, ".bmp": Image,
	".mp3": Audio, ".wav": Audio, ".ogg": Audio, ".flac": Audio, ".m4a": Audio,
	".mp4": Video, ".webm": Video, ".mkv": Video, ".mov": Video, ".avi": Video,
}

var parser = goldmark.New().Parser()

// ExtractMedia returns the images and media links in source, in order.
// Relative paths are resolved against baseDir; remote URLs are skipped.
func ExtractMedia(source, baseDir string) []Media {
	src := []byte(source)
	doc := parser.Parse(text.NewReader(src))

	var media []Media
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			if m, ok := newMedia(string(node.Destination), "image", baseDir); ok {
				media = append(media, m)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if m, ok := newMedia(string(node.Destination), label(node, src), baseDir); ok {
				media = append(media, m)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return media
}

func newMedia(dest, label, baseDir string) (Media, bool) {
	if dest == "" || strings.Contains(dest, "://") {
		return Media{}, false
	}
	kind, ok := mediaExtensions[strings.ToLower(filepath.Ext(dest))]
	if !ok {
		return Media{}, false
	}
	path := filepath.FromSlash(dest)
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	if label == "" {
		label = filepath.Base(path)
	}
	return Media{Label: label, Path: path, Kind: kind}, true
}

func label(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	}
	return b.String()
}

// Open hands the file to the desktop's default application without
// waiting for it.
func Open(m Media) error {
	info, err := os.Stat(m.Path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, m.Path)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", m.Path)
	case "darwin":
		cmd = exec.Command("open", m.Path)
	default:
		cmd = exec.Command("xdg-open", m.Path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", m.Path, err)
	}
	go cmd.Wait()
	return nil
}
