package render

import (
	"path"
	"strings"
)

type MediaType int

const (
	GenericMedia MediaType = iota
	ImageMedia
	VideoMedia
)

func (m MediaType) String() string {
	switch m {
	case ImageMedia:
		return "image"
	case VideoMedia:
		return "video"
	default:
		return "file"
	}
}

// Sniff classifies an uploaded resource by the extension of its
// reference, the way the rendering layer decides between an inline
// image, a video player and a plain download card.
func Sniff(ref string) MediaType {
	switch strings.ToLower(path.Ext(ref)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ImageMedia
	case ".mp4", ".webm", ".ogg", ".mov":
		return VideoMedia
	default:
		return GenericMedia
	}
}
