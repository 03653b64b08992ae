package render

import "regexp"

var shortcodePattern = regexp.MustCompile(`:([a-z0-9_+-]+):`)

var emojiCatalog = map[string]string{
	"smile":    "😄",
	"joy":      "😂",
	"heart":    "❤️",
	"thumbsup": "👍",
	"wave":     "👋",
	"fire":     "🔥",
	"tada":     "🎉",
	"cry":      "😢",
	"eyes":     "👀",
	"rocket":   "🚀",
	"pray":     "🙏",
	"clap":     "👏",
}

// Emojize expands :shortcode: sequences against the catalog, leaving
// unknown codes untouched.
func Emojize(s string) string {
	return shortcodePattern.ReplaceAllStringFunc(s, func(match string) string {
		code := match[1 : len(match)-1]
		if emoji, ok := emojiCatalog[code]; ok {
			return emoji
		}
		return match
	})
}
