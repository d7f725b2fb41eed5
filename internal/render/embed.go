package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// provider maps an external embeddable platform to a frame URL. Detection is
// an ordered scan: an explicit provider-type tag in the element's props wins;
// otherwise the raw URL is substring-matched against each provider's domains
// top to bottom, first match wins. The substring match can false-positive on
// URLs that merely contain a domain elsewhere (e.g. in a query parameter);
// that matches the persisted documents produced by the editing surface, so it
// is kept as-is.
type provider struct {
	name    string
	domains []string
	// fromURL builds the embeddable frame URL from the raw URL. ok=false
	// means the provider matched but no identifier could be extracted.
	fromURL func(raw string) (string, bool)
	// fromID builds the frame URL straight from an explicit identifier.
	// nil when the provider cannot embed from an id alone.
	fromID func(id string) string
}

var (
	youtubeID    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	vimeoID      = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
	spotifyID    = regexp.MustCompile(`open\.spotify\.com/(track|album|playlist|episode|show|artist)/([A-Za-z0-9]+)`)
	instagramID  = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
	loomID       = regexp.MustCompile(`loom\.com/(?:share|embed)/([0-9a-f]+)`)
	codepenID    = regexp.MustCompile(`codepen\.io/([^/]+)/(?:pen|details|full|embed)/([A-Za-z0-9]+)`)
	codesandboxID = regexp.MustCompile(`codesandbox\.io/(?:s|embed|p/sandbox)/([A-Za-z0-9_-]+)`)
)

// providers is evaluated top to bottom; the order is part of the contract.
var providers = []provider{
	{
		name:    "youtube",
		domains: []string{"youtube.com", "youtu.be"},
		fromURL: func(raw string) (string, bool) {
			m := youtubeID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return "https://www.youtube.com/embed/" + m[1], true
		},
		fromID: func(id string) string { return "https://www.youtube.com/embed/" + id },
	},
	{
		name:    "vimeo",
		domains: []string{"vimeo.com"},
		fromURL: func(raw string) (string, bool) {
			m := vimeoID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return "https://player.vimeo.com/video/" + m[1], true
		},
		fromID: func(id string) string { return "https://player.vimeo.com/video/" + id },
	},
	{
		name:    "spotify",
		domains: []string{"spotify.com"},
		fromURL: func(raw string) (string, bool) {
			m := spotifyID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return fmt.Sprintf("https://open.spotify.com/embed/%s/%s", m[1], m[2]), true
		},
	},
	{
		name:    "twitter",
		domains: []string{"twitter.com", "x.com"},
		fromURL: func(raw string) (string, bool) {
			return "https://twitframe.com/show?url=" + url.QueryEscape(raw), true
		},
	},
	{
		name:    "instagram",
		domains: []string{"instagram.com"},
		fromURL: func(raw string) (string, bool) {
			m := instagramID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return "https://www.instagram.com/p/" + m[1] + "/embed", true
		},
		fromID: func(id string) string { return "https://www.instagram.com/p/" + id + "/embed" },
	},
	{
		name:    "figma",
		domains: []string{"figma.com"},
		fromURL: func(raw string) (string, bool) {
			return "https://www.figma.com/embed?embed_host=share&url=" + url.QueryEscape(raw), true
		},
	},
	{
		name:    "loom",
		domains: []string{"loom.com"},
		fromURL: func(raw string) (string, bool) {
			m := loomID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return "https://www.loom.com/embed/" + m[1], true
		},
		fromID: func(id string) string { return "https://www.loom.com/embed/" + id },
	},
	{
		name:    "codepen",
		domains: []string{"codepen.io"},
		fromURL: func(raw string) (string, bool) {
			m := codepenID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return fmt.Sprintf("https://codepen.io/%s/embed/%s?default-tab=result", m[1], m[2]), true
		},
	},
	{
		name:    "codesandbox",
		domains: []string{"codesandbox.io"},
		fromURL: func(raw string) (string, bool) {
			m := codesandboxID.FindStringSubmatch(raw)
			if m == nil {
				return "", false
			}
			return "https://codesandbox.io/embed/" + m[1], true
		},
		fromID: func(id string) string { return "https://codesandbox.io/embed/" + id },
	},
	{
		name:    "soundcloud",
		domains: []string{"soundcloud.com"},
		fromURL: func(raw string) (string, bool) {
			return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(raw), true
		},
	},
	{
		name:    "google-maps",
		domains: []string{"google.com/maps", "maps.google", "goo.gl/maps", "maps.app.goo.gl"},
		fromURL: func(raw string) (string, bool) {
			if strings.Contains(raw, "output=embed") {
				return raw, true
			}
			sep := "?"
			if strings.Contains(raw, "?") {
				sep = "&"
			}
			return raw + sep + "output=embed", true
		},
	},
}

// resolveEmbed picks the frame URL for an embed element. explicitType is the
// provider-type tag from the element props ("" when absent); explicitID is
// the identifier stored alongside it. The raw URL is the fallback input and
// the verbatim generic-frame source when nothing matches.
func resolveEmbed(raw, explicitType, explicitID string) (providerName, frameURL string) {
	if explicitType != "" {
		for _, p := range providers {
			if p.name != explicitType {
				continue
			}
			if explicitID != "" && p.fromID != nil {
				return p.name, p.fromID(explicitID)
			}
			if src, ok := p.fromURL(raw); ok {
				return p.name, src
			}
			return "", raw
		}
	}

	for _, p := range providers {
		for _, domain := range p.domains {
			if strings.Contains(raw, domain) {
				if src, ok := p.fromURL(raw); ok {
					return p.name, src
				}
				return "", raw
			}
		}
	}
	return "", raw
}

// renderEmbed constructs the iframe for an embed element. It never fetches
// or validates the URL; it only builds the frame source string.
func renderEmbed(props map[string]any) *html.Node {
	providerProps := asMap(props["provider"])
	raw := firstNonEmpty(
		asString(providerProps["url"]),
		asString(props["url"]),
		asString(props["src"]),
	)

	name, src := resolveEmbed(raw, asString(providerProps["type"]), asString(providerProps["id"]))

	frame := element("iframe",
		attr("src", src),
		attr("frameborder", "0"),
		attr("allowfullscreen", ""),
		attr("loading", "lazy"),
	)
	if name != "" {
		frame.Attr = append(frame.Attr, attr("data-provider", name))
	}
	if sizes := asMap(props["sizes"]); sizes != nil {
		if w := asFloat(sizes["width"]); w > 0 {
			frame.Attr = append(frame.Attr, attr("width", fmt.Sprintf("%d", int(w))))
		}
		if h := asFloat(sizes["height"]); h > 0 {
			frame.Attr = append(frame.Attr, attr("height", fmt.Sprintf("%d", int(h))))
		}
	}
	return frame
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
