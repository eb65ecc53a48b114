package report

import (
	"net/url"
	"strings"
)

// Photo is a link found in a photo column, with a URL that renders the image
// directly.
type Photo struct {
	Column   string `json:"column"`
	Link     string `json:"link"`
	ImageURL string `json:"image_url"`
}

// photosOf collects the photo links of r. Form exports may put several links
// in one cell separated by commas; non-URL values are ignored.
func photosOf(r Row, b Bindings) []Photo {
	var out []Photo
	for i, idx := range b.Photos {
		for _, part := range strings.Split(r.Cell(idx), ",") {
			link := strings.TrimSpace(part)
			img, ok := ImageURL(link)
			if !ok {
				continue
			}
			out = append(out, Photo{Column: b.PhotoHeaders[i], Link: link, ImageURL: img})
		}
	}
	return out
}

// ImageURL turns a shared-file link into a directly displayable image URL.
// Google Drive share links (open?id=, /file/d/<id>/) are rewritten to the
// uc?export=view form; other http(s) links are returned unchanged.
func ImageURL(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	if u.Host != "drive.google.com" {
		return link, true
	}
	id := u.Query().Get("id")
	if id == "" {
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+2 < len(segs); i++ {
			if segs[i] == "file" && segs[i+1] == "d" {
				id = segs[i+2]
				break
			}
		}
	}
	if id == "" {
		return link, true
	}
	return "https://drive.google.com/uc?export=view&id=" + url.QueryEscape(id), true
}
