package kometa

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Poster sources accepted by the preview endpoint.
const (
	PosterTMDb = "tmdb"
	PosterPlex = "plex"
)

// OverlayPreviewRequest is the body of POST /api/overlays/preview/simple.
type OverlayPreviewRequest struct {
	OverlayName   string `json:"overlay_name"`
	MediaID       string `json:"media_id"` // Plex rating key
	PosterSource  string `json:"poster_source,omitempty"`
	Library       string `json:"library,omitempty"`
	ConfigContent string `json:"config_content,omitempty"`
}

// OverlayPreview is a rendered poster. Meta holds the scalar fields the
// backend returned next to the image, nested objects flattened as "a.b".
type OverlayPreview struct {
	Image []byte
	Meta  map[string]string
}

// MetaKeys returns the Meta keys in sorted order.
func (p OverlayPreview) MetaKeys() []string {
	keys := make([]string, 0, len(p.Meta))
	for k := range p.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON reads the base64 "image" field and keeps everything else
// as metadata.
func (p *OverlayPreview) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Meta = map[string]string{}
	for k, v := range raw {
		if k == "image" {
			s, ok := v.(string)
			if !ok {
				return errors.New("preview image is not a string")
			}
			img, err := decodeImage(s)
			if err != nil {
				return err
			}
			p.Image = img
			continue
		}
		flattenMeta(p.Meta, k, v)
	}
	return nil
}

func flattenMeta(dst map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case string:
		dst[prefix] = val
	case float64:
		dst[prefix] = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		dst[prefix] = strconv.FormatBool(val)
	case map[string]any:
		for k, inner := range val {
			flattenMeta(dst, prefix+"."+k, inner)
		}
	case []any:
		dst[prefix] = strconv.Itoa(len(val)) + " items"
	}
}

// decodeImage accepts raw base64 or a data URI.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("preview image: malformed data URI")
		}
		s = payload
	}
	img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("preview image: %w", err)
	}
	return img, nil
}
