package stitch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"vidstitch/internal/services"
)

// DistributeImages assigns reference images to clips. Explicit groups win
// and must name one group per clip. Without groups, images are bucketed by
// the keyword left after stripping trailing digits from the filename stem
// (foyer1.png, foyer2.png share "foyer") and each clip receives the buckets
// whose keyword appears in its prompt. A clip with no keyword match falls
// back to the full image set.
func DistributeImages(images []string, groups [][]string, clips []ClipSpec) ([][]string, error) {
	if len(groups) > 0 {
		if len(groups) != len(clips) {
			return nil, services.Wrap(services.ErrValidation, "", "stitch",
				fmt.Sprintf("%d image groups for %d clips", len(groups), len(clips)), nil)
		}
		out := make([][]string, len(groups))
		for i, group := range groups {
			out[i] = append([]string(nil), group...)
		}
		return out, nil
	}

	out := make([][]string, len(clips))
	if len(images) == 0 {
		return out, nil
	}

	buckets, keywords := imageKeywordBuckets(images)
	for i, clip := range clips {
		matched := matchPromptKeywords(clip.Prompt, keywords, buckets)
		if len(matched) == 0 {
			matched = append([]string(nil), images...)
		}
		out[i] = matched
	}
	return out, nil
}

func imageKeywordBuckets(images []string) (map[string][]string, []string) {
	buckets := make(map[string][]string)
	for _, img := range images {
		base := filepath.Base(img)
		stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		keyword := strings.TrimRight(stem, "0123456789")
		if keyword == "" {
			continue
		}
		buckets[keyword] = append(buckets[keyword], img)
	}
	keywords := make([]string, 0, len(buckets))
	for keyword := range buckets {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	return buckets, keywords
}

func matchPromptKeywords(prompt string, keywords []string, buckets map[string][]string) []string {
	lower := strings.ToLower(prompt)
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, buckets[keyword]...)
		}
	}
	return matched
}
