package service

import (
	"regexp"
	"strings"

	"github.com/foliolabs/folio/internal/domain"
)

// ChunkConfig controls markdown chunking for knowledge embeddings.
type ChunkConfig struct {
	// MaxSectionChars is the size above which a section is split further.
	MaxSectionChars int
	// TargetChunkChars bounds paragraph-packed chunks.
	TargetChunkChars int
}

// DefaultChunkConfig provides the seeding defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxSectionChars:  2000,
		TargetChunkChars: 1500,
	}
}

// Chunk is one pre-embedding unit produced from a knowledge document.
type Chunk struct {
	Title   string
	Section string
	Content string
}

var (
	headingPattern    = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	subheadingPattern = regexp.MustCompile(`(?m)^###\s+(.+)$`)
	paragraphSplit    = regexp.MustCompile(`\n\n+`)
)

// ChunkMarkdown splits a category's markdown document into passages-to-be.
// Top-level "## " sections become one chunk each; sections over the size
// threshold are split by "### " sub-heading, and still-oversized subsections
// are packed paragraph by paragraph.
func ChunkMarkdown(content string, category domain.Category, cfg ChunkConfig) []Chunk {
	if cfg.MaxSectionChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	var chunks []Chunk
	for _, section := range splitOnHeading(content, "## ") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		title := firstMatch(headingPattern, section)

		if len(section) <= cfg.MaxSectionChars {
			chunks = append(chunks, Chunk{Content: section, Title: title, Section: string(category)})
			continue
		}

		for _, subsection := range splitOnHeading(section, "### ") {
			subsection = strings.TrimSpace(subsection)
			if subsection == "" {
				continue
			}

			subTitle := firstMatch(subheadingPattern, subsection)
			if subTitle == "" {
				subTitle = title
			}

			if len(subsection) <= cfg.MaxSectionChars {
				chunks = append(chunks, Chunk{Content: subsection, Title: subTitle, Section: string(category)})
				continue
			}

			chunks = append(chunks, packParagraphs(subsection, subTitle, category, cfg.TargetChunkChars)...)
		}
	}

	return chunks
}

// packParagraphs greedily packs paragraphs into chunks bounded by target
// characters. A single paragraph longer than the target stays whole.
func packParagraphs(text, title string, category domain.Category, target int) []Chunk {
	var chunks []Chunk
	var current string

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, Chunk{Content: trimmed, Title: title, Section: string(category)})
		}
		current = ""
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		if current != "" && len(current)+len(para) > target {
			flush()
			current = para
			continue
		}
		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
	}
	flush()

	return chunks
}

// splitOnHeading splits markdown at lines beginning with the given heading
// marker, keeping the heading line with the section that follows it.
func splitOnHeading(content, marker string) []string {
	lines := strings.Split(content, "\n")

	var sections []string
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(line, marker) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

func firstMatch(pattern *regexp.Regexp, text string) string {
	m := pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
