// Package kb loads the markdown knowledge files served by the company
// information department and selects the section most relevant to a query.
package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/types"
)

// Section is one `## ` heading with the body that follows it.
type Section struct {
	Heading string
	Body    string
}

// Document is one parsed knowledge file.
type Document struct {
	Name     string
	Preamble string
	Sections []Section
}

// ParseDocument splits markdown into sections at second-level headings.
// Text before the first heading becomes the preamble.
func ParseDocument(name, markdown string) Document {
	doc := Document{Name: name}

	var current *Section
	var preamble strings.Builder
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "## ") {
			doc.Sections = append(doc.Sections, Section{
				Heading: strings.TrimSpace(strings.TrimPrefix(line, "## ")),
			})
			current = &doc.Sections[len(doc.Sections)-1]
			continue
		}
		if current != nil {
			current.Body += line + "\n"
		} else {
			preamble.WriteString(line + "\n")
		}
	}

	doc.Preamble = strings.TrimSpace(preamble.String())
	for i := range doc.Sections {
		doc.Sections[i].Body = strings.TrimSpace(doc.Sections[i].Body)
	}
	return doc
}

// Text returns the whole document as one string, for files read back in
// full rather than section by section.
func (d Document) Text() string {
	var b strings.Builder
	if d.Preamble != "" {
		b.WriteString(d.Preamble + "\n\n")
	}
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "## %s\n%s\n\n", s.Heading, s.Body)
	}
	return strings.TrimSpace(b.String())
}

// Library holds the knowledge documents loaded from a directory.
type Library struct {
	docs   map[string]Document
	logger *zap.Logger
}

// Load reads every .md file under dir. Missing directories yield an empty
// library, not an error; the bundle degrades to "no information available".
func Load(dir string, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib := &Library{
		docs:   make(map[string]Document),
		logger: logger.With(zap.String("component", "kb")),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			lib.logger.Warn("knowledge directory missing", zap.String("dir", dir))
			return lib, nil
		}
		return nil, fmt.Errorf("reading knowledge directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			lib.logger.Warn("skipping unreadable knowledge file",
				zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		lib.docs[name] = ParseDocument(name, string(raw))
	}

	lib.logger.Info("knowledge library loaded",
		zap.String("dir", dir), zap.Int("documents", len(lib.docs)))
	return lib, nil
}

// NewLibrary builds a library from pre-parsed documents, for tests and
// embedded fixtures.
func NewLibrary(docs ...Document) *Library {
	lib := &Library{docs: make(map[string]Document), logger: zap.NewNop()}
	for _, d := range docs {
		lib.docs[d.Name] = d
	}
	return lib
}

// Document returns a document by base name.
func (l *Library) Document(name string) (Document, error) {
	d, ok := l.docs[name]
	if !ok {
		return Document{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no knowledge document %q", name))
	}
	return d, nil
}

// Selector picks the section of a document that best answers a query. A
// small model chooses among the headings; when it fails or picks something
// that is not a heading, keyword overlap decides instead.
type Selector struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewSelector creates a selector over the model.
func NewSelector(client llm.Client, model string, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		client: client,
		model:  model,
		logger: logger.With(zap.String("component", "kb_selector")),
	}
}

// Select returns the best-matching section for the query.
func (s *Selector) Select(ctx context.Context, doc Document, query string) (Section, error) {
	if len(doc.Sections) == 0 {
		return Section{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("document %q has no sections", doc.Name))
	}
	if len(doc.Sections) == 1 {
		return doc.Sections[0], nil
	}

	headings := make([]string, len(doc.Sections))
	for i, sec := range doc.Sections {
		headings[i] = sec.Heading
	}

	raw, err := s.client.Complete(ctx, llm.Request{
		System: "You select the single most relevant heading for a user question. " +
			"Reply with the heading exactly as written, nothing else.",
		User:      fmt.Sprintf("Question: %s\n\nHeadings:\n%s", query, strings.Join(headings, "\n")),
		Model:     s.model,
		MaxTokens: 100,
	})
	if err == nil {
		picked := strings.TrimSpace(raw)
		for _, sec := range doc.Sections {
			if strings.EqualFold(sec.Heading, picked) {
				return sec, nil
			}
		}
		s.logger.Warn("selector picked unknown heading",
			zap.String("document", doc.Name), zap.String("picked", picked))
	} else {
		s.logger.Warn("selector model unavailable, falling back to keywords",
			zap.String("document", doc.Name), zap.Error(err))
	}

	return keywordBest(doc.Sections, query), nil
}

// keywordBest scores sections by word overlap with the query. Ties go to
// the earlier section.
func keywordBest(sections []Section, query string) Section {
	words := strings.Fields(strings.ToLower(query))
	best, bestScore := sections[0], -1
	for _, sec := range sections {
		text := strings.ToLower(sec.Heading + " " + sec.Body)
		score := 0
		for _, w := range words {
			if len(w) < 3 {
				continue
			}
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = sec, score
		}
	}
	return best
}
