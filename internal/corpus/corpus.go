// Package corpus loads the document sets fed to the demo pipeline.
package corpus

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Document is one text to embed.
type Document struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// Corpus is a YAML document list.
type Corpus struct {
	Documents []Document `yaml:"documents"`
}

// Load reads and parses a corpus file.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates corpus YAML. Every document needs text;
// documents without an ID get a generated one.
func Parse(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(c.Documents) == 0 {
		return nil, errors.New("corpus has no documents")
	}
	for i := range c.Documents {
		if c.Documents[i].Text == "" {
			return nil, fmt.Errorf("document %d has no text", i)
		}
		if c.Documents[i].ID == "" {
			c.Documents[i].ID = uuid.NewString()
		}
	}
	return &c, nil
}

// Texts returns the document texts in order.
func (c *Corpus) Texts() []string {
	return lo.Map(c.Documents, func(doc Document, _ int) string {
		return doc.Text
	})
}
