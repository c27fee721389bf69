// Package exchange reads and writes flashcard sets as YAML documents.
//
// A document lists its cards in study order; positions are not written and
// are assigned again on import.
package exchange

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/studyup/studyup/internal/models"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written to every exported document.
const FormatVersion = 1

const maxCards = 10000

var ErrEmptyDocument = errors.New("exchange: empty document")

// Document is the on-disk form of one set.
type Document struct {
	Version int    `yaml:"version"`
	Title   string `yaml:"title"`
	Cards   []Card `yaml:"cards"`
}

type Card struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// NewDocument builds a document from a set and its ordered cards.
func NewDocument(title string, cards []models.Flashcard) Document {
	doc := Document{Version: FormatVersion, Title: title, Cards: make([]Card, len(cards))}
	for i, c := range cards {
		doc.Cards[i] = Card{Question: c.Question, Answer: c.Answer}
	}
	return doc
}

// Flashcards returns the document's cards as unplaced flashcards, in order.
func (d Document) Flashcards() []models.Flashcard {
	out := make([]models.Flashcard, len(d.Cards))
	for i, c := range d.Cards {
		out[i] = models.Flashcard{Question: c.Question, Answer: c.Answer}
	}
	return out
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc Document) error {
	if doc.Version == 0 {
		doc.Version = FormatVersion
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("exchange: encode: %w", err)
	}
	return enc.Close()
}

// Decode reads one document. Unknown keys are rejected.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, ErrEmptyDocument
		}
		return Document{}, fmt.Errorf("exchange: invalid yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks the version, card count and text lengths. Blank card text is allowed and
// falls back to the placeholder text on import.
func (d Document) Validate() error {
	if d.Version != 0 && d.Version != FormatVersion {
		return fmt.Errorf("exchange: unsupported version %d", d.Version)
	}
	if len(d.Cards) > maxCards {
		return fmt.Errorf("exchange: %d cards exceeds the limit of %d", len(d.Cards), maxCards)
	}
	if len(strings.TrimSpace(d.Title)) > 200 {
		return errors.New("exchange: title must be at most 200 characters")
	}
	for i, c := range d.Cards {
		if utf8.RuneCountInString(c.Question) > models.MaxTextLength {
			return fmt.Errorf("exchange: card %d: question must be at most %d characters", i, models.MaxTextLength)
		}
		if utf8.RuneCountInString(c.Answer) > models.MaxTextLength {
			return fmt.Errorf("exchange: card %d: answer must be at most %d characters", i, models.MaxTextLength)
		}
	}
	return nil
}
