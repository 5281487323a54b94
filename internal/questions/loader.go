package questions

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-trivia/backend/internal/models"
)

// ErrMalformedBlock is returned for a question block that cannot be parsed.
var ErrMalformedBlock = errors.New("malformed question block")

const answerPrefix = "correcta:"

// TemplateStore is the part of the game store the importer needs.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]models.Question, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
}

// Parse reads question blocks separated by blank lines. Each block is the
// question text, the four options prefixed "A) " to "D) " and a final
// "correcta:X" line. Lines after the sixth are ignored.
func Parse(r io.Reader) ([]models.Question, error) {
	var (
		list  []models.Question
		block []string
		n     int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		n++
		q, err := parseBlock(block)
		block = block[:0]
		if err != nil {
			return fmt.Errorf("block %d: %w", n, err)
		}
		list = append(list, q)
		return nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return list, nil
}

func parseBlock(lines []string) (models.Question, error) {
	if len(lines) < 6 {
		return models.Question{}, fmt.Errorf("%w: want 6 lines, got %d", ErrMalformedBlock, len(lines))
	}
	opts := make([]string, len(models.Options))
	for i, letter := range models.Options {
		opts[i] = strings.TrimSpace(strings.TrimPrefix(lines[i+1], letter+") "))
	}
	answer := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(lines[5], answerPrefix)))
	if !models.ValidOption(answer) {
		return models.Question{}, fmt.Errorf("%w: correct answer %q", ErrMalformedBlock, answer)
	}
	return models.Question{
		Text:          lines[0],
		OptionA:       opts[0],
		OptionB:       opts[1],
		OptionC:       opts[2],
		OptionD:       opts[3],
		CorrectAnswer: answer,
	}, nil
}

// Importer fills the global template pool.
type Importer struct {
	store  TemplateStore
	logger *zap.Logger
}

// NewImporter creates a template importer.
func NewImporter(store TemplateStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// Bootstrap populates an empty template pool from path, or from the built-in
// samples when path is empty. A non-empty pool is left untouched.
func (im *Importer) Bootstrap(ctx context.Context, path string) (int, error) {
	existing, err := im.store.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}
	if len(existing) > 0 {
		im.logger.Info("question templates present", zap.Int("count", len(existing)))
		return 0, nil
	}

	list := Samples()
	if path != "" {
		if list, err = LoadFile(path); err != nil {
			return 0, err
		}
	}
	for i := range list {
		if err := im.store.CreateQuestion(ctx, &list[i]); err != nil {
			return i, fmt.Errorf("create template: %w", err)
		}
	}
	im.logger.Info("question templates imported", zap.Int("count", len(list)), zap.String("source", sourceName(path)))
	return len(list), nil
}

// LoadFile parses a questions file.
func LoadFile(path string) ([]models.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer f.Close()
	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return list, nil
}

func sourceName(path string) string {
	if path == "" {
		return "samples"
	}
	return path
}
