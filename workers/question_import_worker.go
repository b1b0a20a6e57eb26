// workers/question_import_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SAT-Duel/satduel/models"
	"github.com/SAT-Duel/satduel/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// ImportedQuestion matches the JSON layout of a question inside a batch file.
type ImportedQuestion struct {
	Prompt      string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Difficulty  int      `json:"difficulty"`
	Category    string   `json:"category"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuestionBatch is the top-level structure of a batch file in the bucket.
type QuestionBatch struct {
	Questions []ImportedQuestion `json:"questions"`
}

// QuestionImportWorker polls the content bucket for new question batches and
// loads them into the question bank. Batches are plain JSON files uploaded by
// the content team; each file is imported exactly once, keyed by its object
// key.
type QuestionImportWorker struct {
	db       *gorm.DB
	interval time.Duration
	prefix   string
}

func NewQuestionImportWorker(db *gorm.DB) *QuestionImportWorker {
	return &QuestionImportWorker{
		db:       db,
		interval: 5 * time.Minute,
		prefix:   "questions/",
	}
}

func (w *QuestionImportWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Question Import Worker (R2 → question bank)…")
	go w.run(ctx)
}

func (w *QuestionImportWorker) run(ctx context.Context) {
	if err := w.importNewBatches(ctx); err != nil {
		log.Printf("⚠️ Initial question import failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.importNewBatches(ctx); err != nil {
				log.Printf("❌ Question import failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Question Import Worker stopped")
			return
		}
	}
}

// importNewBatches lists the bucket prefix and imports every batch we have
// not seen yet.
func (w *QuestionImportWorker) importNewBatches(ctx context.Context) error {
	keys, err := utils.ListR2Keys(ctx, w.prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	imported, err := w.importedKeys()
	if err != nil {
		return err
	}

	var newBatches int
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		if imported[key] {
			continue
		}
		if err := w.importBatch(ctx, key); err != nil {
			log.Printf("[IMPORT] ⚠️ Failed to import batch %q: %v", key, err)
			continue
		}
		newBatches++
	}

	if newBatches > 0 {
		log.Printf("[IMPORT] ✅ Imported %d new question batch(es)", newBatches)
	}
	return nil
}

// importedKeys returns the set of batch keys already present in the bank.
func (w *QuestionImportWorker) importedKeys() (map[string]bool, error) {
	var keys []string
	err := w.db.Model(&models.Question{}).
		Where("source_key <> ''").
		Distinct("source_key").
		Pluck("source_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load imported batch keys: %w", err)
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	return seen, nil
}

func (w *QuestionImportWorker) importBatch(ctx context.Context, key string) error {
	data, err := utils.FetchR2Object(ctx, key)
	if err != nil {
		return err
	}

	var batch QuestionBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to decode batch %q: %w", key, err)
	}
	if len(batch.Questions) == 0 {
		log.Printf("[IMPORT] ⚠️ Batch %q contains no questions, skipping", key)
		return nil
	}

	questions := make([]models.Question, 0, len(batch.Questions))
	var skipped int
	for _, raw := range batch.Questions {
		q, err := buildQuestion(raw, key)
		if err != nil {
			skipped++
			log.Printf("[IMPORT] ⚠️ Skipping question in %q: %v", key, err)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return fmt.Errorf("all %d questions in batch were invalid", skipped)
	}

	// One transaction per batch so a partial failure never leaves a batch
	// half-imported and then skipped forever.
	if err := w.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	}); err != nil {
		return fmt.Errorf("failed to insert batch %q: %w", key, err)
	}

	log.Printf("[IMPORT] 📥 Batch %q: imported %d question(s), skipped %d", key, len(questions), skipped)
	return nil
}

// buildQuestion validates one imported record and maps it onto the bank's
// question model. Prompts arrive from assorted authoring tools, so text is
// normalized to NFC before storage.
func buildQuestion(raw ImportedQuestion, sourceKey string) (models.Question, error) {
	if strings.TrimSpace(raw.Prompt) == "" {
		return models.Question{}, fmt.Errorf("empty prompt")
	}
	if len(raw.Choices) != 4 {
		return models.Question{}, fmt.Errorf("expected 4 choices, got %d", len(raw.Choices))
	}

	answer := strings.ToUpper(strings.TrimSpace(raw.Answer))
	switch answer {
	case "A", "B", "C", "D":
	default:
		return models.Question{}, fmt.Errorf("invalid answer %q", raw.Answer)
	}

	difficulty := raw.Difficulty
	if difficulty < 1 || difficulty > 5 {
		difficulty = 3
	}

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		return models.Question{}, fmt.Errorf("missing category")
	}

	return models.Question{
		ID:           uuid.NewString(),
		Prompt:       norm.NFC.String(strings.TrimSpace(raw.Prompt)),
		ChoiceA:      norm.NFC.String(raw.Choices[0]),
		ChoiceB:      norm.NFC.String(raw.Choices[1]),
		ChoiceC:      norm.NFC.String(raw.Choices[2]),
		ChoiceD:      norm.NFC.String(raw.Choices[3]),
		Answer:       answer,
		Difficulty:   difficulty,
		Category:     category,
		CategorySlug: slug.Make(category),
		Explanation:  norm.NFC.String(raw.Explanation),
		SourceKey:    sourceKey,
	}, nil
}
