// Package lessons декодирует и валидирует контент уроков, который хранит сервис контента.
// Каждый тип урока имеет свой вариант структуры; вариант выбирается таблицей по LessonType.
package lessons

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

// Instruction слово с определением для урока TODAY.
type Instruction struct {
	Word       string `json:"word" validate:"required"`
	Definition string `json:"definition" validate:"required"`
}

// Sentence предложение с озвучкой.
type Sentence struct {
	Sentence string `json:"sentence" validate:"required"`
	SoundSrc string `json:"soundSrc" validate:"required"`
}

// UseCase примеры употребления на двух языках.
type UseCase struct {
	En []string `json:"en" validate:"required,min=1"`
	Ar []string `json:"ar" validate:"required,min=1"`
}

// Definition слово из аудирования.
type Definition struct {
	Word       string `json:"word" validate:"required"`
	Definition string `json:"definition" validate:"required"`
	SoundSrc   string `json:"soundSrc" validate:"required"`
}

// Answer вариант ответа вопроса ежедневного теста.
type Answer struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

// Example пример для идиом и фразовых глаголов.
type Example struct {
	ExampleAr  string `json:"exampleAr" validate:"required"`
	ExampleEn  string `json:"exampleEn" validate:"required"`
	Sentence   string `json:"sentence" validate:"required"`
	SoundSrc   string `json:"soundSrc" validate:"required"`
	PictureSrc string `json:"pictureSrc" validate:"required"`
}

// Read урок чтения.
type Read struct {
	ID         string `json:"id,omitempty" validate:"omitempty,uuid"`
	SoundSrc   string `json:"soundSrc" validate:"required"`
	Transcript string `json:"transcript" validate:"required"`
}

// Write урок письма.
type Write struct {
	ID        string   `json:"id,omitempty" validate:"omitempty,uuid"`
	Sentences []string `json:"sentences" validate:"required,min=1,dive,required"`
}

// Today вводный урок дня.
type Today struct {
	ID             string        `json:"id,omitempty" validate:"omitempty,uuid"`
	Title          string        `json:"title" validate:"required"`
	SoundSrc       string        `json:"soundSrc,omitempty"`
	Description    string        `json:"description" validate:"required"`
	Sentences      []string      `json:"sentences" validate:"required,min=1,dive,required"`
	Instructions   []Instruction `json:"instructions" validate:"required,min=1,dive"`
	AIInstructions string        `json:"aiInstructions,omitempty"`
}

// Pictures урок со словами по картинкам.
type Pictures struct {
	ID         string   `json:"id,omitempty" validate:"omitempty,uuid"`
	SoundSrc   string   `json:"soundSrc" validate:"required"`
	PictureSrc string   `json:"pictureSrc" validate:"required"`
	WordEn     string   `json:"wordEn" validate:"required"`
	Definition string   `json:"definition" validate:"required"`
	Examples   []string `json:"examples" validate:"required,min=1"`
}

// Listen урок аудирования.
type Listen struct {
	ID          string       `json:"id,omitempty" validate:"omitempty,uuid"`
	SoundSrc    string       `json:"soundSrc" validate:"required"`
	Transcript  string       `json:"transcript" validate:"required"`
	Definitions []Definition `json:"definitions" validate:"required,min=1,dive"`
}

// QA урок вопрос-ответ.
type QA struct {
	ID          string `json:"id,omitempty" validate:"omitempty,uuid"`
	Question    string `json:"question" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
	QuestionSrc string `json:"questionSrc" validate:"required"`
	AnswerSrc   string `json:"answerSrc" validate:"required"`
}

// Speak урок говорения.
type Speak struct {
	ID        string     `json:"id,omitempty" validate:"omitempty,uuid"`
	Sentences []Sentence `json:"sentences" validate:"required,min=1,dive"`
}

// Grammar урок грамматики.
type Grammar struct {
	ID           string   `json:"id,omitempty" validate:"omitempty,uuid"`
	NameEn       string   `json:"nameEn" validate:"required"`
	NameAr       string   `json:"nameAr" validate:"required"`
	DefinitionEn string   `json:"definitionEn" validate:"required"`
	DefinitionAr string   `json:"definitionAr" validate:"required"`
	UseCases     UseCase  `json:"useCases"`
	Examples     []string `json:"examples" validate:"required,min=1"`
	Words        []string `json:"words,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// DailyTestQuestion вопрос ежедневного теста. Индекс варианта равен его позиции в Answers.
type DailyTestQuestion struct {
	ID       string   `json:"id" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=single multiple"`
	Question string   `json:"question" validate:"required"`
	Answers  []Answer `json:"answers" validate:"required,min=2,dive"`
}

// Idiom урок идиом.
type Idiom struct {
	ID           string    `json:"id,omitempty" validate:"omitempty,uuid"`
	DefinitionEn string    `json:"definitionEn" validate:"required"`
	DefinitionAr string    `json:"definitionAr" validate:"required"`
	UseCases     UseCase   `json:"useCases"`
	Examples     []Example `json:"examples" validate:"required,min=1,dive"`
}

// PhrasalVerb урок фразовых глаголов.
type PhrasalVerb struct {
	ID        string    `json:"id,omitempty" validate:"omitempty,uuid"`
	ExampleAr string    `json:"exampleAr" validate:"required"`
	ExampleEn string    `json:"exampleEn" validate:"required"`
	UseCases  UseCase   `json:"useCases"`
	Examples  []Example `json:"examples" validate:"required,min=1,dive"`
}

// Content контент одного урока. Заполнено ровно одно поле, соответствующее Type.
type Content struct {
	Type         models.LessonType
	Read         []Read
	Write        []Write
	Speak        []Speak
	Today        []Today
	Listen       []Listen
	Grammar      []Grammar
	Pictures     []Pictures
	QA           []QA
	DailyTest    []DailyTestQuestion
	PhrasalVerbs []PhrasalVerb
	Idioms       []Idiom
}

type decodeFunc func(d *Decoder, raw []byte, c *Content) error

var decoders = map[models.LessonType]decodeFunc{
	models.LessonRead:         func(d *Decoder, raw []byte, c *Content) (err error) { c.Read, err = decodeItems[Read](d, raw); return },
	models.LessonWrite:        func(d *Decoder, raw []byte, c *Content) (err error) { c.Write, err = decodeItems[Write](d, raw); return },
	models.LessonSpeak:        func(d *Decoder, raw []byte, c *Content) (err error) { c.Speak, err = decodeItems[Speak](d, raw); return },
	models.LessonToday:        func(d *Decoder, raw []byte, c *Content) (err error) { c.Today, err = decodeItems[Today](d, raw); return },
	models.LessonListen:       func(d *Decoder, raw []byte, c *Content) (err error) { c.Listen, err = decodeItems[Listen](d, raw); return },
	models.LessonGrammar:      func(d *Decoder, raw []byte, c *Content) (err error) { c.Grammar, err = decodeItems[Grammar](d, raw); return },
	models.LessonPictures:     func(d *Decoder, raw []byte, c *Content) (err error) { c.Pictures, err = decodeItems[Pictures](d, raw); return },
	models.LessonQA:           func(d *Decoder, raw []byte, c *Content) (err error) { c.QA, err = decodeItems[QA](d, raw); return },
	models.LessonDailyTest:    decodeDailyTest,
	models.LessonPhrasalVerbs: func(d *Decoder, raw []byte, c *Content) (err error) { c.PhrasalVerbs, err = decodeItems[PhrasalVerb](d, raw); return },
	models.LessonIdioms:       func(d *Decoder, raw []byte, c *Content) (err error) { c.Idioms, err = decodeItems[Idiom](d, raw); return },
}

// Decoder разбирает JSON контента урока в вариант его типа.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder создаёт Decoder.
func NewDecoder() *Decoder {
	return &Decoder{validate: validator.New()}
}

// Decode разбирает массив элементов урока типа t и валидирует каждый элемент.
func (d *Decoder) Decode(t models.LessonType, raw []byte) (*Content, error) {
	const op = "lessons.Decode"
	fn, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", op, progression.ErrUnknownLessonType, t)
	}
	c := &Content{Type: t}
	if err := fn(d, raw, c); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, t, err)
	}
	return c, nil
}

func decodeItems[T any](d *Decoder, raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty lesson content")
	}
	for i := range items {
		if err := d.validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return items, nil
}

func decodeDailyTest(d *Decoder, raw []byte, c *Content) error {
	items, err := decodeItems[DailyTestQuestion](d, raw)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(items))
	for i, q := range items {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("item %d: duplicate question id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(correctIndices(q)) == 0 {
			return fmt.Errorf("item %d: question %q has no correct answer", i, q.ID)
		}
	}
	c.DailyTest = items
	return nil
}

// AnswerKey строит ключ ответов из контента ежедневного теста.
func (c *Content) AnswerKey() (progression.AnswerKey, error) {
	if c.Type != models.LessonDailyTest {
		return nil, fmt.Errorf("lessons.AnswerKey: content of type %s has no answer key", c.Type)
	}
	key := make(progression.AnswerKey, 0, len(c.DailyTest))
	for _, q := range c.DailyTest {
		key = append(key, progression.KeyQuestion{ID: q.ID, Correct: correctIndices(q)})
	}
	return key, nil
}

func correctIndices(q DailyTestQuestion) []int {
	var idx []int
	for i, a := range q.Answers {
		if a.IsCorrect {
			idx = append(idx, i)
		}
	}
	return idx
}

// Items возвращает элементы заполненного варианта.
func (c *Content) Items() any {
	switch c.Type {
	case models.LessonRead:
		return c.Read
	case models.LessonWrite:
		return c.Write
	case models.LessonSpeak:
		return c.Speak
	case models.LessonToday:
		return c.Today
	case models.LessonListen:
		return c.Listen
	case models.LessonGrammar:
		return c.Grammar
	case models.LessonPictures:
		return c.Pictures
	case models.LessonQA:
		return c.QA
	case models.LessonDailyTest:
		return c.DailyTest
	case models.LessonPhrasalVerbs:
		return c.PhrasalVerbs
	case models.LessonIdioms:
		return c.Idioms
	default:
		return nil
	}
}

// WithoutAnswers возвращает копию контента, в которой у вопросов теста сброшены правильные ответы.
func (c *Content) WithoutAnswers() *Content {
	if c.Type != models.LessonDailyTest {
		return c
	}
	out := *c
	out.DailyTest = make([]DailyTestQuestion, len(c.DailyTest))
	for i, q := range c.DailyTest {
		answers := make([]Answer, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = Answer{Text: a.Text}
		}
		q.Answers = answers
		out.DailyTest[i] = q
	}
	return &out
}
