package progression

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// PassThreshold минимальная доля правильных ответов для сдачи теста.
const PassThreshold = 0.70

// ScoringPolicy правило зачёта вопроса с несколькими правильными вариантами.
type ScoringPolicy string

const (
	// PolicyAnyCorrect вопрос засчитан, если среди выбранных есть хотя бы один правильный вариант.
	PolicyAnyCorrect ScoringPolicy = "any_correct"
	// PolicyExactSet вопрос засчитан только при точном совпадении множеств.
	PolicyExactSet ScoringPolicy = "exact_set"
)

// ParseScoringPolicy разбирает значение из конфига. Пустая строка даёт PolicyAnyCorrect.
func ParseScoringPolicy(s string) (ScoringPolicy, error) {
	switch ScoringPolicy(strings.ToLower(s)) {
	case "", PolicyAnyCorrect:
		return PolicyAnyCorrect, nil
	case PolicyExactSet:
		return PolicyExactSet, nil
	}
	return "", fmt.Errorf("unknown scoring policy %q", s)
}

// KeyQuestion правильные варианты одного вопроса.
type KeyQuestion struct {
	ID      string
	Correct []int
}

// AnswerKey ключ ответов ежедневного теста.
type AnswerKey []KeyQuestion

// Passes сдан ли тест с данной долей правильных ответов.
func Passes(score float64) bool {
	return score >= PassThreshold
}

// Evaluate проверяет ответы по ключу. Ответы на вопросы вне ключа игнорируются,
// вопрос без ответа не засчитывается. Пустой ключ сдать нельзя.
func Evaluate(sub models.DailyTestSubmission, key AnswerKey, policy ScoringPolicy) models.DailyTestResult {
	res := models.DailyTestResult{Total: len(key)}
	if res.Total == 0 {
		return res
	}
	for _, q := range key {
		if credited(sub.Answers[q.ID], q.Correct, policy) {
			res.Correct++
		}
	}
	res.Score = float64(res.Correct) / float64(res.Total)
	res.Passed = Passes(res.Score)
	return res
}

func credited(selected, correct []int, policy ScoringPolicy) bool {
	if len(selected) == 0 || len(correct) == 0 {
		return false
	}
	want := toSet(correct)
	got := toSet(selected)
	if policy == PolicyExactSet {
		if len(want) != len(got) {
			return false
		}
		for i := range got {
			if _, ok := want[i]; !ok {
				return false
			}
		}
		return true
	}
	for i := range got {
		if _, ok := want[i]; ok {
			return true
		}
	}
	return false
}

func toSet(xs []int) map[int]struct{} {
	s := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

// AdvanceDay переводит пользователя на следующий день после сдачи теста за testDay.
// Сдвиг происходит только если testDay равен текущему дню, поэтому повторная сдача ничего не меняет.
// После 50-го дня CurrentDay фиксируется на 51 и уровень считается пройденным.
func AdvanceDay(e models.LevelEntitlement, testDay int) (models.LevelEntitlement, bool) {
	if e.IsCompleted || testDay != e.CurrentDay {
		return e, false
	}
	next := e.Clone()
	next.CurrentDay++
	if next.CurrentDay > models.TotalDays {
		next.CurrentDay = models.CompletedDay
		next.IsCompleted = true
	}
	return next, true
}
