// Package models содержит доменные структуры движка прогресса по уровням:
// доступ пользователя к уровню, выполненные задания дня и ответы ежедневного теста.
package models

import "fmt"

// LevelID идентификатор уровня курса. Набор уровней закрыт.
type LevelID string

const (
	LevelA1 LevelID = "LEVEL_A1"
	LevelA2 LevelID = "LEVEL_A2"
	LevelB1 LevelID = "LEVEL_B1"
	LevelB2 LevelID = "LEVEL_B2"
	LevelC1 LevelID = "LEVEL_C1"
	LevelC2 LevelID = "LEVEL_C2"
)

// Levels возвращает все уровни в порядке возрастания сложности.
func Levels() []LevelID {
	return []LevelID{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}
}

// Valid сообщает, входит ли уровень в закрытый набор.
func (l LevelID) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}

// ParseLevelID разбирает строку из URL или сообщения в LevelID.
func ParseLevelID(s string) (LevelID, error) {
	l := LevelID(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

// LessonType тип урока внутри учебного дня. Набор из 11 типов закрыт.
type LessonType string

const (
	LessonRead         LessonType = "READ"
	LessonWrite        LessonType = "WRITE"
	LessonSpeak        LessonType = "SPEAK"
	LessonToday        LessonType = "TODAY"
	LessonListen       LessonType = "LISTEN"
	LessonGrammar      LessonType = "GRAMMAR"
	LessonPictures     LessonType = "PICTURES"
	LessonQA           LessonType = "Q_A"
	LessonDailyTest    LessonType = "DAILY_TEST"
	LessonPhrasalVerbs LessonType = "PHRASAL_VERBS"
	LessonIdioms       LessonType = "IDIOMS"
)

// LessonTypes возвращает все типы уроков.
func LessonTypes() []LessonType {
	return []LessonType{
		LessonRead, LessonWrite, LessonSpeak, LessonToday, LessonListen, LessonGrammar,
		LessonPictures, LessonQA, LessonDailyTest, LessonPhrasalVerbs, LessonIdioms,
	}
}

// Valid сообщает, входит ли тип урока в закрытый набор.
func (t LessonType) Valid() bool {
	for _, lt := range LessonTypes() {
		if lt == t {
			return true
		}
	}
	return false
}

// Terminal сообщает, является ли тип итоговым тестом дня.
func (t LessonType) Terminal() bool {
	return t == LessonDailyTest
}

// ParseLessonType разбирает строку в LessonType.
func ParseLessonType(s string) (LessonType, error) {
	t := LessonType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown lesson type %q", s)
	}
	return t, nil
}
