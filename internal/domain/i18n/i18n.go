// Package i18n holds the immutable per-language vocabularies used for labels,
// default input columns and user-facing messages.
package i18n

import (
	"fmt"
	"strings"

	"github.com/okian/pedbp/internal/domain/classify"
)

// Language selects a vocabulary.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// Field identifies one of the five required input columns.
type Field string

const (
	FieldSex       Field = "sex"
	FieldAge       Field = "age"
	FieldHeight    Field = "height"
	FieldSystolic  Field = "sbp"
	FieldDiastolic Field = "dbp"
)

// Fields lists the required input fields in canonical order.
var Fields = []Field{FieldSex, FieldAge, FieldHeight, FieldSystolic, FieldDiastolic}

// Vocabulary is the language-specific rendering of labels, columns and messages.
type Vocabulary struct {
	language        Language
	labels          map[classify.Status]string
	columns         map[Field]string
	resultColumn    string
	systolicColumn  string
	diastolicColumn string

	missingColumns string
	fallback       string
}

var vocabularies = map[Language]*Vocabulary{
	Chinese: {
		language: Chinese,
		labels: map[classify.Status]string{
			classify.Normal:     "正常",
			classify.HighNormal: "正常高值",
			classify.Stage1:     "高血压1期",
			classify.Stage2:     "高血压2期",
			classify.Missing:    "缺失",
			classify.OutOfRange: "超出范围",
		},
		columns: map[Field]string{
			FieldSex:       "性别",
			FieldAge:       "年龄",
			FieldHeight:    "身高",
			FieldSystolic:  "收缩压",
			FieldDiastolic: "舒张压",
		},
		resultColumn:    "血压评价",
		systolicColumn:  "收缩压评价",
		diastolicColumn: "舒张压评价",
		missingColumns:  "缺少必需的列: %s",
		fallback:        "未找到中文列名, 已使用英文列名: %s",
	},
	English: {
		language: English,
		labels: map[classify.Status]string{
			classify.Normal:     "Normal",
			classify.HighNormal: "High-normal",
			classify.Stage1:     "Stage 1",
			classify.Stage2:     "Stage 2",
			classify.Missing:    "Missing",
			classify.OutOfRange: "Out of range",
		},
		columns: map[Field]string{
			FieldSex:       "sex",
			FieldAge:       "age",
			FieldHeight:    "height",
			FieldSystolic:  "sbp",
			FieldDiastolic: "dbp",
		},
		resultColumn:    "bp_category",
		systolicColumn:  "sbp_category",
		diastolicColumn: "dbp_category",
		missingColumns:  "missing required columns: %s",
		fallback:        "English column names not found, using Chinese column names: %s",
	},
}

// ParseLanguage accepts zh/en in any case; empty selects Chinese.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", Chinese:
		return Chinese, nil
	case English:
		return English, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
}

// Valid reports whether l has a vocabulary.
func (l Language) Valid() bool {
	_, ok := vocabularies[l]
	return ok
}

// Other returns the fallback language tried when default columns are absent.
func (l Language) Other() Language {
	if l == English {
		return Chinese
	}
	return English
}

// For returns the vocabulary of l, defaulting to Chinese for unknown values.
func For(l Language) *Vocabulary {
	if v, ok := vocabularies[l]; ok {
		return v
	}
	return vocabularies[Chinese]
}

// Label renders s.
func (v *Vocabulary) Label(s classify.Status) string {
	if l, ok := v.labels[s]; ok {
		return l
	}
	return s.String()
}

// Column returns the default column name for f.
func (v *Vocabulary) Column(f Field) string { return v.columns[f] }

// Language returns the language of v.
func (v *Vocabulary) Language() Language { return v.language }

// ResultColumn is the name of the appended combined category column.
func (v *Vocabulary) ResultColumn() string { return v.resultColumn }

// SystolicColumn is the name of the optional systolic category column.
func (v *Vocabulary) SystolicColumn() string { return v.systolicColumn }

// DiastolicColumn is the name of the optional diastolic category column.
func (v *Vocabulary) DiastolicColumn() string { return v.diastolicColumn }

// MissingColumns renders the structural failure message.
func (v *Vocabulary) MissingColumns(cols []string) string {
	return fmt.Sprintf(v.missingColumns, strings.Join(cols, ", "))
}

// Fallback renders the notice emitted when the other language's columns were used.
func (v *Vocabulary) Fallback(cols []string) string {
	return fmt.Sprintf(v.fallback, strings.Join(cols, ", "))
}
