package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "param" for the failed bound).
type Translator interface {
	Message(code string, data map[string]string) string
}

var _dict = map[string]map[string]string{
	"en": {
		"invalid_type":         "invalid type",
		"invalid_const":        "value does not equal {param}",
		"invalid_enum":         "value is not one of {param}",
		"invalid_format":       "invalid format",
		"unknown_keys":         "unknown keys {param}",
		"tuple_length":         "tuple must have {param} elements",
		"invalid_union":        "no union member matched",
		"invalid_intersection": "intersection results cannot be merged",
		"too_small":            "must be at least {param}",
		"too_big":              "must be at most {param}",
		"too_small.exclusive":  "must be greater than {param}",
		"too_big.exclusive":    "must be less than {param}",
		"not_finite":           "must be a finite number",
		"not_integer":          "must be an integer",
		"too_short":            "length must be at least {param}",
		"too_long":             "length must be at most {param}",
		"pattern":              "must match {param}",
		"denied":               "value is not allowed",
		"excluded":             "value is excluded",
		"never":                "no value is allowed",
		"parse_error":          "parse error",
		"duplicate_key":        "duplicate key {param}",
		"service_unavailable":  "required service is not available",
		"not_unique":           "duplicate value",
		"custom":               "invalid value",
	},
	"ja": {
		"invalid_type":         "型が不正です",
		"invalid_const":        "値が {param} と一致しません",
		"invalid_enum":         "値が {param} のいずれでもありません",
		"invalid_format":       "形式が不正です",
		"unknown_keys":         "未知のキーです: {param}",
		"tuple_length":         "要素数は {param} である必要があります",
		"invalid_union":        "どの候補にも一致しません",
		"invalid_intersection": "交差型の結果を統合できません",
		"too_small":            "{param} 以上である必要があります",
		"too_big":              "{param} 以下である必要があります",
		"too_small.exclusive":  "{param} より大きい必要があります",
		"too_big.exclusive":    "{param} より小さい必要があります",
		"not_finite":           "有限の数値である必要があります",
		"not_integer":          "整数である必要があります",
		"too_short":            "短すぎます (最小 {param})",
		"too_long":             "長すぎます (最大 {param})",
		"pattern":              "{param} に一致しません",
		"denied":               "許可されていない値です",
		"excluded":             "除外された値です",
		"never":                "値は許可されていません",
		"parse_error":          "解析エラー",
		"duplicate_key":        "キー {param} が重複しています",
		"service_unavailable":  "必要なサービスが利用できません",
		"not_unique":           "値が重複しています",
		"custom":               "値が不正です",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := _dict[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return strings.ReplaceAll(msg, " {param}", "")
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
