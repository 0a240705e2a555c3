package models

import (
	"regexp"

	"github.com/go-playground/validator"
	"golang.org/x/text/language"
)

type Language string

const (
	ZhTW Language = "zh-TW"
	EN   Language = "en"
)

const DefaultLanguage = ZhTW

var supportedLanguages = []Language{ZhTW, EN}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.MustParse(string(ZhTW)),
	language.English,
})

func (l Language) Value() string {
	return string(l)
}

func (l Language) Tag() language.Tag {
	if l == EN {
		return language.English
	}
	return language.MustParse(string(ZhTW))
}

func (l Language) IsValid() bool {
	for _, supported := range supportedLanguages {
		if l == supported {
			return true
		}
	}
	return false
}

// MatchLanguage picks the closest supported language for an Accept-Language
// header value, falling back to DefaultLanguage.
func MatchLanguage(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return supportedLanguages[index]
}

var languageRule = regexp.MustCompile(`^(zh-TW|en)$`)

func ValidateLanguage(fl validator.FieldLevel) bool {
	return languageRule.MatchString(fl.Field().String())
}
