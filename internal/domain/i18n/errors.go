package i18n

import "errors"

// ErrUnknownLanguage is returned for a language without a vocabulary.
var ErrUnknownLanguage = errors.New("unknown language")
