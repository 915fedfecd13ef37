package tabular

type settings struct {
	sheet     string
	comma     rune
	bom       bool
	boldTitle bool
}

func newSettings(opts []Option) settings {
	s := settings{comma: ',', boldTitle: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a reader or writer.
type Option func(*settings)

// WithSheet selects the XLSX sheet to read or names the one written.
// Reading defaults to the first sheet.
func WithSheet(name string) Option {
	return func(s *settings) {
		s.sheet = name
	}
}

// WithComma sets the CSV field delimiter.
func WithComma(r rune) Option {
	return func(s *settings) {
		if r != 0 {
			s.comma = r
		}
	}
}

// WithBOM prefixes CSV output with a UTF-8 byte order mark so spreadsheet
// applications detect the encoding of Chinese headers.
func WithBOM(bom bool) Option {
	return func(s *settings) {
		s.bom = bom
	}
}

// WithHeaderStyle toggles the bold XLSX header row.
func WithHeaderStyle(bold bool) Option {
	return func(s *settings) {
		s.boldTitle = bold
	}
}
