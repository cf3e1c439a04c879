package xlbind

import "go.uber.org/zap"

// Conversion defaults.
const (
	DefaultMinRows     = 50
	DefaultMinColumns  = 20
	DefaultPadding     = 10
	DefaultWidthFactor = 7.0
)

// Options holds configuration shared by the converter, the engine and documents.
type Options struct {
	logger       *zap.Logger
	minRows      int
	minColumns   int
	padding      int
	widthFactor  float64
	fontFamily   string
	workbookName string
	exportStyles bool
}

func defaultOptions() *Options {
	return &Options{
		logger:       zap.NewNop(),
		minRows:      DefaultMinRows,
		minColumns:   DefaultMinColumns,
		padding:      DefaultPadding,
		widthFactor:  DefaultWidthFactor,
		fontFamily:   DefaultFontFamily,
		workbookName: "Workbook",
		exportStyles: true,
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures conversion and projection.
type Option func(*Options)

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMinExtent sets the minimum logical sheet size (default: 50 rows, 20 columns).
func WithMinExtent(rows, cols int) Option {
	return func(o *Options) {
		if rows > 0 {
			o.minRows = rows
		}
		if cols > 0 {
			o.minColumns = cols
		}
	}
}

// WithPadding sets the number of empty rows and columns added past the populated extent (default: 10).
func WithPadding(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.padding = n
		}
	}
}

// WithWidthFactor sets the character-width to pixel factor for column widths (default: 7).
func WithWidthFactor(f float64) Option {
	return func(o *Options) {
		if f > 0 {
			o.widthFactor = f
		}
	}
}

// WithDefaultFontFamily sets the family used when a source font declares none (default: "Arial").
func WithDefaultFontFamily(family string) Option {
	return func(o *Options) {
		if family != "" {
			o.fontFamily = family
		}
	}
}

// WithWorkbookName sets the name given to imported workbooks (default: "Workbook").
func WithWorkbookName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.workbookName = name
		}
	}
}

// WithExportStyles controls whether export regenerates cell styles (default: true).
func WithExportStyles(enabled bool) Option {
	return func(o *Options) { o.exportStyles = enabled }
}
