package carpet

import "github.com/parquet-go/carpet/variantx"

// AnnotatedLevels selects which of Parquet's three historical list
// encoding conventions the write path emits (spec §4.2/§4.8).
type AnnotatedLevels uint8

const (
	OneLevel AnnotatedLevels = iota
	TwoLevel
	ThreeLevel
)

// NamingStrategy selects how write-side column names are derived from
// field names, and how read-side column matching is attempted (spec §4.6,
// §4.8).
type NamingStrategy uint8

const (
	FieldName NamingStrategy = iota
	SnakeCase
	ExplicitAlias
	BestEffort
)

// DecimalDefault is the configured fallback precision/scale used when a
// BigDecimal field declares neither (spec §3 invariant).
type DecimalDefault struct {
	Precision int
	Scale     int
}

// Config is the structured configuration surface described in spec §4.8.
// It is passed explicitly; there is no process-wide state.
type Config struct {
	AnnotatedLevels  AnnotatedLevels
	ColumnNaming     NamingStrategy
	TimeUnit         TimeUnit
	DecimalDefault   *DecimalDefault
	FailOnMissingColumn              bool
	FailNarrowingPrimitiveConversion bool
	FailOnNullForPrimitives          bool
	StrictNumericType                bool

	// Aliases feed the EXPLICIT_ALIAS and BEST_EFFORT matching
	// strategies (spec §4.6); merged with aliases declared in struct tags
	// when the model comes from the reflection front-end.
	Aliases Aliases

	// VariantDecoder reconstructs Variant values on read (spec §4.9);
	// nil selects the identity pass-through variantx.RawDecoder.
	VariantDecoder variantx.Decoder
}

// DefaultConfig mirrors the teacher's DefaultWriterConfig pattern: a
// struct literal with every spec §4.8 default pre-applied.
func DefaultConfig() *Config {
	return &Config{
		AnnotatedLevels:                   ThreeLevel,
		ColumnNaming:                      FieldName,
		TimeUnit:                          Millisecond,
		FailOnMissingColumn:               false,
		FailNarrowingPrimitiveConversion:  true,
		FailOnNullForPrimitives:           true,
		StrictNumericType:                 true,
	}
}

// Option configures a Config in place, in the functional-options style.
type Option func(*Config)

// Apply runs every opt against c and returns c.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithAnnotatedLevels(levels AnnotatedLevels) Option {
	return func(c *Config) { c.AnnotatedLevels = levels }
}

func WithColumnNaming(strategy NamingStrategy) Option {
	return func(c *Config) { c.ColumnNaming = strategy }
}

func WithTimeUnit(unit TimeUnit) Option {
	return func(c *Config) { c.TimeUnit = unit }
}

func WithDecimalDefault(precision, scale int) Option {
	return func(c *Config) { c.DecimalDefault = &DecimalDefault{Precision: precision, Scale: scale} }
}

func WithFailOnMissingColumn(v bool) Option {
	return func(c *Config) { c.FailOnMissingColumn = v }
}

func WithFailNarrowingPrimitiveConversion(v bool) Option {
	return func(c *Config) { c.FailNarrowingPrimitiveConversion = v }
}

func WithFailOnNullForPrimitives(v bool) Option {
	return func(c *Config) { c.FailOnNullForPrimitives = v }
}

func WithStrictNumericType(v bool) Option {
	return func(c *Config) { c.StrictNumericType = v }
}

func WithAliases(aliases Aliases) Option {
	return func(c *Config) { c.Aliases = aliases }
}

func WithVariantDecoder(dec variantx.Decoder) Option {
	return func(c *Config) { c.VariantDecoder = dec }
}
