package carpet

// Physical enumerates Parquet's physical column representations (spec
// §4.3 Table B). Int96 is recognized only to always reject it (spec:
// "INT96 is always rejected").
type Physical uint8

const (
	PBoolean Physical = iota
	PInt32
	PInt64
	PInt96
	PFloat
	PDouble
	PByteArray
	PFixedLenByteArray
)

// AnnotationKind enumerates the logical-type annotations the oracle
// recognizes (spec §4.3 Table A). NoAnnotation means the physical type
// dictates acceptance alone (Table B).
type AnnotationKind uint8

const (
	NoAnnotation AnnotationKind = iota
	AnnoString
	AnnoEnum
	AnnoJSON
	AnnoBSON
	AnnoUUID
	AnnoInt
	AnnoDecimal
	AnnoDate
	AnnoTime
	AnnoTimestamp
	AnnoGeometry
	AnnoGeography
	AnnoVariant
)

// ColumnType is the (physical, annotation) pair read off a file schema
// node, the left-hand side of the compatibility oracle (spec §4.3).
type ColumnType struct {
	Physical          Physical
	Annotation        AnnotationKind
	FixedLen          int
	IntBitWidth       int
	IntSigned         bool
	DecimalPrecision  int
	DecimalScale      int
	TimeUnit          TimeUnit
	UTCAdjusted       bool
}

// Compatibility is the four-way verdict spec §1/§4.3 describes: accept,
// accept with widening, accept with narrowing, or reject.
type Compatibility uint8

const (
	Reject Compatibility = iota
	Accept
	AcceptWidening
	AcceptNarrowing
)

func (c Compatibility) ok() bool { return c != Reject }

// Compatible implements the Type Compatibility Oracle (C3): it decides
// whether a user field of kind userTag may be bound to a file column of
// the given ColumnType, honoring cfg.StrictNumericType (spec §4.3
// precedence: annotation-driven acceptance first, then physical-only).
// cfg.FailNarrowingPrimitiveConversion is not consulted here; the
// projection in schema_read.go rejects AcceptNarrowing verdicts with it.
func Compatible(col ColumnType, userTag Tag, cfg *Config) Compatibility {
	if col.Physical == PInt96 {
		return Reject
	}
	if col.Annotation != NoAnnotation {
		return compatibleAnnotated(col, userTag, cfg)
	}
	return compatiblePhysical(col.Physical, userTag, cfg)
}

func compatibleAnnotated(col ColumnType, userTag Tag, cfg *Config) Compatibility {
	switch col.Annotation {
	case AnnoString:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagString, TagEnum, TagBinary:
			return Accept
		}
		return Reject

	case AnnoEnum:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagString, TagEnum, TagBinary:
			return Accept
		}
		return Reject

	case AnnoJSON:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagString, TagBinary, TagJSON:
			return Accept
		}
		return Reject

	case AnnoBSON:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagBinary, TagBSON:
			return Accept
		}
		return Reject

	case AnnoUUID:
		if col.Physical != PFixedLenByteArray || col.FixedLen != 16 {
			return Reject
		}
		switch userTag {
		case TagUUID, TagString:
			return Accept
		}
		return Reject

	case AnnoInt:
		if col.Physical != PInt32 && col.Physical != PInt64 {
			return Reject
		}
		switch {
		case col.IntBitWidth == 8 && userTag == TagByte:
			return Accept
		case col.IntBitWidth == 16 && userTag == TagShort:
			return Accept
		case userTag == TagInt || userTag == TagLong:
			return compatiblePhysical(col.Physical, userTag, cfg)
		}
		return Reject

	case AnnoDecimal:
		if userTag != TagDecimal {
			return Reject
		}
		switch col.Physical {
		case PInt32:
			if col.DecimalPrecision > 9 {
				return Reject
			}
		case PInt64:
			if col.DecimalPrecision > 18 {
				return Reject
			}
		case PByteArray, PFixedLenByteArray:
			// any precision
		default:
			return Reject
		}
		return Accept

	case AnnoDate:
		if col.Physical != PInt32 {
			return Reject
		}
		if userTag == TagDate {
			return Accept
		}
		return Reject

	case AnnoTime:
		switch {
		case col.TimeUnit == Millisecond && col.Physical == PInt32:
		case (col.TimeUnit == Microsecond || col.TimeUnit == Nanosecond) && col.Physical == PInt64:
		default:
			return Reject
		}
		if userTag == TagTime {
			return Accept
		}
		return Reject

	case AnnoTimestamp:
		if col.Physical != PInt64 {
			return Reject
		}
		if col.UTCAdjusted {
			switch userTag {
			case TagInstant, TagDateTime:
				return Accept
			}
			return Reject
		}
		if userTag == TagDateTime {
			return Accept
		}
		return Reject

	case AnnoGeometry:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagGeometry, TagBinary:
			return Accept
		}
		return Reject

	case AnnoGeography:
		if col.Physical != PByteArray {
			return Reject
		}
		switch userTag {
		case TagGeography, TagBinary:
			return Accept
		}
		return Reject

	case AnnoVariant:
		if userTag == TagVariant {
			return Accept
		}
		return Reject

	default:
		return Reject
	}
}

func compatiblePhysical(phys Physical, userTag Tag, cfg *Config) Compatibility {
	strict := cfg != nil && cfg.StrictNumericType
	switch phys {
	case PInt32:
		switch userTag {
		case TagInt, TagLong, TagDouble:
			return Accept
		case TagFloat, TagShort, TagByte:
			if !strict {
				return AcceptWidening
			}
			return Reject
		}
		return Reject
	case PInt64:
		switch userTag {
		case TagLong:
			return Accept
		case TagShort:
			if !strict {
				return AcceptNarrowing
			}
			return Reject
		case TagInt:
			if !strict {
				return AcceptNarrowing
			}
			return Reject
		}
		return Reject
	case PFloat:
		switch userTag {
		case TagFloat, TagDouble:
			return Accept
		}
		return Reject
	case PDouble:
		switch userTag {
		case TagDouble:
			return Accept
		case TagFloat:
			if !strict {
				return AcceptNarrowing
			}
			return Reject
		}
		return Reject
	case PBoolean:
		if userTag == TagBoolean {
			return Accept
		}
		return Reject
	case PByteArray:
		switch userTag {
		case TagBinary:
			return Accept
		case TagGeometry, TagGeography:
			// The pinned engine emits geometry payloads as unannotated
			// BINARY (see schema_write.go), so the reverse binding must
			// be admitted for round-trips to hold.
			return Accept
		}
		return Reject
	default:
		return Reject
	}
}
