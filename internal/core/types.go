package core

import "strings"

// TypeFamily groups DM8 declared types by how their values are rendered.
type TypeFamily int

const (
	FamilyOther TypeFamily = iota
	FamilyString
	FamilyNumeric
	FamilyDate
	FamilyTimestamp
	FamilyBinary
)

func (f TypeFamily) String() string {
	switch f {
	case FamilyString:
		return "string"
	case FamilyNumeric:
		return "numeric"
	case FamilyDate:
		return "date"
	case FamilyTimestamp:
		return "timestamp"
	case FamilyBinary:
		return "binary"
	default:
		return "other"
	}
}

var stringTypes = toSet(
	"CHAR", "NCHAR", "VARCHAR", "VARCHAR2", "NVARCHAR", "NVARCHAR2",
	"TEXT", "CLOB", "NCLOB", "LONG", "LONG VARCHAR",
)

var stringTypePrefixes = []string{
	"CHAR(", "VARCHAR(", "VARCHAR2(", "NCHAR(", "NVARCHAR(", "NVARCHAR2(",
}

var numericTypes = toSet(
	"NUMBER", "INTEGER", "INT", "SMALLINT", "TINYINT", "BIGINT",
	"DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "REAL", "BYTE",
)

var numericTypePrefixes = []string{
	"NUMBER(", "DECIMAL(", "NUMERIC(", "FLOAT(",
}

var binaryTypes = toSet(
	"RAW", "BINARY", "VARBINARY", "BLOB", "LONGVARBINARY",
)

var binaryTypePrefixes = []string{
	"RAW(", "BINARY(", "VARBINARY(",
}

// FamilyOf classifies a declared type. The input is trimmed and upper-cased.
func FamilyOf(dataType string) TypeFamily {
	dt := NormalizeType(dataType)
	switch {
	case stringTypes[dt] || hasAnyPrefix(dt, stringTypePrefixes):
		return FamilyString
	case numericTypes[dt] || hasAnyPrefix(dt, numericTypePrefixes):
		return FamilyNumeric
	case dt == "DATE":
		return FamilyDate
	case strings.HasPrefix(dt, "TIMESTAMP"):
		return FamilyTimestamp
	case binaryTypes[dt] || hasAnyPrefix(dt, binaryTypePrefixes):
		return FamilyBinary
	default:
		return FamilyOther
	}
}

// NormalizeType trims and upper-cases a declared type.
func NormalizeType(dataType string) string {
	return strings.ToUpper(strings.TrimSpace(dataType))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func toSet(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
