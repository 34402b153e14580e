package document

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Severity is one gravity from the fixed error taxonomy. The names mirror the
// producer-side error constants; values outside the taxonomy decode as
// SeverityUnknown so classification stays total.
type Severity string

// Severity taxonomy
const (
	SeverityUnknown        Severity = "UNKNOWN"
	SeverityError          Severity = "ERROR"
	SeverityWarning        Severity = "WARNING"
	SeverityParse          Severity = "PARSE"
	SeverityNotice         Severity = "NOTICE"
	SeverityCoreError      Severity = "CORE_ERROR"
	SeverityCoreWarning    Severity = "CORE_WARNING"
	SeverityCompileError   Severity = "COMPILE_ERROR"
	SeverityCompileWarning Severity = "COMPILE_WARNING"
	SeverityUserError      Severity = "USER_ERROR"
	SeverityUserWarning    Severity = "USER_WARNING"
	SeverityUserNotice     Severity = "USER_NOTICE"
	SeverityStrict         Severity = "STRICT"
	SeverityRecoverable    Severity = "RECOVERABLE_ERROR"
	SeverityDeprecated     Severity = "DEPRECATED"
	SeverityUserDeprecated Severity = "USER_DEPRECATED"
)

// Severities lists the full taxonomy in producer constant order.
var Severities = []Severity{
	SeverityUnknown,
	SeverityError,
	SeverityWarning,
	SeverityParse,
	SeverityNotice,
	SeverityCoreError,
	SeverityCoreWarning,
	SeverityCompileError,
	SeverityCompileWarning,
	SeverityUserError,
	SeverityUserWarning,
	SeverityUserNotice,
	SeverityStrict,
	SeverityRecoverable,
	SeverityDeprecated,
	SeverityUserDeprecated,
}

// Class is the dashboard-facing severity bucket.
type Class string

// Severity classes
const (
	ClassFatal       Class = "fatal"
	ClassWarning     Class = "warning"
	ClassNotice      Class = "notice"
	ClassDeprecation Class = "deprecation"
	ClassUnknown     Class = "unknown"
)

// Class maps the severity to its dashboard class. The mapping is total: any
// severity outside the taxonomy classifies as ClassUnknown.
func (s Severity) Class() Class {
	switch s {
	case SeverityError, SeverityParse, SeverityCoreError, SeverityCompileError,
		SeverityUserError, SeverityRecoverable:
		return ClassFatal
	case SeverityWarning, SeverityCoreWarning, SeverityCompileWarning, SeverityUserWarning:
		return ClassWarning
	case SeverityNotice, SeverityUserNotice, SeverityStrict:
		return ClassNotice
	case SeverityDeprecated, SeverityUserDeprecated:
		return ClassDeprecation
	default:
		return ClassUnknown
	}
}

// severityCodes maps producer-side E_* integer constants to taxonomy names.
// Legacy producers send the raw integer on the wire.
var severityCodes = map[int]Severity{
	1:     SeverityError,
	2:     SeverityWarning,
	4:     SeverityParse,
	8:     SeverityNotice,
	16:    SeverityCoreError,
	32:    SeverityCoreWarning,
	64:    SeverityCompileError,
	128:   SeverityCompileWarning,
	256:   SeverityUserError,
	512:   SeverityUserWarning,
	1024:  SeverityUserNotice,
	2048:  SeverityStrict,
	4096:  SeverityRecoverable,
	8192:  SeverityDeprecated,
	16384: SeverityUserDeprecated,
}

// ParseSeverity resolves a taxonomy name, case-insensitively. Unrecognized
// names resolve to SeverityUnknown.
func ParseSeverity(name string) Severity {
	up := Severity(strings.ToUpper(strings.TrimSpace(name)))
	for _, s := range Severities {
		if s == up {
			return s
		}
	}
	return SeverityUnknown
}

// UnmarshalJSON accepts either a taxonomy name or a producer integer code.
// Decoding never fails on unknown values; they become SeverityUnknown.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*s = ParseSeverity(name)
		return nil
	}
	if code, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil {
		if sev, ok := severityCodes[code]; ok {
			*s = sev
		} else {
			*s = SeverityUnknown
		}
		return nil
	}
	*s = SeverityUnknown
	return nil
}
