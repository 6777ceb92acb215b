package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a
// parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckParameterForInjection uses libinjection to detect SQL injection
// patterns in a parameter value. Search terms are always bound as query
// parameters, so an injection attempt cannot execute — this check exists to
// reject it loudly instead of returning an empty, confusing match list.
//
// Only string values are checked; numbers and booleans cannot carry
// injection patterns. Returns nil when no injection is detected.
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			ParamName:   paramName,
			ParamValue:  value,
		}
	}

	return nil
}
