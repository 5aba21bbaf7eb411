package fsm

import "regexp"

// patternToStr renders an Event for a debug log line: a regexp's source
// text, "TIMEOUT"/"EOF" for the sentinels, or "<nil>". Ported from
// condoor/utils.py's pattern_to_str, used only for log formatting.
func patternToStr(e Event) string {
	switch v := e.(type) {
	case nil:
		return "<nil>"
	case timeoutEvent:
		return "TIMEOUT"
	case eofEvent:
		return "EOF"
	case *regexp.Regexp:
		if v == nil {
			return "<nil>"
		}
		return v.String()
	default:
		return "?"
	}
}
