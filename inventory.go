package condoor

import (
	"regexp"
	"strings"
)

var (
	invNameRe = regexp.MustCompile(`NAME:\s*"([^"]+)"`)
	invDescRe = regexp.MustCompile(`DESCR:\s*"([^"]+)"`)
	invPIDRe  = regexp.MustCompile(`PID:\s*([^,\s]+)`)
	invVIDRe  = regexp.MustCompile(`VID:\s*([^,\s]+)`)
	invSNRe   = regexp.MustCompile(`SN:\s*([^,\s]+)`)
)

// parseInventory extracts the chassis record from "show inventory"
// output: the first "NAME: ... DESCR: ... PID: ... VID: ... SN: ..."
// block, preferring a line naming "Chassis" when more than one entry is
// present. Ported from condoor/utils.py's parse_inventory.
func parseInventory(text string) UDI {
	lines := strings.Split(text, "\n")
	ordered := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), "chassis") {
			ordered = append(ordered, line)
		}
	}
	ordered = append(ordered, lines...)

	for _, line := range ordered {
		if !invNameRe.MatchString(line) {
			continue
		}
		return UDI{
			Name:        firstSubmatch(invNameRe, line),
			Description: firstSubmatch(invDescRe, line),
			PID:         firstSubmatch(invPIDRe, line),
			VID:         firstSubmatch(invVIDRe, line),
			SN:          firstSubmatch(invSNRe, line),
		}
	}
	return UDI{}
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
