package util

import "strings"

// StripCommandEcho drops the first line of output -- the terminal's
// echo of the command that produced it -- the same slicing
// Device.execute_command performs via output.find('\n')+1 before
// handing a command's result back to the caller.
func StripCommandEcho(output string) string {
	if i := strings.IndexByte(output, '\n'); i >= 0 {
		return output[i+1:]
	}
	return output
}
