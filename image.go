package shelfscan

import "strings"

// minImagePayload is the minimum viable base64 payload length after
// stripping any data-URI prefix. Shorter inputs short-circuit without a
// network call.
const minImagePayload = 100

// StripDataURI removes an embedded "data:...;base64," prefix, if present.
func StripDataURI(image string) string {
	if !strings.HasPrefix(image, "data:") {
		return image
	}
	if i := strings.Index(image, "base64,"); i >= 0 {
		return image[i+len("base64,"):]
	}
	return image
}
