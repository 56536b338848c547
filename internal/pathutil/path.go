package pathutil

import "regexp"

// ChannelParamRegex matches channel name/address parameters like {userId}.
// It captures the parameter name inside the braces.
var ChannelParamRegex = regexp.MustCompile(`\{([^}]+)\}`)

// ChannelParams returns the parameter names used in a channel name or address,
// in order of appearance.
func ChannelParams(channel string) []string {
	matches := ChannelParamRegex.FindAllStringSubmatch(channel, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
