package command

import "strings"

// nextArg consumes one argument from the tail of a command line and returns
// it with the trimmed remainder. Double quotes group words, so display names
// like "Starter Pack" resolve as one token.
func nextArg(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if s[0] == '"' {
		if i := strings.IndexByte(s[1:], '"'); i >= 0 {
			return s[1 : 1+i], strings.TrimSpace(s[2+i:])
		}
		return s[1:], ""
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// parseRoleID accepts a raw role id or a <@&id> mention.
func parseRoleID(arg string) (string, bool) {
	if inner, ok := cutMention(arg, "<@&"); ok {
		return inner, inner != ""
	}
	return arg, arg != ""
}

// parseChannelID accepts a raw channel id or a <#id> mention.
func parseChannelID(arg string) (string, bool) {
	if inner, ok := cutMention(arg, "<#"); ok {
		return inner, inner != ""
	}
	return arg, arg != ""
}

func cutMention(arg, prefix string) (string, bool) {
	if strings.HasPrefix(arg, prefix) && strings.HasSuffix(arg, ">") {
		return arg[len(prefix) : len(arg)-1], true
	}
	return "", false
}
