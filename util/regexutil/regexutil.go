package regexutil

import "regexp"

// FindNamedGroupsMatch finds a match using a regex with named groups and returns
// a map representing the values of the sub-matches as key-value pairs
func FindNamedGroupsMatch(regexp *regexp.Regexp, text string) (map[string]string, bool) {
	if match := regexp.FindStringSubmatch(text); match != nil {
		result := make(map[string]string)
		for i, name := range regexp.SubexpNames() {
			if i != 0 && name != "" {
				result[name] = match[i]
			}
		}
		return result, true
	}
	return nil, false
}

// FindAllNamedGroupsMatches returns one map per match of a regex with named
// groups, in the order the matches appear in the text
func FindAllNamedGroupsMatches(regexp *regexp.Regexp, text string) []map[string]string {
	matches := regexp.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}
	var results []map[string]string
	for _, match := range matches {
		result := make(map[string]string)
		for i, name := range regexp.SubexpNames() {
			if i != 0 && name != "" {
				result[name] = match[i]
			}
		}
		results = append(results, result)
	}
	return results
}
