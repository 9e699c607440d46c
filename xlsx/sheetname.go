package xlsx

import "strings"

// MaxSheetNameLen is the longest sheet name Excel accepts.
const MaxSheetNameLen = 31

// SafeSheetName turns name into a valid sheet name: characters Excel rejects
// become spaces, a quote at either end becomes a space and the result is cut
// to MaxSheetNameLen runes. An empty name becomes "null".
func SafeSheetName(name string) string {
	if name == "" {
		return "null"
	}
	runes := []rune(name)
	if len(runes) > MaxSheetNameLen {
		runes = runes[:MaxSheetNameLen]
	}
	for i, r := range runes {
		switch {
		case r == 0 || r == 3 || strings.ContainsRune(`\/*?[]:`, r):
			runes[i] = ' '
		case r == '\'' && (i == 0 || i == len(runes)-1):
			runes[i] = ' '
		}
	}
	return string(runes)
}
