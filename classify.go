package gopherwalk

// KindIgnored is not part of ItemKind's public enumeration of registry
// entries: it is Classify's result for a line the crawler should skip ('i',
// '.', and any type this module does not support), and it never reaches
// the Registry.
const KindIgnored ItemKind = -1

// Classify maps an RFC 1436 type character to the internal taxonomy. It
// never returns KindExternalRef, KindTimeout or KindTooLarge: the menu
// parser decides ExternalRef itself (a directory type with an empty
// selector), and the other two are attached later by the crawl engine and
// the analyzer when a fetch or a size measurement fails.
func Classify(t byte) ItemKind {
	switch t {
	case '1':
		return KindDirectory
	case '0':
		return KindText
	case '3':
		return KindInvalidRef
	case '9', '4', '5', '6', 'g', 'I', ':', ';', '<', 'd', 'h', 'p', 'r', 's', 'P', 'X':
		return KindBinary
	default:
		// includes 'i', '.', '2', '7', '8', 'T' and anything unrecognized.
		return KindIgnored
	}
}

// Valid reports whether k is a kind the Registry can hold. KindIgnored is
// the only invalid value Classify produces.
func (k ItemKind) Valid() bool {
	return k != KindIgnored
}
