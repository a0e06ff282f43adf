package normalize

// bestfit folds a code point outside Latin-1 into the closest single-byte
// form, mirroring the Windows best-fit tables that make %u sequences and
// full-width characters reach ASCII-matching filters.
func bestfit(code rune, replacement byte) byte {
	if code < 0x100 {
		return byte(code)
	}

	// the full-width ASCII block is offset-aligned with the printable range
	if code >= 0xFF01 && code <= 0xFF5E {
		return byte(code - 0xFEE0)
	}

	if b, ok := bestfitTable[code]; ok {
		return b
	}

	return replacement
}

var bestfitTable = map[rune]byte{
	// Latin Extended-A folds to the undecorated base letter
	0x0100: 'A', 0x0101: 'a', 0x0102: 'A', 0x0103: 'a',
	0x0104: 'A', 0x0105: 'a', 0x0106: 'C', 0x0107: 'c',
	0x0108: 'C', 0x0109: 'c', 0x010A: 'C', 0x010B: 'c',
	0x010C: 'C', 0x010D: 'c', 0x010E: 'D', 0x010F: 'd',
	0x0110: 'D', 0x0111: 'd', 0x0112: 'E', 0x0113: 'e',
	0x0114: 'E', 0x0115: 'e', 0x0116: 'E', 0x0117: 'e',
	0x0118: 'E', 0x0119: 'e', 0x011A: 'E', 0x011B: 'e',
	0x011C: 'G', 0x011D: 'g', 0x011E: 'G', 0x011F: 'g',
	0x0120: 'G', 0x0121: 'g', 0x0122: 'G', 0x0123: 'g',
	0x0124: 'H', 0x0125: 'h', 0x0126: 'H', 0x0127: 'h',
	0x0128: 'I', 0x0129: 'i', 0x012A: 'I', 0x012B: 'i',
	0x012C: 'I', 0x012D: 'i', 0x012E: 'I', 0x012F: 'i',
	0x0130: 'I', 0x0131: 'i', 0x0132: 'I', 0x0133: 'i',
	0x0134: 'J', 0x0135: 'j', 0x0136: 'K', 0x0137: 'k',
	0x0138: 'k', 0x0139: 'L', 0x013A: 'l', 0x013B: 'L',
	0x013C: 'l', 0x013D: 'L', 0x013E: 'l', 0x013F: 'L',
	0x0140: 'l', 0x0141: 'L', 0x0142: 'l', 0x0143: 'N',
	0x0144: 'n', 0x0145: 'N', 0x0146: 'n', 0x0147: 'N',
	0x0148: 'n', 0x0149: 'n', 0x014A: 'N', 0x014B: 'n',
	0x014C: 'O', 0x014D: 'o', 0x014E: 'O', 0x014F: 'o',
	0x0150: 'O', 0x0151: 'o', 0x0152: 'O', 0x0153: 'o',
	0x0154: 'R', 0x0155: 'r', 0x0156: 'R', 0x0157: 'r',
	0x0158: 'R', 0x0159: 'r', 0x015A: 'S', 0x015B: 's',
	0x015C: 'S', 0x015D: 's', 0x015E: 'S', 0x015F: 's',
	0x0160: 'S', 0x0161: 's', 0x0162: 'T', 0x0163: 't',
	0x0164: 'T', 0x0165: 't', 0x0166: 'T', 0x0167: 't',
	0x0168: 'U', 0x0169: 'u', 0x016A: 'U', 0x016B: 'u',
	0x016C: 'U', 0x016D: 'u', 0x016E: 'U', 0x016F: 'u',
	0x0170: 'U', 0x0171: 'u', 0x0172: 'U', 0x0173: 'u',
	0x0174: 'W', 0x0175: 'w', 0x0176: 'Y', 0x0177: 'y',
	0x0178: 'Y', 0x0179: 'Z', 0x017A: 'z', 0x017B: 'Z',
	0x017C: 'z', 0x017D: 'Z', 0x017E: 'z', 0x017F: 's',

	// typographic punctuation that aliases ASCII metacharacters
	0x02B9: '\'', 0x02BA: '"', 0x02BC: '\'', 0x02C4: '^', 0x02C6: '^',
	0x02C8: '\'', 0x02CB: '`', 0x02CD: '_', 0x02DC: '~',
	0x2010: '-', 0x2011: '-', 0x2012: '-', 0x2013: '-', 0x2014: '-',
	0x2018: '\'', 0x2019: '\'', 0x201A: ',', 0x201C: '"', 0x201D: '"',
	0x201E: '"', 0x2026: '.', 0x2032: '\'', 0x2033: '"', 0x2035: '`',
	0x2039: '<', 0x203A: '>', 0x2044: '/', 0x2215: '/', 0x2216: '\\',
	0x2223: '|', 0x2236: ':', 0x223C: '~', 0x2303: '^', 0x2329: '<',
	0x232A: '>', 0x3008: '<', 0x3009: '>', 0x301A: '[', 0x301B: ']',
	0x30FB: '.', 0xFF61: '.', 0xFF64: ',', 0xFF65: '.',
}
