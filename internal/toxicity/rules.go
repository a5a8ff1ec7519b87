package toxicity

import (
	"regexp"
	"strings"
)

// Categories reported by the classifier. CategorySpam is issued by the
// pipeline for rate-limit violations and shares the warning taxonomy.
const (
	CategoryProfanity  = "profanity"
	CategoryHateSpeech = "hate_speech"
	CategoryThreat     = "threat"
	CategorySexual     = "sexual_content"
	CategoryObfuscated = "obfuscated_profanity"
	CategorySpam       = "spam"
)

// Severity scores are policy constants, not computed values.
const (
	scoreHateSpeech = 0.95
	scoreThreat     = 0.90
	scoreSexual     = 0.80
	scoreProfanity  = 0.75
	scoreObfuscated = 0.78
)

// Rule is one entry of the ordered cascade. First match wins, so order in
// the rules slice is part of the policy: unambiguous and severe categories
// come before broader ones.
type Rule struct {
	Category    string
	Score       float64
	Language    string
	Explanation string
	pattern     *regexp.Regexp
}

func (r *Rule) Match(text string) bool {
	return r.pattern.MatchString(text)
}

func wordPattern(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

var (
	profanityEN = []string{
		"fuck(?:ing|er|ed)?", "shit(?:ty)?", "bitch(?:es)?", "asshole(?:s)?",
		"bastard(?:s)?", "dickhead(?:s)?", "cunt(?:s)?", "motherfucker(?:s)?",
	}
	hateEN = []string{
		"kill all \\w+", "death to (?:all )?\\w+", "subhuman(?:s)?",
		"go back to your country", "\\w+ don'?t belong here",
		"gas the \\w+", "ethnic cleansing",
	}
	threatEN = []string{
		"i(?:'| a)?m going to kill you", "i'?ll kill you", "i will kill you",
		"kill yourself", "kys", "i know where you live",
		"i(?:'| wi)?ll find you", "watch your back", "you(?:'re| are) dead",
		"i(?:'| a)?m going to hurt you",
	}
	hateES = []string{
		"muerte a (?:los|las|todos) \\w+", "odio a (?:los|las) \\w+",
		"no perteneces aqu[ií]", "fuera de mi pa[ií]s",
	}
	threatES = []string{
		"te voy a matar", "te mato", "te voy a encontrar",
		"m[aá]tate", "te voy a hacer da[ñn]o", "est[aá]s muerto",
	}
	sexualES = []string{
		"follar", "verga", "polla", "co[ñn]o", "chupame", "culear",
	}
	profanityES = []string{
		"mierda", "puta(?:s)?", "puto(?:s)?", "pendej[oa](?:s)?",
		"cabr[oó]n(?:es)?", "joder", "gilipollas", "hijo de puta",
	}
)

// rules is the fixed-precedence cascade. Adding a language or category is a
// data change here, not new control flow.
var rules = []Rule{
	{CategoryHateSpeech, scoreHateSpeech, "en", "matched an English hate speech pattern", wordPattern(hateEN...)},
	{CategoryThreat, scoreThreat, "en", "matched an English threat pattern", wordPattern(threatEN...)},
	{CategoryProfanity, scoreProfanity, "en", "matched an English profanity pattern", wordPattern(profanityEN...)},
	{CategoryHateSpeech, scoreHateSpeech, "es", "matched a Spanish hate speech pattern", wordPattern(hateES...)},
	{CategoryThreat, scoreThreat, "es", "matched a Spanish threat pattern", wordPattern(threatES...)},
	{CategorySexual, scoreSexual, "es", "matched a Spanish sexual content pattern", wordPattern(sexualES...)},
	{CategoryProfanity, scoreProfanity, "es", "matched a Spanish profanity pattern", wordPattern(profanityES...)},
}

// blockedRoots are the plain word stems used by the obfuscation and
// separator-bypass heuristics, drawn from both languages.
var blockedRoots = []string{
	"fuck", "shit", "bitch", "asshole", "cunt", "kys",
	"mierda", "puta", "pendejo", "cabron", "joder",
}

// leetMap translates common symbol-for-letter substitutions before the
// obfuscation check.
var leetMap = map[rune]rune{
	'@': 'a', '4': 'a', '3': 'e', '1': 'i', '!': 'i', '|': 'i',
	'0': 'o', '$': 's', '5': 's', '7': 't', '+': 't', '9': 'g',
}

// deobfuscate maps substituted characters back to letters. Returns the
// normalized text and whether any substitution was applied.
func deobfuscate(text string) (string, bool) {
	changed := false
	out := strings.Map(func(r rune) rune {
		if sub, ok := leetMap[r]; ok {
			changed = true
			return sub
		}
		return r
	}, strings.ToLower(text))
	return out, changed
}

// matchObfuscated reports whether the text hides a blocked root behind
// character substitutions (e.g. "f0ck", "pu7a"). Only tokens that
// themselves contained a substitution are scanned, so a plain digit
// elsewhere in the message never turns an innocent word into a match.
func matchObfuscated(text string) (string, bool) {
	for _, token := range strings.Fields(text) {
		normalized, changed := deobfuscate(token)
		if !changed {
			continue
		}
		for _, root := range blockedRoots {
			if strings.Contains(normalized, root) {
				return root, true
			}
		}
	}
	return "", false
}

// bypassSeq finds runs of single letters separated by non-word characters,
// e.g. "f.u.c.k" or "f u c k".
var bypassSeq = regexp.MustCompile(`(?i)\b[a-z](?:[\W_][a-z]){2,}\b`)

var nonLetter = regexp.MustCompile(`[\W_]`)

// matchBypass reports whether separator-spaced letters spell a blocked root.
func matchBypass(text string) (string, bool) {
	for _, seq := range bypassSeq.FindAllString(text, -1) {
		collapsed := strings.ToLower(nonLetter.ReplaceAllString(seq, ""))
		for _, root := range blockedRoots {
			if collapsed == root {
				return root, true
			}
		}
	}
	return "", false
}
