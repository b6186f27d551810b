package speech

import (
	"golang.org/x/text/language"
)

// Speech defaults for Nepali.
const (
	DefaultLang  = "ne-NP"
	DefaultRate  = 0.9
	DefaultPitch = 1.0
)

// SelectVoice picks the voice for target: the first voice of the target's
// language, else the first voice of the target's region, else nil (platform
// default). Voices with unparseable tags are skipped.
func SelectVoice(voices []Voice, target language.Tag) *Voice {
	base, _ := target.Base()
	region, _ := target.Region()

	for i := range voices {
		tag, err := language.Parse(voices[i].Lang)
		if err != nil {
			continue
		}
		if b, conf := tag.Base(); conf != language.No && b == base {
			return &voices[i]
		}
	}

	for i := range voices {
		tag, err := language.Parse(voices[i].Lang)
		if err != nil {
			continue
		}
		// Only an explicit region counts; "hi" alone must not match NP.
		if r, conf := tag.Region(); conf == language.Exact && r == region {
			return &voices[i]
		}
	}

	return nil
}
