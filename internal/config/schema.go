package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/language"
)

// schema constrains a loaded Config. Durations are in nanoseconds.
const schema = `
import "strings"

#Config: {
	backend_url:   "" | =~"^https?://[^ ]+$"
	principal:     string
	display_name:  string & strings.MaxRunes(100)
	database:      string & !=""
	listen:        string & =~":[0-9]+$"
	locale:        string & =~"^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$"
	poll_visible:  int & >0
	poll_hidden:   int & >=poll_visible
	fetch_limit:   int & >0 & <=1000
	fetch_timeout: int & >=0
	stop_grace:    int & >=0
	speech_rate:   number & >=0.1 & <=10
	speech_pitch:  number & >=0 & <=2
}
`

// FieldError is one rejected setting.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected setting.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks c against the schema. Returns all violations at once as
// a *ValidationError.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	def := ctx.CompileString(schema, cue.Filename("config.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := def.Unify(ctx.Encode(c))

	var ve ValidationError
	if err := v.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			field := strings.Join(e.Path(), ".")
			format, args := e.Msg()
			msg := fmt.Sprintf(format, args...)
			if field != "" {
				msg = field + ": " + msg
			}
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: msg})
		}
	}
	if _, err := language.Parse(c.Locale); err != nil {
		ve.Fields = append(ve.Fields, FieldError{
			Field:   "locale",
			Message: fmt.Sprintf("locale: %v", err),
		})
	}

	if len(ve.Fields) > 0 {
		return &ve
	}
	return nil
}
