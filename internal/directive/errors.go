package directive

import "fmt"

// SyntaxError is the structured diagnostic raised for malformed
// directive strings and schema violations.
//
// Debug controls whether Error() includes the Frames field; when false
// (the zero value) internal transform-pipeline frames are elided,
// leaving only the user-facing message and source position.
type SyntaxError struct {
	Filename   string
	Line, Col  int
	EndLine    int
	EndCol     int
	SourceLine string
	Message    string
	Debug      bool
	Frames     []string
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s:%d:%d: %s\n%s", e.Filename, e.Line, e.Col, e.Message, e.SourceLine)
	if e.Debug && len(e.Frames) > 0 {
		for _, f := range e.Frames {
			msg += "\n\t" + f
		}
	}
	return msg
}

// Alternatives describes the acceptable elements missing when a required
// clause or clause group was not satisfied ("when a
// required element is missing, the list of acceptable alternatives").
type MissingRequiredError struct {
	*SyntaxError
	Alternatives []string
}

func (e *MissingRequiredError) Error() string {
	base := e.SyntaxError.Error()
	if len(e.Alternatives) == 0 {
		return base
	}
	return fmt.Sprintf("%s (expected one of: %v)", base, e.Alternatives)
}
