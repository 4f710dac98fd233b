package schedule

import (
	"strings"

	"github.com/sells-group/classify/internal/model"
)

// ResolveName splits an instructor display name on whitespace. The first
// token is the given name and the rest, single-spaced, the family name.
// Names with fewer than two tokens are unresolvable.
func ResolveName(name string) (model.ResolvedName, bool) {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return model.ResolvedName{}, false
	}
	return model.ResolvedName{
		Given:  tokens[0],
		Family: strings.Join(tokens[1:], " "),
	}, true
}
