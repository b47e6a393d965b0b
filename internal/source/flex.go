package source

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/names"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// FlexString decodes a JSON string or number into its text form. Feeds are
// not consistent about quoting ids and scores.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*f = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(raw)
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// LogNameMisses warns about opponents the team table does not know.
func LogNameMisses(logger *logging.Logger, n *names.Normalizer, candidates []game.Candidate) {
	for _, c := range candidates {
		if _, ok := n.Lookup(names.Team, c.OpponentRaw); !ok {
			logger.Warn("name lookup miss", "category", string(names.Team), "raw", c.OpponentRaw, "title", c.IdentityKey)
		}
	}
}
