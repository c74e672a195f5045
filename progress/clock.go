package progress

import (
	"github.com/jonboulle/clockwork"
)

// clock is captured by every Bar, Multi, and DrawTarget when it is created.
var clock = clockwork.NewRealClock()
