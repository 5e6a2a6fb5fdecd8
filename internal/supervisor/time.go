package supervisor

import "time"

// timeNow is swapped out in tests for deterministic timestamps.
var timeNow = time.Now
