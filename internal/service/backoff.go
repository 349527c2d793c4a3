package service

import "time"

const (
	maxRetryDelay        = 60 * time.Second
	baseRetryDelay       = time.Second
	maxRetryJitterMillis = 250
)

// computeRetryDelay doubles from baseRetryDelay per attempt, caps at
// maxRetryDelay and adds up to maxRetryJitterMillis of jitter.
func computeRetryDelay(attemptNumber int, randIntn func(n int) int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	jitterMillis := 0
	if randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}
